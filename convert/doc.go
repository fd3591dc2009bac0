// Package convert translates between Go values and interpreter objects on
// top of a bridge.Bridge.
//
// An Encoder builds new objects from Go values:
//
//	enc := convert.NewEncoder(b)
//	obj, err := enc.Encode(map[string]any{"name": "ada", "tags": []string{"x"}})
//	if err != nil {
//		return err
//	}
//	defer b.Release(obj)
//
// A Decoder reads objects back into generic Go values or typed targets:
//
//	dec := convert.NewDecoder(b)
//	v, err := dec.Decode(obj) // map[string]any{"name": "ada", "tags": []any{"x"}}
//
//	var user struct {
//		Name string   `py:"name"`
//		Tags []string `py:"tags"`
//	}
//	err = dec.DecodeInto(obj, &user)
//
// Both directions release every intermediate reference they create and
// respect the stealing semantics of list and tuple stores. Exceptions raised
// while converting are taken out of the interpreter and returned as
// errors.KindForeignException, annotated with the path of the failing
// element.
package convert
