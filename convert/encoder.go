package convert

import (
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/wippyai/pybridge/bridge"
	"github.com/wippyai/pybridge/errors"
)

// MaxDepth bounds container nesting in both directions.
const MaxDepth = 128

var handleType = reflect.TypeOf((*bridge.Handle)(nil)).Elem()

// Encoder turns Go values into foreign objects.
type Encoder struct {
	b bridge.Bridge
}

// NewEncoder returns an encoder bound to b.
func NewEncoder(b bridge.Bridge) *Encoder {
	return &Encoder{b: b}
}

// Encode converts v and returns a new reference the caller must release.
//
//	nil, nil pointers and nil interfaces  None
//	bool                                  bool
//	signed and unsigned integers          int (must fit int64)
//	float32, float64                      float
//	string                                str
//	slices                                list
//	arrays                                tuple
//	maps with string, integer or bool keys  dict
//	structs                               dict keyed by field name or py tag
//	bridge.Handle                         the same object, new reference
func (e *Encoder) Encode(v any) (bridge.Owned, error) {
	return e.encode(reflect.ValueOf(v), nil, 0)
}

func (e *Encoder) encode(v reflect.Value, path []string, depth int) (bridge.Owned, error) {
	if depth > MaxDepth {
		return bridge.Owned{}, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Path(path...).
			Detail("nesting exceeds %d levels", MaxDepth).
			Build()
	}
	if !v.IsValid() {
		return e.b.NoneRef()
	}

	if v.Type().Implements(handleType) && v.CanInterface() {
		if (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) && v.IsNil() {
			return e.b.NoneRef()
		}
		h := v.Interface().(bridge.Handle)
		if isNullHandle(h) {
			return e.b.NoneRef()
		}
		return e.check(path, "Py_IncRef")(e.b.IncRef(h))
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return e.b.NoneRef()
		}
		return e.encode(v.Elem(), path, depth)

	case reflect.Bool:
		return e.check(path, "PyBool_FromLong")(e.b.FromBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.check(path, "PyLong_FromLongLong")(e.b.FromInt64(v.Int()))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return bridge.Owned{}, errors.Overflow(errors.PhaseEncode, path, u, "int")
		}
		return e.check(path, "PyLong_FromLongLong")(e.b.FromInt64(int64(u)))

	case reflect.Float32, reflect.Float64:
		return e.check(path, "PyFloat_FromDouble")(e.b.FromFloat64(v.Float()))

	case reflect.String:
		return e.check(path, "PyUnicode_FromStringAndSize")(e.b.FromString(v.String()))

	case reflect.Slice:
		if v.IsNil() {
			return e.b.NoneRef()
		}
		return e.encodeList(v, path, depth)

	case reflect.Array:
		return e.encodeTuple(v, path, depth)

	case reflect.Map:
		if v.IsNil() {
			return e.b.NoneRef()
		}
		return e.encodeMap(v, path, depth)

	case reflect.Struct:
		return e.encodeStruct(v, path, depth)
	}

	return bridge.Owned{}, errors.New(errors.PhaseEncode, errors.KindUnsupported).
		Path(path...).
		GoType(v.Type().String()).
		Detail("no foreign representation for %s", v.Kind()).
		Build()
}

func isNullHandle(h bridge.Handle) bool {
	switch r := h.(type) {
	case bridge.Ref:
		return r.IsNull()
	case bridge.Owned:
		return r.IsNull()
	case bridge.Borrowed:
		return r.IsNull()
	}
	return false
}

// check turns a null result into the pending exception, or a null reference
// error when nothing is pending.
func (e *Encoder) check(path []string, op string) func(bridge.Owned, error) (bridge.Owned, error) {
	return func(o bridge.Owned, err error) (bridge.Owned, error) {
		if err != nil {
			return bridge.Owned{}, err
		}
		if o.IsNull() {
			return bridge.Owned{}, pendingError(e.b, errors.PhaseEncode, path, op)
		}
		return o, nil
	}
}

// pendingError converts the pending exception into an error at path.
func pendingError(b bridge.Bridge, phase errors.Phase, path []string, op string) error {
	err := b.FetchError()
	if err == nil {
		e := errors.NullReference(phase, op)
		e.Path = path
		return e
	}
	if fe, ok := err.(*errors.Error); ok {
		fe.Path = path
		fe.Symbol = op
	}
	return err
}

func childPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func (e *Encoder) encodeList(v reflect.Value, path []string, depth int) (bridge.Owned, error) {
	list, err := e.check(path, "PyList_New")(e.b.NewList(v.Len()))
	if err != nil {
		return bridge.Owned{}, err
	}
	for i := 0; i < v.Len(); i++ {
		p := childPath(path, "["+strconv.Itoa(i)+"]")
		item, err := e.encode(v.Index(i), p, depth+1)
		if err != nil {
			_ = e.b.Release(list)
			return bridge.Owned{}, err
		}
		status, err := e.b.ListSetItem(list, i, item)
		if err == nil && status != 0 {
			err = pendingError(e.b, errors.PhaseEncode, p, "PyList_SetItem")
		}
		if err != nil {
			_ = e.b.Release(list)
			return bridge.Owned{}, err
		}
	}
	return list, nil
}

func (e *Encoder) encodeTuple(v reflect.Value, path []string, depth int) (bridge.Owned, error) {
	tuple, err := e.check(path, "PyTuple_New")(e.b.NewTuple(v.Len()))
	if err != nil {
		return bridge.Owned{}, err
	}
	for i := 0; i < v.Len(); i++ {
		p := childPath(path, "["+strconv.Itoa(i)+"]")
		item, err := e.encode(v.Index(i), p, depth+1)
		if err != nil {
			_ = e.b.Release(tuple)
			return bridge.Owned{}, err
		}
		status, err := e.b.TupleSetItem(tuple, i, item)
		if err == nil && status != 0 {
			err = pendingError(e.b, errors.PhaseEncode, p, "PyTuple_SetItem")
		}
		if err != nil {
			_ = e.b.Release(tuple)
			return bridge.Owned{}, err
		}
	}
	return tuple, nil
}

func (e *Encoder) encodeMap(v reflect.Value, path []string, depth int) (bridge.Owned, error) {
	keyKind := v.Type().Key().Kind()
	switch keyKind {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return bridge.Owned{}, errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Path(path...).
			GoType(v.Type().String()).
			Detail("map keys must be strings, integers or bools").
			Build()
	}

	dict, err := e.check(path, "PyDict_New")(e.b.NewDict())
	if err != nil {
		return bridge.Owned{}, err
	}

	keys := v.MapKeys()
	sortKeys(keys)
	for _, k := range keys {
		p := childPath(path, keyLabel(k))
		if err := e.setEntry(dict, k, v.MapIndex(k), p, depth); err != nil {
			_ = e.b.Release(dict)
			return bridge.Owned{}, err
		}
	}
	return dict, nil
}

func (e *Encoder) encodeStruct(v reflect.Value, path []string, depth int) (bridge.Owned, error) {
	dict, err := e.check(path, "PyDict_New")(e.b.NewDict())
	if err != nil {
		return bridge.Owned{}, err
	}
	for _, f := range structFields(v.Type()) {
		fv := v.Field(f.index)
		if f.omitEmpty && fv.IsZero() {
			continue
		}
		p := childPath(path, f.name)
		if err := e.setEntry(dict, reflect.ValueOf(f.name), fv, p, depth); err != nil {
			_ = e.b.Release(dict)
			return bridge.Owned{}, err
		}
	}
	return dict, nil
}

// setEntry stores dict[key] = value. Neither encoded reference survives.
func (e *Encoder) setEntry(dict bridge.Owned, key, value reflect.Value, path []string, depth int) error {
	k, err := e.encode(key, path, depth+1)
	if err != nil {
		return err
	}
	defer e.b.Release(k)

	val, err := e.encode(value, path, depth+1)
	if err != nil {
		return err
	}
	defer e.b.Release(val)

	status, err := e.b.DictSetItem(dict, k, val)
	if err != nil {
		return err
	}
	if status != 0 {
		return pendingError(e.b, errors.PhaseEncode, path, "PyDict_SetItem")
	}
	return nil
}

// sortKeys orders map keys so dicts are built deterministically.
func sortKeys(keys []reflect.Value) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		switch a.Kind() {
		case reflect.String:
			return a.String() < b.String()
		case reflect.Bool:
			return !a.Bool() && b.Bool()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		default:
			return a.Uint() < b.Uint()
		}
	})
}

func keyLabel(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Bool:
		return strconv.FormatBool(k.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	default:
		return strconv.FormatUint(k.Uint(), 10)
	}
}
