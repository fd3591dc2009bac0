package convert

import (
	"strconv"

	"github.com/wippyai/pybridge/bridge"
	"github.com/wippyai/pybridge/errors"
)

// builtin type names recognized by Decode, in classification order. bool
// precedes int.
var decodable = []string{"bool", "int", "float", "str", "list", "tuple", "dict"}

// Decoder turns foreign objects into Go values.
type Decoder struct {
	b     bridge.Bridge
	types map[string]bridge.Borrowed
}

// NewDecoder returns a decoder bound to b.
func NewDecoder(b bridge.Bridge) *Decoder {
	return &Decoder{b: b}
}

// Decode converts the object named by h. The object is borrowed, never
// released.
//
//	None              nil
//	bool              bool
//	int               int64
//	float             float64
//	str               string
//	list, tuple       []any
//	dict              map[string]any (non-str keys use str(key))
//
// Subclasses of these types are rejected with KindUnsupported, as is every
// other type.
func (d *Decoder) Decode(h bridge.Handle) (any, error) {
	return d.decode(h, nil, 0)
}

// builtinTypes resolves the decodable type objects from the builtins
// namespace. They are borrowed from builtins for the session's lifetime.
func (d *Decoder) builtinTypes() (map[string]bridge.Borrowed, error) {
	if d.types != nil {
		return d.types, nil
	}
	builtins, err := d.b.Builtins()
	if err != nil {
		return nil, err
	}
	if builtins.IsNull() {
		return nil, errors.NullReference(errors.PhaseDecode, "PyEval_GetBuiltins")
	}
	types := make(map[string]bridge.Borrowed, len(decodable))
	for _, name := range decodable {
		t, err := d.b.DictGetItemString(builtins, name)
		if err != nil {
			return nil, err
		}
		if t.IsNull() {
			return nil, errors.New(errors.PhaseDecode, errors.KindNullReference).
				Detail("builtins has no %q", name).
				Build()
		}
		types[name] = t
	}
	d.types = types
	return types, nil
}

// classify returns the builtin name of h's exact type, or "" and the
// foreign type name for anything else.
func (d *Decoder) classify(h bridge.Handle) (string, string, error) {
	types, err := d.builtinTypes()
	if err != nil {
		return "", "", err
	}
	typ, err := d.b.Type(h)
	if err != nil {
		return "", "", err
	}
	if typ.IsNull() {
		return "", "", errors.NullReference(errors.PhaseDecode, "PyObject_Type")
	}
	defer d.b.Release(typ)

	for _, name := range decodable {
		same, err := d.b.Is(typ, types[name])
		if err != nil {
			return "", "", err
		}
		if same {
			return name, name, nil
		}
	}
	return "", d.foreignName(typ), nil
}

func (d *Decoder) foreignName(typ bridge.Handle) string {
	name, err := d.b.GetAttr(typ, "__name__")
	if err != nil || name.IsNull() {
		_ = d.b.ErrClear()
		return "object"
	}
	defer d.b.Release(name)
	s, ok, _ := d.b.Text(name)
	if !ok {
		_ = d.b.ErrClear()
		return "object"
	}
	return s
}

func (d *Decoder) decode(h bridge.Handle, path []string, depth int) (any, error) {
	if depth > MaxDepth {
		return nil, errors.New(errors.PhaseDecode, errors.KindOverflow).
			Path(path...).
			Detail("nesting exceeds %d levels", MaxDepth).
			Build()
	}
	if h == nil {
		return nil, errors.NullReference(errors.PhaseDecode, "decode")
	}

	isNone, err := d.b.IsNone(h)
	if err != nil {
		return nil, err
	}
	if isNone {
		return nil, nil
	}

	kind, foreign, err := d.classify(h)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "bool":
		v, err := d.b.IsTrue(h)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, pendingError(d.b, errors.PhaseDecode, path, "PyObject_IsTrue")
		}
		return v == 1, nil

	case "int":
		v, err := d.b.AsInt64(h)
		if err != nil {
			return nil, err
		}
		if v == -1 {
			if err := d.raised(path, "PyLong_AsLongLong"); err != nil {
				return nil, err
			}
		}
		return v, nil

	case "float":
		v, err := d.b.AsFloat64(h)
		if err != nil {
			return nil, err
		}
		if v == -1 {
			if err := d.raised(path, "PyFloat_AsDouble"); err != nil {
				return nil, err
			}
		}
		return v, nil

	case "str":
		s, ok, err := d.b.Text(h)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pendingError(d.b, errors.PhaseDecode, path, "PyUnicode_AsUTF8AndSize")
		}
		return s, nil

	case "list":
		return d.decodeSequence(h, path, depth, d.b.ListSize, d.b.ListGetItem)

	case "tuple":
		return d.decodeSequence(h, path, depth, d.b.TupleSize, d.b.TupleGetItem)

	case "dict":
		return d.decodeDict(h, path, depth)
	}

	return nil, errors.New(errors.PhaseDecode, errors.KindUnsupported).
		Path(path...).
		ForeignType(foreign).
		Detail("no Go representation for %s", foreign).
		Build()
}

// raised reports the pending exception behind a -1 sentinel, if any.
func (d *Decoder) raised(path []string, op string) error {
	pending, err := d.b.ErrOccurred()
	if err != nil {
		return err
	}
	if !pending {
		return nil
	}
	return pendingError(d.b, errors.PhaseDecode, path, op)
}

func (d *Decoder) decodeSequence(
	h bridge.Handle,
	path []string,
	depth int,
	size func(bridge.Handle) (int, error),
	item func(bridge.Handle, int) (bridge.Borrowed, error),
) (any, error) {
	n, err := size(h)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, pendingError(d.b, errors.PhaseDecode, path, "Size")
	}

	out := make([]any, n)
	for i := 0; i < n; i++ {
		p := childPath(path, "["+strconv.Itoa(i)+"]")
		elem, err := item(h, i)
		if err != nil {
			return nil, err
		}
		if elem.IsNull() {
			return nil, pendingError(d.b, errors.PhaseDecode, p, "GetItem")
		}
		v, err := d.decode(elem, p, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (d *Decoder) decodeDict(h bridge.Handle, path []string, depth int) (any, error) {
	out := make(map[string]any)
	var failed error
	err := d.b.DictEach(h, func(key, value bridge.Borrowed) bool {
		k, err := d.keyString(key, path)
		if err != nil {
			failed = err
			return false
		}
		v, err := d.decode(value, childPath(path, k), depth+1)
		if err != nil {
			failed = err
			return false
		}
		out[k] = v
		return true
	})
	if err != nil {
		return nil, err
	}
	if failed != nil {
		return nil, failed
	}
	return out, nil
}

// keyString returns a str key's text, or str(key) for other key types.
func (d *Decoder) keyString(key bridge.Borrowed, path []string) (string, error) {
	if s, ok, err := d.b.Text(key); err != nil {
		return "", err
	} else if ok {
		return s, nil
	}
	// not a str: drop the TypeError from the text probe
	if err := d.b.ErrClear(); err != nil {
		return "", err
	}

	str, err := d.b.Str(key)
	if err != nil {
		return "", err
	}
	if str.IsNull() {
		return "", pendingError(d.b, errors.PhaseDecode, path, "PyObject_Str")
	}
	defer d.b.Release(str)

	s, ok, err := d.b.Text(str)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", pendingError(d.b, errors.PhaseDecode, path, "PyUnicode_AsUTF8AndSize")
	}
	return s, nil
}
