package bridge

import (
	"unsafe"
)

// FromString creates a str from UTF-8 text. Embedded NUL bytes are kept.
func (b Bridge) FromString(s string) (Owned, error) {
	fn, err := bind[func(string, int) uintptr](b.s, "PyUnicode_FromStringAndSize")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(s, len(s)), "PyUnicode_FromStringAndSize"), nil
}

// FromInt64 creates an int.
func (b Bridge) FromInt64(v int64) (Owned, error) {
	fn, err := bind[func(int64) uintptr](b.s, "PyLong_FromLongLong")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(v), "PyLong_FromLongLong"), nil
}

// FromFloat64 creates a float.
func (b Bridge) FromFloat64(v float64) (Owned, error) {
	fn, err := bind[func(float64) uintptr](b.s, "PyFloat_FromDouble")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(v), "PyFloat_FromDouble"), nil
}

// FromBool returns a new reference to True or False.
func (b Bridge) FromBool(v bool) (Owned, error) {
	fn, err := bind[func(int) uintptr](b.s, "PyBool_FromLong")
	if err != nil {
		return Owned{}, err
	}
	n := 0
	if v {
		n = 1
	}
	return b.s.acquire(fn(n), "PyBool_FromLong"), nil
}

// AsInt64 extracts an integer. A result of -1 may signal a pending exception
// (TypeError, OverflowError); check ErrOccurred to tell it from a real -1.
func (b Bridge) AsInt64(obj Handle) (int64, error) {
	fn, err := bind[func(uintptr) int64](b.s, "PyLong_AsLongLong")
	if err != nil {
		return -1, err
	}
	return fn(addr(obj)), nil
}

// AsFloat64 extracts a float, converting ints. A result of -1.0 may signal a
// pending exception.
func (b Bridge) AsFloat64(obj Handle) (float64, error) {
	fn, err := bind[func(uintptr) float64](b.s, "PyFloat_AsDouble")
	if err != nil {
		return -1, err
	}
	return fn(addr(obj)), nil
}

// IsTrue evaluates truthiness. It returns -1 with a pending exception if
// __bool__ raised.
func (b Bridge) IsTrue(obj Handle) (int, error) {
	fn, err := bind[func(uintptr) int32](b.s, "PyObject_IsTrue")
	if err != nil {
		return -1, err
	}
	return int(fn(addr(obj))), nil
}

// AsText returns a view of a str object's UTF-8 encoding. The view points
// into memory owned by obj and is only valid while obj is alive; copy it with
// TextView.String to keep it longer. A null view comes with a pending
// exception (obj is not a str, or cannot be encoded).
func (b Bridge) AsText(obj Handle) (TextView, error) {
	fn, err := bind[func(uintptr, *int) unsafe.Pointer](b.s, "PyUnicode_AsUTF8AndSize")
	if err != nil {
		return TextView{}, err
	}
	var n int
	p := fn(addr(obj), &n)
	if p == nil {
		return TextView{}, nil
	}
	return TextView{data: p, n: n}, nil
}

// Text copies a str object's contents into a Go string. It returns ok=false
// with a pending exception if obj is not text.
func (b Bridge) Text(obj Handle) (s string, ok bool, err error) {
	v, err := b.AsText(obj)
	if err != nil {
		return "", false, err
	}
	if v.IsNull() {
		return "", false, nil
	}
	return v.String(), true, nil
}
