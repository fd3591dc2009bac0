package bridge

import (
	"unsafe"
)

// TextView is a read-only window onto UTF-8 bytes owned by a foreign object.
// It does not keep that object alive.
type TextView struct {
	data unsafe.Pointer
	n    int
}

// IsNull reports whether the view points nowhere.
func (v TextView) IsNull() bool {
	return v.data == nil
}

// Len returns the length in bytes.
func (v TextView) Len() int {
	return v.n
}

// Data returns a pointer to the first byte.
func (v TextView) Data() unsafe.Pointer {
	return v.data
}

// Bytes aliases the foreign buffer. Do not modify or retain it.
func (v TextView) Bytes() []byte {
	if v.data == nil {
		return nil
	}
	return unsafe.Slice((*byte)(v.data), v.n)
}

// String copies the bytes into a Go string.
func (v TextView) String() string {
	return string(v.Bytes())
}

// Equal reports whether the view holds exactly s.
func (v TextView) Equal(s string) bool {
	return v.n == len(s) && string(v.Bytes()) == s
}

// EqualView reports whether two views hold the same bytes.
func (v TextView) EqualView(o TextView) bool {
	return v.n == o.n && string(v.Bytes()) == string(o.Bytes())
}

// Slice returns the sub-view [i:j). It panics if the bounds are out of range,
// like slicing a string.
func (v TextView) Slice(i, j int) TextView {
	if i < 0 || j < i || j > v.n {
		panic("bridge: TextView slice bounds out of range")
	}
	if v.data == nil {
		return TextView{}
	}
	return TextView{data: unsafe.Add(v.data, i), n: j - i}
}
