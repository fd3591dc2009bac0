package bridge

// Ref is the address of an object inside the interpreter. It is compared by
// identity and never dereferenced by the bridge. The zero Ref means no object.
type Ref uintptr

// IsNull reports whether r denotes no object.
func (r Ref) IsNull() bool {
	return r == 0
}

// Equal reports whether r and o are the same object.
func (r Ref) Equal(o Ref) bool {
	return r == o
}

// Addr returns the raw address.
func (r Ref) Addr() uintptr {
	return uintptr(r)
}

func (r Ref) ref() Ref {
	return r
}

// Handle is anything that names a foreign object: Ref, Owned or Borrowed.
type Handle interface {
	ref() Ref
}

// Owned is a reference the holder must give back exactly once with
// Bridge.Release, unless a stealing call (ListSetItem, TupleSetItem) takes
// it first.
type Owned struct {
	Ref
}

// Borrow returns a borrowed view of o. The view is valid while o is held.
func (o Owned) Borrow() Borrowed {
	return Borrowed(o)
}

// Borrowed is a reference the holder may use but must not release. Its
// validity is tied to whatever object or session lent it.
type Borrowed struct {
	Ref
}

func addr(h Handle) uintptr {
	if h == nil {
		return 0
	}
	return uintptr(h.ref())
}

func refOf(h Handle) Ref {
	if h == nil {
		return 0
	}
	return h.ref()
}
