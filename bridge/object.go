package bridge

// GetAttr returns obj.name, or null with a pending AttributeError.
func (b Bridge) GetAttr(obj Handle, name string) (Owned, error) {
	fn, err := bind[func(uintptr, string) uintptr](b.s, "PyObject_GetAttrString")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(obj), name), "PyObject_GetAttrString"), nil
}

// SetAttr assigns obj.name = value without consuming value. Returns 0 on
// success and -1 with a pending exception on failure.
func (b Bridge) SetAttr(obj Handle, name string, value Handle) (int, error) {
	fn, err := bind[func(uintptr, string, uintptr) int32](b.s, "PyObject_SetAttrString")
	if err != nil {
		return -1, err
	}
	return int(fn(addr(obj), name, addr(value))), nil
}

// HasAttr reports whether obj has an attribute called name.
func (b Bridge) HasAttr(obj Handle, name string) (bool, error) {
	fn, err := bind[func(uintptr, string) int32](b.s, "PyObject_HasAttrString")
	if err != nil {
		return false, err
	}
	return fn(addr(obj), name) == 1, nil
}

// Call invokes callable with a tuple of positional arguments. A nil args
// calls with no arguments. The result is null if the call raised.
func (b Bridge) Call(callable, args Handle) (Owned, error) {
	fn, err := bind[func(uintptr, uintptr) uintptr](b.s, "PyObject_CallObject")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(callable), addr(args)), "PyObject_CallObject"), nil
}

// Str returns str(obj).
func (b Bridge) Str(obj Handle) (Owned, error) {
	fn, err := bind[func(uintptr) uintptr](b.s, "PyObject_Str")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(obj)), "PyObject_Str"), nil
}

// Repr returns repr(obj).
func (b Bridge) Repr(obj Handle) (Owned, error) {
	fn, err := bind[func(uintptr) uintptr](b.s, "PyObject_Repr")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(obj)), "PyObject_Repr"), nil
}
