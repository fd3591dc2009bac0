package bridge

import (
	"github.com/wippyai/pybridge/errors"
)

// NewDict creates an empty dict.
func (b Bridge) NewDict() (Owned, error) {
	fn, err := bind[func() uintptr](b.s, "PyDict_New")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(), "PyDict_New"), nil
}

// NewList creates a list of n empty slots. Every slot must be filled with
// ListSetItem before the list is handed to interpreter code.
func (b Bridge) NewList(n int) (Owned, error) {
	fn, err := bind[func(int) uintptr](b.s, "PyList_New")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(n), "PyList_New"), nil
}

// NewTuple creates a tuple of n empty slots.
func (b Bridge) NewTuple(n int) (Owned, error) {
	fn, err := bind[func(int) uintptr](b.s, "PyTuple_New")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(n), "PyTuple_New"), nil
}

// DictSetItem stores value under key. Neither reference is consumed; the
// caller keeps its ownership of both. Returns 0 on success, -1 with a pending
// exception on failure.
func (b Bridge) DictSetItem(dict, key, value Handle) (int, error) {
	fn, err := bind[func(uintptr, uintptr, uintptr) int32](b.s, "PyDict_SetItem")
	if err != nil {
		return -1, err
	}
	return int(fn(addr(dict), addr(key), addr(value))), nil
}

// DictSetItemString is DictSetItem with a text key.
func (b Bridge) DictSetItemString(dict Handle, key string, value Handle) (int, error) {
	fn, err := bind[func(uintptr, string, uintptr) int32](b.s, "PyDict_SetItemString")
	if err != nil {
		return -1, err
	}
	return int(fn(addr(dict), key, addr(value))), nil
}

// DictGetItemWithError looks up key. A null result with no pending exception
// means the key is absent.
func (b Bridge) DictGetItemWithError(dict, key Handle) (Borrowed, error) {
	fn, err := bind[func(uintptr, uintptr) uintptr](b.s, "PyDict_GetItemWithError")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(addr(dict), addr(key)))}, nil
}

// DictGetItemString looks up a text key. Lookup errors are suppressed by the
// interpreter and reported as absence.
func (b Bridge) DictGetItemString(dict Handle, key string) (Borrowed, error) {
	fn, err := bind[func(uintptr, string) uintptr](b.s, "PyDict_GetItemString")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(addr(dict), key))}, nil
}

// DictSize returns the number of entries, or -1 with a pending exception.
func (b Bridge) DictSize(dict Handle) (int, error) {
	fn, err := bind[func(uintptr) int](b.s, "PyDict_Size")
	if err != nil {
		return -1, err
	}
	return fn(addr(dict)), nil
}

// DictKeys returns a new list of the dict's keys.
func (b Bridge) DictKeys(dict Handle) (Owned, error) {
	fn, err := bind[func(uintptr) uintptr](b.s, "PyDict_Keys")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(dict)), "PyDict_Keys"), nil
}

// ListSetItem stores item at index i, stealing item: the caller's ownership
// ends here whether or not the store succeeds, and item must not be released
// afterwards. A null item is rejected without calling the interpreter.
func (b Bridge) ListSetItem(list Handle, i int, item Owned) (int, error) {
	fn, err := bind[func(uintptr, int, uintptr) int32](b.s, "PyList_SetItem")
	if err != nil {
		return -1, err
	}
	if item.IsNull() {
		return -1, errors.NullReference(errors.PhaseRuntime, "ListSetItem item")
	}
	b.s.forget(uintptr(item.Ref), "PyList_SetItem", true)
	return int(fn(addr(list), i, uintptr(item.Ref))), nil
}

// ListGetItem returns the item at index i, or null with a pending IndexError.
func (b Bridge) ListGetItem(list Handle, i int) (Borrowed, error) {
	fn, err := bind[func(uintptr, int) uintptr](b.s, "PyList_GetItem")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(addr(list), i))}, nil
}

// ListAppend appends item without consuming it.
func (b Bridge) ListAppend(list, item Handle) (int, error) {
	fn, err := bind[func(uintptr, uintptr) int32](b.s, "PyList_Append")
	if err != nil {
		return -1, err
	}
	return int(fn(addr(list), addr(item))), nil
}

// ListSize returns the list length, or -1 with a pending exception.
func (b Bridge) ListSize(list Handle) (int, error) {
	fn, err := bind[func(uintptr) int](b.s, "PyList_Size")
	if err != nil {
		return -1, err
	}
	return fn(addr(list)), nil
}

// TupleSetItem stores item at index i, stealing item like ListSetItem.
func (b Bridge) TupleSetItem(tuple Handle, i int, item Owned) (int, error) {
	fn, err := bind[func(uintptr, int, uintptr) int32](b.s, "PyTuple_SetItem")
	if err != nil {
		return -1, err
	}
	if item.IsNull() {
		return -1, errors.NullReference(errors.PhaseRuntime, "TupleSetItem item")
	}
	b.s.forget(uintptr(item.Ref), "PyTuple_SetItem", true)
	return int(fn(addr(tuple), i, uintptr(item.Ref))), nil
}

// TupleGetItem returns the item at index i, or null with a pending IndexError.
func (b Bridge) TupleGetItem(tuple Handle, i int) (Borrowed, error) {
	fn, err := bind[func(uintptr, int) uintptr](b.s, "PyTuple_GetItem")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(addr(tuple), i))}, nil
}

// TupleSize returns the tuple length, or -1 with a pending exception.
func (b Bridge) TupleSize(tuple Handle) (int, error) {
	fn, err := bind[func(uintptr) int](b.s, "PyTuple_Size")
	if err != nil {
		return -1, err
	}
	return fn(addr(tuple)), nil
}
