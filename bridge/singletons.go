package bridge

import (
	"github.com/wippyai/pybridge/errors"
)

// None returns the interpreter's None object.
//
// There is no exported symbol for None, so the first call produces it by
// calling clear() on a throwaway empty list. The result is held by the
// session until Close; the intermediate list, bound method and argument
// tuple are released before returning.
func (b Bridge) None() (Borrowed, error) {
	if b.s == nil {
		return Borrowed{}, errors.NotInitialized("bridge")
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if !b.s.none.IsNull() {
		return Borrowed{b.s.none}, nil
	}

	list, err := b.NewList(0)
	if err != nil {
		return Borrowed{}, err
	}
	if list.IsNull() {
		return Borrowed{}, errors.NullReference(errors.PhaseRuntime, "PyList_New")
	}
	defer b.Release(list)

	clear, err := b.GetAttr(list, "clear")
	if err != nil {
		return Borrowed{}, err
	}
	if clear.IsNull() {
		return Borrowed{}, errors.NullReference(errors.PhaseRuntime, "list.clear")
	}
	defer b.Release(clear)

	args, err := b.NewTuple(0)
	if err != nil {
		return Borrowed{}, err
	}
	defer b.Release(args)

	none, err := b.Call(clear, args)
	if err != nil {
		return Borrowed{}, err
	}
	if none.IsNull() {
		return Borrowed{}, errors.NullReference(errors.PhaseRuntime, "list.clear()")
	}

	b.s.none = none.Ref
	return Borrowed{b.s.none}, nil
}

// NoneRef returns a new owned reference to None, suitable for storing with a
// stealing call.
func (b Bridge) NoneRef() (Owned, error) {
	none, err := b.None()
	if err != nil {
		return Owned{}, err
	}
	return b.NewRef(none)
}

// DictType returns the dict type object, derived on first use from the type
// of a fresh dict and held until Close.
func (b Bridge) DictType() (Borrowed, error) {
	if b.s == nil {
		return Borrowed{}, errors.NotInitialized("bridge")
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()

	if !b.s.dictType.IsNull() {
		return Borrowed{b.s.dictType}, nil
	}

	dict, err := b.NewDict()
	if err != nil {
		return Borrowed{}, err
	}
	if dict.IsNull() {
		return Borrowed{}, errors.NullReference(errors.PhaseRuntime, "PyDict_New")
	}
	defer b.Release(dict)

	typ, err := b.Type(dict)
	if err != nil {
		return Borrowed{}, err
	}
	if typ.IsNull() {
		return Borrowed{}, errors.NullReference(errors.PhaseRuntime, "PyObject_Type")
	}

	b.s.dictType = typ.Ref
	return Borrowed{b.s.dictType}, nil
}
