package bridge

import (
	"github.com/wippyai/pybridge/errors"
)

// Is reports whether a and b are the same object. From 3.10 on this calls
// Py_Is; older interpreters compare addresses and Py_Is is not looked up.
func (b Bridge) Is(x, y Handle) (bool, error) {
	if b.s == nil {
		return false, errors.NotInitialized("bridge")
	}
	if b.s.closed.Load() {
		return false, errors.NotInitialized("bridge session")
	}
	return b.s.abi.is(b.s, addr(x), addr(y))
}

// Type returns type(obj).
func (b Bridge) Type(obj Handle) (Owned, error) {
	fn, err := bind[func(uintptr) uintptr](b.s, "PyObject_Type")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(obj)), "PyObject_Type"), nil
}

// IsDict reports whether obj's exact type is dict. Subclasses do not match.
func (b Bridge) IsDict(obj Handle) (bool, error) {
	dictType, err := b.DictType()
	if err != nil {
		return false, err
	}
	typ, err := b.Type(obj)
	if err != nil {
		return false, err
	}
	defer b.Release(typ)
	return !typ.IsNull() && typ.Equal(dictType.Ref), nil
}

// IsNone reports whether obj is None.
func (b Bridge) IsNone(obj Handle) (bool, error) {
	none, err := b.None()
	if err != nil {
		return false, err
	}
	return b.Is(obj, none)
}

// GetIter returns iter(obj), or null with a pending TypeError.
func (b Bridge) GetIter(obj Handle) (Owned, error) {
	fn, err := bind[func(uintptr) uintptr](b.s, "PyObject_GetIter")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(addr(obj)), "PyObject_GetIter"), nil
}

// IterState tells what one IterNext step produced.
type IterState uint8

const (
	IterValue     IterState = iota // Value holds the next item
	IterExhausted                  // the iterator is done
	IterFailed                     // advancing raised; the exception is pending
)

func (s IterState) String() string {
	switch s {
	case IterValue:
		return "value"
	case IterExhausted:
		return "exhausted"
	case IterFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IterResult is one step of an iterator. Value is owned by the caller when
// State is IterValue and null otherwise.
type IterResult struct {
	Value Owned
	State IterState
}

// IterNext advances it by one step. Exhaustion and failure are told apart
// here, so callers need not poll the exception state themselves.
func (b Bridge) IterNext(it Handle) (IterResult, error) {
	if b.s == nil {
		return IterResult{State: IterFailed}, errors.NotInitialized("bridge")
	}
	return b.s.abi.iterNext(b.s, addr(it))
}

func iterNextLegacy(s *session, it uintptr) (IterResult, error) {
	next, err := bind[func(uintptr) uintptr](s, "PyIter_Next")
	if err != nil {
		return IterResult{State: IterFailed}, err
	}
	if r := next(it); r != 0 {
		return IterResult{Value: s.acquire(r, "PyIter_Next"), State: IterValue}, nil
	}

	pending, err := s.errOccurred()
	if err != nil {
		return IterResult{State: IterFailed}, err
	}
	if pending {
		return IterResult{State: IterFailed}, nil
	}
	return IterResult{State: IterExhausted}, nil
}

func iterNextItem(s *session, it uintptr) (IterResult, error) {
	next, err := bind[func(uintptr, *uintptr) int32](s, "PyIter_NextItem")
	if err != nil {
		return IterResult{State: IterFailed}, err
	}
	var item uintptr
	switch next(it, &item) {
	case 1:
		return IterResult{Value: s.acquire(item, "PyIter_NextItem"), State: IterValue}, nil
	case 0:
		return IterResult{State: IterExhausted}, nil
	default:
		return IterResult{State: IterFailed}, nil
	}
}

// IterCheck reports whether obj implements the iterator protocol.
func (b Bridge) IterCheck(obj Handle) (bool, error) {
	fn, err := bind[func(uintptr) int32](b.s, "PyIter_Check")
	if err != nil {
		return false, err
	}
	return fn(addr(obj)) != 0, nil
}

// SequenceCheck reports whether obj implements the sequence protocol.
func (b Bridge) SequenceCheck(obj Handle) (bool, error) {
	fn, err := bind[func(uintptr) int32](b.s, "PySequence_Check")
	if err != nil {
		return false, err
	}
	return fn(addr(obj)) != 0, nil
}

// ImportModule imports a module by dotted name.
func (b Bridge) ImportModule(name string) (Owned, error) {
	fn, err := bind[func(string) uintptr](b.s, "PyImport_ImportModule")
	if err != nil {
		return Owned{}, err
	}
	return b.s.acquire(fn(name), "PyImport_ImportModule"), nil
}

// AddModule returns the module registered under name, creating an empty one
// if needed.
func (b Bridge) AddModule(name string) (Borrowed, error) {
	fn, err := bind[func(string) uintptr](b.s, "PyImport_AddModule")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(name))}, nil
}

// ModuleDict returns a module's namespace dict.
func (b Bridge) ModuleDict(module Handle) (Borrowed, error) {
	fn, err := bind[func(uintptr) uintptr](b.s, "PyModule_GetDict")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(addr(module)))}, nil
}

// MainDict returns the namespace of __main__.
func (b Bridge) MainDict() (Borrowed, error) {
	main, err := b.AddModule("__main__")
	if err != nil {
		return Borrowed{}, err
	}
	if main.IsNull() {
		return Borrowed{}, nil
	}
	return b.ModuleDict(main)
}

// Builtins returns the builtins namespace of the current frame.
func (b Bridge) Builtins() (Borrowed, error) {
	fn, err := bind[func() uintptr](b.s, "PyEval_GetBuiltins")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn())}, nil
}

// SysObject returns sys.<name>, or null if it does not exist.
func (b Bridge) SysObject(name string) (Borrowed, error) {
	fn, err := bind[func(string) uintptr](b.s, "PySys_GetObject")
	if err != nil {
		return Borrowed{}, err
	}
	return Borrowed{Ref(fn(name))}, nil
}
