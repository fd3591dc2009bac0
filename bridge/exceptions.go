package bridge

import (
	"github.com/wippyai/pybridge/errors"
)

// ErrOccurred reports whether an exception is pending.
func (b Bridge) ErrOccurred() (bool, error) {
	return b.s.errOccurred()
}

func (s *session) errOccurred() (bool, error) {
	fn, err := bind[func() uintptr](s, "PyErr_Occurred")
	if err != nil {
		return false, err
	}
	return fn() != 0, nil
}

// ErrClear discards any pending exception.
func (b Bridge) ErrClear() error {
	fn, err := bind[func()](b.s, "PyErr_Clear")
	if err != nil {
		return err
	}
	fn()
	return nil
}

// ErrFetch takes the pending exception out of the interpreter and returns
// the exception instance. The pending state is cleared. The result is null
// when nothing was pending.
func (b Bridge) ErrFetch() (Owned, error) {
	if b.s == nil {
		return Owned{}, errors.NotInitialized("bridge")
	}
	return b.s.abi.fetch(b.s)
}

func fetchRaised(s *session) (Owned, error) {
	fn, err := bind[func() uintptr](s, "PyErr_GetRaisedException")
	if err != nil {
		return Owned{}, err
	}
	return s.acquire(fn(), "PyErr_GetRaisedException"), nil
}

func fetchLegacy(s *session) (Owned, error) {
	fetch, err := bind[func(*uintptr, *uintptr, *uintptr)](s, "PyErr_Fetch")
	if err != nil {
		return Owned{}, err
	}
	normalize, err := bind[func(*uintptr, *uintptr, *uintptr)](s, "PyErr_NormalizeException")
	if err != nil {
		return Owned{}, err
	}

	var typ, value, tb uintptr
	fetch(&typ, &value, &tb)
	if typ == 0 {
		return Owned{}, nil
	}
	normalize(&typ, &value, &tb)

	if err := s.decRefUncounted(typ); err != nil {
		return Owned{}, err
	}
	if err := s.decRefUncounted(tb); err != nil {
		return Owned{}, err
	}
	return s.acquire(value, "PyErr_Fetch"), nil
}

// FetchError converts the pending exception, if any, into an error of kind
// KindForeignException carrying the exception's type name and str() text,
// and clears it. It returns nil when nothing is pending.
//
// The bridge never does this on its own; callers decide which sentinel
// results deserve a Go error.
func (b Bridge) FetchError() error {
	value, err := b.ErrFetch()
	if err != nil {
		return err
	}
	if value.IsNull() {
		return nil
	}
	defer b.Release(value)

	typeName := b.typeName(value)
	msg := ""
	if str, err := b.Str(value); err == nil && !str.IsNull() {
		if text, ok, _ := b.Text(str); ok {
			msg = text
		}
		_ = b.Release(str)
	}
	// Formatting must not leave a second exception behind.
	_ = b.ErrClear()

	return errors.ForeignException(typeName, msg)
}

func (b Bridge) typeName(obj Handle) string {
	typ, err := b.Type(obj)
	if err != nil || typ.IsNull() {
		return ""
	}
	defer b.Release(typ)

	name, err := b.GetAttr(typ, "__name__")
	if err != nil || name.IsNull() {
		return ""
	}
	defer b.Release(name)

	text, _, _ := b.Text(name)
	return text
}
