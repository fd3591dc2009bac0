//go:build darwin || freebsd || linux

package dynlib

import (
	"reflect"
	"sync"

	"github.com/ebitengine/purego"

	"github.com/wippyai/pybridge/errors"
)

// Library is an open shared library handle.
type Library struct {
	path   string
	handle uintptr
	mu     sync.RWMutex
	closed bool
}

// Open loads the shared library at path.
func Open(path string) (*Library, error) {
	if path == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "empty library path")
	}

	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errors.LoadFailed(path, err)
	}

	return &Library{path: path, handle: h}, nil
}

// Path returns the path the library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Bind resolves name and stores a callable for it into fptr, which must be a
// non-nil pointer to a func variable.
func (l *Library) Bind(name string, fptr any) (err error) {
	if err := checkTarget(fptr); err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return errors.NotInitialized("library " + l.path)
	}

	sym, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return errors.SymbolMissing(name, err)
	}
	if sym == 0 {
		return errors.SymbolMissing(name, nil)
	}

	// RegisterFunc panics on signatures it cannot marshal.
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseResolve, errors.KindUnsupported).
				Symbol(name).
				GoType(reflect.TypeOf(fptr).Elem().String()).
				Detail("%v", r).
				Build()
		}
	}()
	purego.RegisterFunc(fptr, sym)
	return nil
}

// Close unloads the library. Calling Close more than once is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	if err := purego.Dlclose(l.handle); err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindLoadFailed, err, "close "+l.path)
	}
	return nil
}
