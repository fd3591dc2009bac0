//go:build !(darwin || freebsd || linux)

package dynlib

import (
	"runtime"

	"github.com/wippyai/pybridge/errors"
)

// Library is an open shared library handle.
type Library struct {
	path string
}

// Open reports that dynamic loading is unavailable on this platform.
func Open(path string) (*Library, error) {
	return nil, errors.Unsupported(errors.PhaseLoad, "dynamic loading on "+runtime.GOOS)
}

// Path returns the path the library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Bind always fails on this platform.
func (l *Library) Bind(name string, fptr any) error {
	if err := checkTarget(fptr); err != nil {
		return err
	}
	return errors.SymbolMissing(name, errors.Unsupported(errors.PhaseResolve, runtime.GOOS))
}

// Close is a no-op on this platform.
func (l *Library) Close() error {
	return nil
}
