package bridge

import (
	stderrors "errors"

	"github.com/wippyai/pybridge/errors"
)

// Signatures shared between bootstrap verification and call sites.
type (
	initializeFn    = func(int32)
	isInitializedFn = func() int32
	finalizeFn      = func() int32
	getVersionFn    = func() string
	refFn           = func(uintptr)
)

type requiredSymbol struct {
	name   string
	target func() any
}

// lifecycleSymbols must all resolve before a session is handed out.
var lifecycleSymbols = []requiredSymbol{
	{"Py_InitializeEx", func() any { return new(initializeFn) }},
	{"Py_IsInitialized", func() any { return new(isInitializedFn) }},
	{"Py_FinalizeEx", func() any { return new(finalizeFn) }},
	{"Py_GetVersion", func() any { return new(getVersionFn) }},
	{"Py_IncRef", func() any { return new(refFn) }},
	{"Py_DecRef", func() any { return new(refFn) }},
}

// bind resolves name in the session's library as a callable of type F.
//
// Every foreign call goes through here. Resolution is repeated on each call;
// the cost is dominated by the foreign call itself and there is no symbol
// cache to keep coherent with the library's lifetime. F must mirror the C
// signature exactly; that agreement cannot be checked.
func bind[F any](s *session, name string) (F, error) {
	var fn F
	if s == nil {
		return fn, errors.NotInitialized("bridge")
	}
	if s.closed.Load() {
		return fn, errors.NotInitialized("bridge session")
	}
	if err := s.lib.Bind(name, &fn); err != nil {
		return fn, resolveError(name, err)
	}
	return fn, nil
}

func resolveError(name string, err error) error {
	var e *errors.Error
	if stderrors.As(err, &e) && e.Phase == errors.PhaseResolve {
		return err
	}
	if stderrors.As(err, &e) && e.Kind == errors.KindNotInitialized {
		return err
	}
	return errors.SymbolMissing(name, err)
}

func verifySymbols(path string, lib Library) error {
	var missing []string
	for _, sym := range lifecycleSymbols {
		if err := lib.Bind(sym.name, sym.target()); err != nil {
			missing = append(missing, sym.name)
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingSymbolsError(path, missing)
	}
	return nil
}
