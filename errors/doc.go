// Package errors provides structured error types for the interpreter bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: the C symbol involved, value path, Go and
// foreign type names, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("config", "limit").
//		GoType("uint64").
//		ForeignType("int").
//		Detail("value does not fit a C long long").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingEnv("PYBRIDGE_LIBRARY")
//	err := errors.SymbolMissing("Py_Is", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// Matching with errors.Is compares Phase and Kind only:
//
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindConfigMissing}) {
//		// PYBRIDGE_LIBRARY was not set
//	}
package errors
