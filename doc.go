// Package pybridge embeds a CPython interpreter in a Go process by loading
// its shared library at run time and calling the C API directly.
//
// No cgo is involved: the library is opened with purego, and each C entry
// point is resolved by name when it is called. The same binary works with
// any interpreter from 3.8 onward; calls whose C symbol only exists in newer
// releases are routed through an equivalent older sequence.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	pybridge/            Root package with the package overview
//	├── bridge/          Session lifecycle, handles, reference counting and the C API surface
//	├── convert/         Go values to interpreter objects and back
//	├── dynlib/          Shared library loading and symbol binding via purego
//	├── resource/        Ownership ledger for debug-mode leak reporting
//	├── version/         Interpreter version banner parsing
//	├── errors/          Structured error types for debugging
//	├── internal/fakepy/ In-process interpreter double used by tests
//	└── cmd/pyrun/       Command-line runner and interactive prompt
//
// # Quick Start
//
// Point PYBRIDGE_LIBRARY at the interpreter's shared library and open a
// session:
//
//	b, err := bridge.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	res, err := b.Run("6 * 7", bridge.ModeExpression, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.IsNull() {
//	    log.Fatal(b.FetchError())
//	}
//	defer b.Release(res)
//
//	n, _ := b.AsInt64(res) // 42
//
// # Ownership
//
// Every object reference is either Owned (the caller must Release it) or
// Borrowed (valid only while its container is). Operations that steal a
// reference, such as ListSetItem, take an Owned and consume it whether or
// not they succeed. Set PYBRIDGE_DEBUG=1 to track every Owned reference and
// log the ones still alive when the session closes.
//
// # Thread Safety
//
// A session is bound to the OS thread that created it. Open locks the
// calling goroutine to its thread until Close; all calls must come from that
// goroutine. Use a dedicated goroutine and a channel to reach the
// interpreter from elsewhere, as cmd/pyrun does.
package pybridge
