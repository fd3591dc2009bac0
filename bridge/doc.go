// Package bridge embeds a CPython interpreter loaded from a shared library at
// runtime and exposes its C object protocol to Go.
//
// # Quick Start
//
//	// PYBRIDGE_LIBRARY=/usr/lib/x86_64-linux-gnu/libpython3.12.so.1.0
//	b, err := bridge.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	d, _ := b.NewDict()
//	defer b.Release(d)
//
//	one, _ := b.FromInt64(1)
//	b.DictSetItemString(d, "a", one)
//	b.Release(one)
//
//	for pos := 0; ; {
//	    e, _ := b.DictNext(d, pos)
//	    if !e.OK {
//	        break
//	    }
//	    pos = e.Pos
//	}
//
// # Configuration
//
// Open reads three environment variables:
//
//	PYBRIDGE_LIBRARY  path to libpython (required)
//	PYBRIDGE_DEBUG    1/true/yes/on enables the ownership ledger and leak report
//	PYBRIDGE_PATH     extra sys.path entries, separated like PATH
//
// # Ownership
//
// Every object crosses the boundary as one of three handle types:
//
//	Ref       a bare address; identity and null checks only
//	Owned     the holder must call Release exactly once
//	Borrowed  the holder must not release; valid while the lender lives
//
// Calls that produce a new reference return Owned and bump a per-session
// counter (Outstanding). ListSetItem and TupleSetItem steal the item: the
// counter drops before the foreign call and the caller must not release it
// again. Release decrements. Nothing guards against releasing twice; the
// interpreter's own reference counts are unchecked in the same way.
//
// # Errors
//
// Operations return a Go error only when the bridge itself cannot proceed:
// the session is closed, or the entry point is missing from the library.
// Exceptions raised by the interpreter are reported the way the C API
// reports them, as a null reference or -1 status with the exception left
// pending. Inspect them with ErrOccurred, ErrFetch or FetchError.
//
// # Versions
//
// Some entry points only exist in newer interpreters. The session picks an
// implementation per interpreter version at startup:
//
//	Py_Is                     3.10+, else address comparison
//	PyErr_GetRaisedException  3.12+, else PyErr_Fetch + normalize
//	PyIter_NextItem           3.14+, else PyIter_Next + PyErr_Occurred
//
// # Thread Safety
//
// One session drives one interpreter. New locks the calling goroutine to its
// OS thread until Close, and the interpreter must only be called from there.
// The reference counter and the cached singletons are safe to touch from any
// goroutine, but foreign calls are not.
package bridge
