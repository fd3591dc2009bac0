// Package dynlib loads shared libraries at runtime and binds their exported
// symbols to typed Go functions without cgo.
//
// A Library satisfies the bridge's loader contract:
//
//	lib, err := dynlib.Open("/usr/lib/x86_64-linux-gnu/libpython3.12.so.1.0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer lib.Close()
//
//	var getVersion func() string
//	if err := lib.Bind("Py_GetVersion", &getVersion); err != nil {
//	    log.Fatal(err)
//	}
//
// Bind re-resolves the symbol on every call. The target must be a pointer to
// a func variable whose parameter and result types mirror the C signature;
// nothing checks that the two agree, so a mismatched declaration is
// undefined behavior at call time.
//
// Libraries are opened with RTLD_NOW|RTLD_GLOBAL so that extension modules
// loaded later by the interpreter can see its symbols.
package dynlib
