// Package fakepy is an in-process stand-in for the CPython C ABI, used to
// exercise the bridge without a real libpython.
//
// It models reference-counted objects (None, bools, ints, floats, str, list,
// tuple, dict, types, modules, builtin methods, iterators, exceptions), a
// single pending-exception slot, and a tiny line-oriented executor. Symbols
// that the advertised interpreter version would not export are hidden, so
// version-gated call sites can be checked against what they try to resolve.
//
// Addresses are synthetic and must never be dereferenced; only the UTF-8
// buffers handed out by PyUnicode_AsUTF8AndSize point at real memory.
package fakepy

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/wippyai/pybridge/version"
)

// DefaultVersion is the banner reported unless WithVersion is given.
const DefaultVersion = "3.12.4 (main, Jun  6 2024, 18:26:44) [GCC 13.2.0]"

// Runtime is one fake interpreter plus the library handle it is loaded through.
type Runtime struct {
	mu      sync.Mutex
	objs    map[uintptr]*object
	symbols map[string]any
	hidden  map[string]bool
	binds   map[string]int
	types   map[string]uintptr
	modules map[string]uintptr
	banner  string
	next    uintptr

	none     uintptr
	trueObj  uintptr
	falseObj uintptr
	builtins uintptr
	sysPath  uintptr
	pending  uintptr

	initialized   bool
	initCalls     int
	finalizeCalls int
	closeCalls    int
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithVersion sets the Py_GetVersion banner. Symbols newer than the
// banner's version are hidden.
func WithVersion(banner string) Option {
	return func(r *Runtime) { r.banner = banner }
}

// WithoutSymbols hides the named symbols from Bind.
func WithoutSymbols(names ...string) Option {
	return func(r *Runtime) {
		for _, n := range names {
			r.hidden[n] = true
		}
	}
}

// Preinitialized starts the runtime as if the host had already called
// Py_Initialize.
func Preinitialized() Option {
	return func(r *Runtime) { r.initialized = true }
}

// versionGated lists symbols and the first version exporting them.
var versionGated = []struct {
	name         string
	major, minor int
}{
	{"Py_Is", 3, 10},
	{"PyErr_GetRaisedException", 3, 12},
	{"PyIter_NextItem", 3, 14},
}

// New creates a fake interpreter.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		objs:    make(map[uintptr]*object),
		hidden:  make(map[string]bool),
		binds:   make(map[string]int),
		types:   make(map[string]uintptr),
		modules: make(map[string]uintptr),
		banner:  DefaultVersion,
		next:    0x7f0000001000,
	}
	for _, opt := range opts {
		opt(r)
	}

	v := version.Parse(r.banner)
	for _, g := range versionGated {
		if !v.AtLeast(g.major, g.minor) {
			r.hidden[g.name] = true
		}
	}

	r.boot()
	r.symbols = r.symbolTable()
	return r
}

// Bind implements the bridge's Library contract. The target's type must be
// identical to the registered implementation.
func (r *Runtime) Bind(name string, fptr any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closeCalls > 0 {
		return fmt.Errorf("fakepy: library closed")
	}
	r.binds[name]++
	if r.hidden[name] {
		return fmt.Errorf("fakepy: undefined symbol: %s", name)
	}
	impl, ok := r.symbols[name]
	if !ok {
		return fmt.Errorf("fakepy: undefined symbol: %s", name)
	}

	dst := reflect.ValueOf(fptr)
	if dst.Kind() != reflect.Pointer || dst.IsNil() || dst.Elem().Kind() != reflect.Func {
		return fmt.Errorf("fakepy: bind target for %s is %T, want *func", name, fptr)
	}
	src := reflect.ValueOf(impl)
	if dst.Elem().Type() != src.Type() {
		return fmt.Errorf("fakepy: %s has signature %s, bound as %s", name, src.Type(), dst.Elem().Type())
	}
	dst.Elem().Set(src)
	return nil
}

// Close implements the bridge's Library contract.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeCalls++
	return nil
}

// Binds returns how many times name was looked up, including failed lookups.
func (r *Runtime) Binds(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.binds[name]
}

// Live returns the number of objects alive besides the immortal ones
// created at startup or by AddModule.
func (r *Runtime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, o := range r.objs {
		if !o.immortal {
			n++
		}
	}
	return n
}

// LiveObjects describes every mortal object, for test failure messages.
func (r *Runtime) LiveObjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, o := range r.objs {
		if !o.immortal {
			out = append(out, fmt.Sprintf("%#x %s refcnt=%d %s", o.addr, r.typeName(o), o.refcnt, r.repr(o)))
		}
	}
	sort.Strings(out)
	return out
}

// RefCount returns the reference count of the object at addr, or 0 if it
// has been freed.
func (r *Runtime) RefCount(addr uintptr) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o := r.objs[addr]; o != nil {
		return o.refcnt
	}
	return 0
}

// Initialized reports whether Py_InitializeEx ran without a later finalize.
func (r *Runtime) Initialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initialized
}

// InitCalls returns how many times Py_InitializeEx was called.
func (r *Runtime) InitCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initCalls
}

// FinalizeCalls returns how many times Py_FinalizeEx was called.
func (r *Runtime) FinalizeCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalizeCalls
}

// Closed reports whether Close was called.
func (r *Runtime) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCalls > 0
}

// None returns the address of None.
func (r *Runtime) None() uintptr {
	return r.none
}

// SysPath returns the entries of sys.path that are str objects.
func (r *Runtime) SysPath() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, a := range r.objs[r.sysPath].items {
		if o := r.objs[a]; o != nil && o.kind == kindStr {
			out = append(out, o.s)
		}
	}
	return out
}

// NewFailingIterator returns a new reference to an iterator over the given
// integers that raises RuntimeError instead of producing element failAt.
// A negative failAt never raises.
func (r *Runtime) NewFailingIterator(values []int64, failAt int) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.newList(0)
	for _, v := range values {
		n := r.newInt(v)
		r.objs[list].items = append(r.objs[list].items, n)
	}
	it := r.alloc(&object{kind: kindIter, typ: r.types["iterator"], src: list, failAt: failAt})
	return it
}

// Raise sets the pending exception.
func (r *Runtime) Raise(typeName, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setErr(typeName, msg)
}

// Pending reports whether an exception is pending.
func (r *Runtime) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != 0
}

// DecRef drops a reference obtained from a helper such as
// NewFailingIterator.
func (r *Runtime) DecRef(addr uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decref(addr)
}
