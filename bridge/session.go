package bridge

import (
	stderrors "errors"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/pybridge/errors"
	"github.com/wippyai/pybridge/resource"
	"github.com/wippyai/pybridge/version"
)

// Bridge is a handle to one interpreter session. Copies of a Bridge share the
// same library, reference counter and cached singletons. The zero Bridge is
// not usable; every operation on it reports KindNotInitialized.
type Bridge struct {
	s *session
}

type session struct {
	lib    Library
	log    *zap.Logger
	ledger *resource.Ledger
	path   string
	ver    version.Version
	abi    abi

	// singletons
	mu       sync.Mutex
	none     Ref
	dictType Ref

	refs      atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error

	ownsInterpreter bool
	debug           bool
}

// Open reads configuration from the process environment and starts a session.
func Open(opts ...Option) (Bridge, error) {
	return OpenEnv(nil, opts...)
}

// OpenEnv is Open with an explicit environment lookup.
func OpenEnv(lookup LookupFunc, opts ...Option) (Bridge, error) {
	cfg := ConfigFromEnv(lookup)
	for _, opt := range opts {
		opt(&cfg)
	}
	return New(cfg)
}

// New loads the interpreter library named by cfg, initializes the
// interpreter and returns the session.
//
// The calling goroutine is locked to its OS thread until Close, because the
// interpreter binds its thread state to the thread that initialized it. All
// calls on the returned Bridge must come from that goroutine.
func New(cfg Config) (Bridge, error) {
	log := cfg.logger()

	if cfg.LibraryPath == "" {
		err := errors.MissingEnv(EnvLibrary)
		log.Error("interpreter library path not configured",
			zap.String("env", EnvLibrary),
			zap.Error(err))
		return Bridge{}, err
	}

	lib, err := cfg.loader()(cfg.LibraryPath)
	if err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) || e.Phase != errors.PhaseLoad {
			err = errors.LoadFailed(cfg.LibraryPath, err)
		}
		log.Error("load interpreter library",
			zap.String("path", cfg.LibraryPath),
			zap.Error(err))
		return Bridge{}, err
	}

	if err := verifySymbols(cfg.LibraryPath, lib); err != nil {
		log.Error("interpreter library is missing required symbols",
			zap.String("path", cfg.LibraryPath),
			zap.Error(err))
		_ = lib.Close()
		return Bridge{}, err
	}

	s := &session{
		lib:   lib,
		log:   log,
		path:  cfg.LibraryPath,
		debug: cfg.Debug,
	}
	if cfg.Debug {
		s.ledger = resource.NewLedger()
		s.ledger.Subscribe(resource.ObserverFunc(func(e resource.Event) {
			s.log.Debug("ownership",
				zap.Stringer("event", e.Type),
				zap.Uintptr("addr", e.Addr),
				zap.String("origin", e.Origin),
				zap.Int("count", e.Count))
		}))
	}

	runtime.LockOSThread()
	b := Bridge{s: s}
	if err := b.bootstrap(cfg.SearchPath); err != nil {
		log.Error("interpreter bootstrap failed",
			zap.String("path", cfg.LibraryPath),
			zap.Bool("owned", s.ownsInterpreter),
			zap.Error(err))
		if s.ownsInterpreter {
			if finalize, ferr := bind[finalizeFn](s, "Py_FinalizeEx"); ferr == nil {
				finalize()
			}
		}
		s.closed.Store(true)
		_ = lib.Close()
		runtime.UnlockOSThread()
		return Bridge{}, err
	}
	return b, nil
}

func (b Bridge) bootstrap(searchPath []string) error {
	s := b.s

	getVersion, err := bind[getVersionFn](s, "Py_GetVersion")
	if err != nil {
		return err
	}
	banner := getVersion()
	s.ver = version.Parse(banner)
	s.abi = selectABI(s.ver)

	isInitialized, err := bind[isInitializedFn](s, "Py_IsInitialized")
	if err != nil {
		return err
	}
	if isInitialized() == 0 {
		initialize, err := bind[initializeFn](s, "Py_InitializeEx")
		if err != nil {
			return err
		}
		// 0: leave signal handlers to the host
		initialize(0)
		s.ownsInterpreter = true
	}

	s.log.Info("interpreter started",
		zap.String("path", s.path),
		zap.Stringer("version", s.ver),
		zap.String("abi", s.abi.name),
		zap.Bool("owned", s.ownsInterpreter))
	if !s.ver.Known() {
		s.log.Warn("unrecognized interpreter version banner", zap.String("banner", banner))
	}

	for _, dir := range searchPath {
		if err := b.appendSearchPath(dir); err != nil {
			return err
		}
	}
	return nil
}

func (b Bridge) appendSearchPath(dir string) error {
	path, err := b.SysObject("path")
	if err != nil {
		return err
	}
	if path.IsNull() {
		return errors.NullReference(errors.PhaseRuntime, "PySys_GetObject(\"path\")")
	}

	entry, err := b.FromString(dir)
	if err != nil {
		return err
	}
	defer b.Release(entry)

	status, err := b.ListAppend(path, entry)
	if err != nil {
		return err
	}
	if status != 0 {
		_ = b.ErrClear()
		return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Symbol("PyList_Append").
			Detail("append %q to sys.path", dir).
			Build()
	}
	b.s.log.Debug("search path", zap.String("dir", dir))
	return nil
}

// Close releases the cached singletons, finalizes the interpreter if this
// session started it, and unloads the library. Further calls on any copy of
// the Bridge report KindNotInitialized. Closing twice is a no-op.
func (b Bridge) Close() error {
	s := b.s
	if s == nil {
		return errors.NotInitialized("bridge")
	}
	s.closeOnce.Do(func() {
		s.closeErr = b.teardown()
	})
	return s.closeErr
}

func (b Bridge) teardown() error {
	s := b.s
	var errs []error

	s.mu.Lock()
	for _, single := range []*Ref{&s.dictType, &s.none} {
		if single.IsNull() {
			continue
		}
		if err := b.Release(Owned{*single}); err != nil {
			errs = append(errs, err)
		}
		*single = 0
	}
	s.mu.Unlock()

	if s.ownsInterpreter {
		finalize, err := bind[finalizeFn](s, "Py_FinalizeEx")
		if err != nil {
			errs = append(errs, err)
		} else if rc := finalize(); rc != 0 {
			s.log.Warn("interpreter finalization reported errors", zap.Int32("status", rc))
		}
	}

	s.closed.Store(true)
	if err := s.lib.Close(); err != nil {
		errs = append(errs, err)
	}

	if s.debug {
		outstanding := s.refs.Load()
		s.log.Info("session closed", zap.Int64("outstanding", outstanding))
		if s.ledger != nil {
			for _, e := range s.ledger.Outstanding() {
				s.log.Warn("unreleased reference",
					zap.Uintptr("addr", e.Addr),
					zap.String("origin", e.Origin),
					zap.Int("count", e.Count))
			}
		}
	}

	runtime.UnlockOSThread()
	return stderrors.Join(errs...)
}

// Valid reports whether b refers to an open session.
func (b Bridge) Valid() bool {
	return b.s != nil && !b.s.closed.Load()
}

// Version returns the interpreter version parsed at startup.
func (b Bridge) Version() version.Version {
	if b.s == nil {
		return version.Version{Major: version.Unknown, Minor: version.Unknown, Patch: version.Unknown}
	}
	return b.s.ver
}

// Outstanding returns the number of owned references handed out by the
// bridge and not yet released or stolen. The cached None and dict type
// singletons count while they are held.
func (b Bridge) Outstanding() int64 {
	if b.s == nil {
		return 0
	}
	return b.s.refs.Load()
}

// Ledger returns the ownership ledger, or nil when debug mode is off.
func (b Bridge) Ledger() *resource.Ledger {
	if b.s == nil {
		return nil
	}
	return b.s.ledger
}

// Debug reports whether diagnostic mode is on.
func (b Bridge) Debug() bool {
	return b.s != nil && b.s.debug
}

// acquire records a new owned reference returned by origin.
func (s *session) acquire(r uintptr, origin string) Owned {
	if r == 0 {
		return Owned{}
	}
	s.refs.Add(1)
	if s.ledger != nil {
		s.ledger.Acquire(r, origin)
	}
	return Owned{Ref(r)}
}

// forget records that the caller's ownership of r ended, by release or steal.
func (s *session) forget(r uintptr, origin string, stolen bool) {
	if r == 0 {
		return
	}
	s.refs.Add(-1)
	if s.ledger == nil {
		return
	}
	if stolen {
		s.ledger.Steal(r, origin)
	} else {
		s.ledger.Release(r, origin)
	}
}

// IncRef takes a new reference to h.
func (b Bridge) IncRef(h Handle) (Owned, error) {
	incRef, err := bind[refFn](b.s, "Py_IncRef")
	if err != nil {
		return Owned{}, err
	}
	r := addr(h)
	if r == 0 {
		return Owned{}, nil
	}
	incRef(r)
	return b.s.acquire(r, "Py_IncRef"), nil
}

// NewRef promotes a borrowed reference to an owned one.
func (b Bridge) NewRef(h Borrowed) (Owned, error) {
	return b.IncRef(h)
}

// Release gives back each owned reference. Null references are skipped.
//
// Releasing a reference more than once, or one that was stolen, is a
// precondition violation: the counter is not clamped and the interpreter may
// free a live object.
func (b Bridge) Release(refs ...Owned) error {
	decRef, err := bind[refFn](b.s, "Py_DecRef")
	if err != nil {
		return err
	}
	for _, o := range refs {
		if o.IsNull() {
			continue
		}
		b.s.forget(uintptr(o.Ref), "Py_DecRef", false)
		decRef(uintptr(o.Ref))
	}
	return nil
}

// decRefUncounted drops a reference the bridge obtained internally and never
// handed out.
func (s *session) decRefUncounted(r uintptr) error {
	if r == 0 {
		return nil
	}
	decRef, err := bind[refFn](s, "Py_DecRef")
	if err != nil {
		return err
	}
	decRef(r)
	return nil
}
