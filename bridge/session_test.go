package bridge

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/pybridge/errors"
	"github.com/wippyai/pybridge/internal/fakepy"
)

func TestNew_MissingLibraryEnv(t *testing.T) {
	lookup := func(string) (string, bool) { return "", false }

	_, err := OpenEnv(lookup)
	if err == nil {
		t.Fatal("expected error")
	}
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindConfigMissing}) {
		t.Errorf("err = %v, want config_missing", err)
	}
	if !strings.Contains(err.Error(), EnvLibrary) {
		t.Errorf("message %q does not name %s", err, EnvLibrary)
	}
}

func TestNew_LoadFailure(t *testing.T) {
	t.Run("loader error", func(t *testing.T) {
		cause := fmt.Errorf("no such file")
		_, err := New(Config{
			LibraryPath: "/nonexistent/libpython3.12.so",
			Loader:      func(string) (Library, error) { return nil, cause },
		})
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindLoadFailed}) {
			t.Fatalf("err = %v, want load_failed", err)
		}
		if !stderrors.Is(err, cause) {
			t.Error("cause not preserved")
		}
	})

	t.Run("default loader", func(t *testing.T) {
		_, err := New(Config{LibraryPath: "/nonexistent/libpython3.12.so"})
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindLoadFailed}) {
			t.Fatalf("err = %v, want load_failed", err)
		}
	})
}

func TestNew_MissingSymbols(t *testing.T) {
	rt := fakepy.New(fakepy.WithoutSymbols("Py_FinalizeEx", "Py_DecRef"))
	_, err := New(Config{LibraryPath: fakeLibrary, Loader: fakeLoader(rt)})

	var missing *errors.MissingSymbolsError
	if !stderrors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingSymbolsError", err)
	}
	if diff := cmp.Diff([]string{"Py_DecRef", "Py_FinalizeEx"}, missing.Symbols); diff != "" {
		t.Errorf("Symbols mismatch (-want +got):\n%s", diff)
	}
	if missing.Library != fakeLibrary {
		t.Errorf("Library = %q, want %q", missing.Library, fakeLibrary)
	}
	if !rt.Closed() {
		t.Error("library should be closed after failed bootstrap")
	}
	if rt.InitCalls() != 0 {
		t.Error("interpreter should not be initialized when symbols are missing")
	}
}

func TestNew_InitializesAndFinalizes(t *testing.T) {
	rt := fakepy.New()
	b, err := New(Config{LibraryPath: fakeLibrary, Loader: fakeLoader(rt)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !rt.Initialized() || rt.InitCalls() != 1 {
		t.Fatalf("Initialized = %v, InitCalls = %d", rt.Initialized(), rt.InitCalls())
	}
	if got := b.Version(); got.Major != 3 || got.Minor != 12 || got.Patch != 4 {
		t.Errorf("Version = %v, want 3.12.4", got)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rt.FinalizeCalls() != 1 {
		t.Errorf("FinalizeCalls = %d, want 1", rt.FinalizeCalls())
	}
	if !rt.Closed() {
		t.Error("library not closed")
	}
}

func TestNew_AlreadyInitialized(t *testing.T) {
	rt := fakepy.New(fakepy.Preinitialized())
	b, err := New(Config{LibraryPath: fakeLibrary, Loader: fakeLoader(rt)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rt.InitCalls() != 0 {
		t.Errorf("InitCalls = %d, want 0", rt.InitCalls())
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rt.FinalizeCalls() != 0 {
		t.Errorf("FinalizeCalls = %d, want 0 for a host-owned interpreter", rt.FinalizeCalls())
	}
}

func TestNew_SearchPath(t *testing.T) {
	rt := fakepy.New()
	lookup := func(name string) (string, bool) {
		switch name {
		case EnvLibrary:
			return fakeLibrary, true
		case EnvPath:
			return "/opt/app/lib" + string(filepath.ListSeparator) + "/opt/app/vendor", true
		}
		return "", false
	}
	b, err := OpenEnv(lookup, WithLoader(fakeLoader(rt)), WithSearchPath("/srv/extra"))
	if err != nil {
		t.Fatalf("OpenEnv: %v", err)
	}
	defer b.Close()

	want := []string{"/opt/app/lib", "/opt/app/vendor", "/srv/extra"}
	if diff := cmp.Diff(want, rt.SysPath()); diff != "" {
		t.Errorf("sys.path mismatch (-want +got):\n%s", diff)
	}
	assertOutstanding(t, b, 0)
}

func TestNew_BootstrapFailureFinalizes(t *testing.T) {
	tests := []struct {
		name         string
		opts         []fakepy.Option
		wantFinalize int
	}{
		{"owned interpreter", []fakepy.Option{fakepy.WithoutSymbols("PyList_Append")}, 1},
		{"host interpreter", []fakepy.Option{fakepy.WithoutSymbols("PyList_Append"), fakepy.Preinitialized()}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := fakepy.New(tt.opts...)
			_, err := New(Config{
				LibraryPath: fakeLibrary,
				Loader:      fakeLoader(rt),
				SearchPath:  []string{"/opt/mods"},
			})
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindSymbolMissing}) {
				t.Fatalf("err = %v, want symbol_missing", err)
			}
			if got := rt.FinalizeCalls(); got != tt.wantFinalize {
				t.Errorf("FinalizeCalls = %d, want %d", got, tt.wantFinalize)
			}
			if tt.wantFinalize == 1 && rt.Initialized() {
				t.Error("interpreter still initialized after failed bootstrap")
			}
			if !rt.Closed() {
				t.Error("library not closed")
			}
		})
	}
}

func TestClose_TeardownReturnsToBaseline(t *testing.T) {
	own := owned(t)
	b, rt := newTestBridge(t)
	assertOutstanding(t, b, 0)

	// populate both singletons
	if _, err := b.None(); err != nil {
		t.Fatalf("None: %v", err)
	}
	if _, err := b.DictType(); err != nil {
		t.Fatalf("DictType: %v", err)
	}
	assertOutstanding(t, b, 2)

	d := own(b.NewDict())
	if err := b.Release(d); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	assertOutstanding(t, b, 0)
	assertNoLiveObjects(t, rt)
}

func TestClose_SharedAcrossCopies(t *testing.T) {
	b, _ := newTestBridge(t)
	c := b

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if b.Valid() {
		t.Error("original copy still valid after Close on a copy")
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	_, err := b.NewDict()
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotInitialized}) {
		t.Errorf("NewDict after Close: err = %v, want not_initialized", err)
	}
}

func TestZeroBridge(t *testing.T) {
	var b Bridge
	notInit := &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindNotInitialized}

	checks := map[string]error{}
	_, checks["NewDict"] = b.NewDict()
	_, checks["None"] = b.None()
	_, checks["DictType"] = b.DictType()
	_, checks["Is"] = b.Is(Ref(1), Ref(1))
	_, checks["IterNext"] = b.IterNext(Ref(1))
	_, checks["ErrFetch"] = b.ErrFetch()
	_, checks["ErrOccurred"] = b.ErrOccurred()
	checks["Release"] = b.Release(Owned{Ref(1)})
	checks["Close"] = b.Close()

	for name, err := range checks {
		if !stderrors.Is(err, notInit) {
			t.Errorf("%s: err = %v, want not_initialized", name, err)
		}
	}
	if b.Valid() || b.Debug() || b.Ledger() != nil || b.Outstanding() != 0 {
		t.Error("zero Bridge should report an empty state")
	}
	if b.Version().Known() {
		t.Error("zero Bridge should have an unknown version")
	}
}

func TestDebugLedgerReportsLeaks(t *testing.T) {
	own := owned(t)
	core, logs := observer.New(zapcore.DebugLevel)
	rt := fakepy.New()
	b, err := New(Config{
		LibraryPath: fakeLibrary,
		Loader:      fakeLoader(rt),
		Logger:      zap.New(core),
		Debug:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !b.Debug() || b.Ledger() == nil {
		t.Fatal("debug session should carry a ledger")
	}

	kept := own(b.NewDict())
	dropped := own(b.FromInt64(7))
	if err := b.Release(dropped); err != nil {
		t.Fatalf("Release: %v", err)
	}

	out := b.Ledger().Outstanding()
	if len(out) != 1 || out[0].Addr != kept.Addr() || out[0].Origin != "PyDict_New" {
		t.Fatalf("Outstanding = %+v, want the PyDict_New reference", out)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	leaks := logs.FilterMessage("unreleased reference").All()
	if len(leaks) != 1 {
		t.Fatalf("logged %d leaks, want 1", len(leaks))
	}
	if got := leaks[0].ContextMap()["origin"]; got != "PyDict_New" {
		t.Errorf("leak origin = %v, want PyDict_New", got)
	}
	closed := logs.FilterMessage("session closed").All()
	if len(closed) != 1 || closed[0].ContextMap()["outstanding"] != int64(1) {
		t.Errorf("session closed entries = %+v, want outstanding=1", closed)
	}
	if logs.FilterMessage("ownership").Len() == 0 {
		t.Error("ownership events were not logged")
	}
}
