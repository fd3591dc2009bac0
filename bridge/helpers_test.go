package bridge

import (
	"testing"

	"github.com/wippyai/pybridge/internal/fakepy"
)

const fakeLibrary = "libpython3-fake.so"

func fakeLoader(rt *fakepy.Runtime) Loader {
	return func(string) (Library, error) { return rt, nil }
}

// newTestBridge starts a session over a fresh fake interpreter and closes it
// when the test ends.
func newTestBridge(t *testing.T, opts ...fakepy.Option) (Bridge, *fakepy.Runtime) {
	t.Helper()
	rt := fakepy.New(opts...)
	b, err := New(Config{
		LibraryPath: fakeLibrary,
		Loader:      fakeLoader(rt),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b, rt
}

// owned returns a checker that fails the test on an error or a null
// reference. Use it as own := owned(t); d := own(b.NewDict()).
func owned(t *testing.T) func(Owned, error) Owned {
	return func(o Owned, err error) Owned {
		t.Helper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.IsNull() {
			t.Fatal("unexpected null reference")
		}
		return o
	}
}

func assertOutstanding(t *testing.T, b Bridge, want int64) {
	t.Helper()
	if got := b.Outstanding(); got != want {
		t.Errorf("Outstanding = %d, want %d", got, want)
	}
}

func assertNoLiveObjects(t *testing.T, rt *fakepy.Runtime) {
	t.Helper()
	if n := rt.Live(); n != 0 {
		t.Errorf("%d foreign objects still alive: %v", n, rt.LiveObjects())
	}
}

func text(t *testing.T, b Bridge, h Handle) string {
	t.Helper()
	s, ok, err := b.Text(h)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !ok {
		t.Fatal("Text: not a str")
	}
	return s
}
