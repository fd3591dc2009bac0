package convert

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/pybridge/bridge"
	"github.com/wippyai/pybridge/errors"
	"github.com/wippyai/pybridge/internal/fakepy"
)

func newBridge(t *testing.T) (bridge.Bridge, *fakepy.Runtime) {
	t.Helper()
	rt := fakepy.New()
	b, err := bridge.New(bridge.Config{
		LibraryPath: "libpython3-fake.so",
		Loader:      func(string) (bridge.Library, error) { return rt, nil },
	})
	if err != nil {
		t.Fatalf("bridge.New: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	// warm the None singleton so counts below are stable
	if _, err := b.None(); err != nil {
		t.Fatalf("None: %v", err)
	}
	return b, rt
}

func eval(t *testing.T, b bridge.Bridge, src string) bridge.Owned {
	t.Helper()
	obj, err := b.Run(src, bridge.ModeExpression, nil, nil)
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	if obj.IsNull() {
		t.Fatalf("Run(%q) raised: %v", src, b.FetchError())
	}
	return obj
}

func checkBalanced(t *testing.T, b bridge.Bridge, rt *fakepy.Runtime, baseline int64) {
	t.Helper()
	if got := b.Outstanding(); got != baseline {
		t.Errorf("Outstanding = %d, want %d", got, baseline)
	}
	if n := rt.Live(); n != 0 {
		t.Errorf("%d foreign objects alive: %v", n, rt.LiveObjects())
	}
}

func TestRoundTrip(t *testing.T) {
	b, rt := newBridge(t)
	enc, dec := NewEncoder(b), NewDecoder(b)
	baseline := b.Outstanding()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 42, int64(42)},
		{"negative int8", int8(-5), int64(-5)},
		{"uint32", uint32(7), int64(7)},
		{"max int64", int64(math.MaxInt64), int64(math.MaxInt64)},
		{"float32", float32(0.5), 0.5},
		{"float64", -2.25, -2.25},
		{"string", "héllo", "héllo"},
		{"empty string", "", ""},
		{"nil pointer", (*int)(nil), nil},
		{"nil slice", []int(nil), nil},
		{"slice", []string{"a", "b"}, []any{"a", "b"}},
		{"empty slice", []int{}, []any{}},
		{"array", [2]int{1, 2}, []any{int64(1), int64(2)}},
		{"map", map[string]int{"x": 1, "y": 2}, map[string]any{"x": int64(1), "y": int64(2)}},
		{"int keys", map[int]string{2: "two", 1: "one"}, map[string]any{"1": "one", "2": "two"}},
		{
			name: "nested",
			in: map[string]any{
				"name":  "ada",
				"tags":  []any{"x", 1, nil, false},
				"inner": map[string]any{"pi": 3.5},
			},
			want: map[string]any{
				"name":  "ada",
				"tags":  []any{"x", int64(1), nil, false},
				"inner": map[string]any{"pi": 3.5},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := enc.Encode(tt.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := dec.Decode(obj)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if err := b.Release(obj); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
	checkBalanced(t, b, rt, baseline)
}

type profile struct {
	Name     string `py:"name"`
	Age      int
	Email    string `py:"email,omitempty"`
	Password string `py:"-"`
	internal int
}

func TestEncodeStruct(t *testing.T) {
	b, rt := newBridge(t)
	enc, dec := NewEncoder(b), NewDecoder(b)
	baseline := b.Outstanding()

	obj, err := enc.Encode(&profile{Name: "ada", Age: 36, Password: "secret", internal: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := dec.Decode(obj)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	_ = b.Release(obj)

	want := map[string]any{"name": "ada", "Age": int64(36)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("struct mismatch (-want +got):\n%s", diff)
	}
	checkBalanced(t, b, rt, baseline)
}

func TestEncodeHandlePassthrough(t *testing.T) {
	b, rt := newBridge(t)
	enc := NewEncoder(b)
	baseline := b.Outstanding()

	inner, err := b.FromString("shared")
	if err != nil {
		t.Fatal(err)
	}
	before := rt.RefCount(inner.Addr())

	same, err := enc.Encode(inner)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if same.Addr() != inner.Addr() {
		t.Error("handle should encode to the same object")
	}
	if got := rt.RefCount(inner.Addr()); got != before+1 {
		t.Errorf("refcount = %d, want %d", got, before+1)
	}

	list, err := enc.Encode([]any{inner.Borrow(), bridge.Ref(0)})
	if err != nil {
		t.Fatalf("Encode list: %v", err)
	}
	first, _ := b.ListGetItem(list, 0)
	second, _ := b.ListGetItem(list, 1)
	if !first.Equal(inner.Ref) {
		t.Error("list element is not the passed handle")
	}
	if isNone, _ := b.IsNone(second); !isNone {
		t.Error("null handle should encode as None")
	}

	_ = b.Release(list, same, inner)
	checkBalanced(t, b, rt, baseline)
}

func TestEncodeErrors(t *testing.T) {
	b, rt := newBridge(t)
	enc := NewEncoder(b)
	baseline := b.Outstanding()

	tests := []struct {
		name string
		in   any
		kind errors.Kind
		path []string
	}{
		{"uint64 overflow", uint64(math.MaxUint64), errors.KindOverflow, nil},
		{"channel", make(chan int), errors.KindUnsupported, nil},
		{"func in list", []any{1, func() {}}, errors.KindUnsupported, []string{"[1]"}},
		{"complex in map", map[string]any{"a": 1, "z": complex(1, 2)}, errors.KindUnsupported, []string{"z"}},
		{"struct key map", map[struct{}]int{{}: 1}, errors.KindUnsupported, nil},
		{"nested overflow", map[string][]uint{"n": {1, math.MaxUint64}}, errors.KindOverflow, []string{"n", "[1]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := enc.Encode(tt.in)
			if err == nil {
				_ = b.Release(obj)
				t.Fatal("expected error")
			}
			if !obj.IsNull() {
				t.Error("failed Encode returned a reference")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %T, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseEncode || e.Kind != tt.kind {
				t.Errorf("err = %v, want encode/%s", err, tt.kind)
			}
			if diff := cmp.Diff(tt.path, e.Path); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
		})
	}
	checkBalanced(t, b, rt, baseline)
}

func TestEncodeDepthLimit(t *testing.T) {
	b, rt := newBridge(t)
	baseline := b.Outstanding()

	var deep any = "leaf"
	for i := 0; i <= MaxDepth+1; i++ {
		deep = []any{deep}
	}
	_, err := NewEncoder(b).Encode(deep)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindOverflow}) {
		t.Fatalf("err = %v, want encode overflow", err)
	}
	checkBalanced(t, b, rt, baseline)
}

func TestDecodeForeignValues(t *testing.T) {
	b, rt := newBridge(t)
	dec := NewDecoder(b)
	baseline := b.Outstanding()

	tests := []struct {
		src  string
		want any
	}{
		{"True", true},
		{"False", false},
		{"0", int64(0)},
		{"-1", int64(-1)},
		{"1.0", 1.0},
		{"'text'", "text"},
		{"None", nil},
		{"(1, 'two', [3.5])", []any{int64(1), "two", []any{3.5}}},
		{"{1: 'a', 'b': 2, None: True}", map[string]any{"1": "a", "b": int64(2), "None": true}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			obj := eval(t, b, tt.src)
			defer b.Release(obj)
			got, err := dec.Decode(obj)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
	checkBalanced(t, b, rt, baseline)
}

func TestDecodeUnsupported(t *testing.T) {
	b, rt := newBridge(t)
	dec := NewDecoder(b)
	baseline := b.Outstanding()

	list := eval(t, b, "[1, 2]")
	it, err := b.GetIter(list)
	if err != nil || it.IsNull() {
		t.Fatalf("GetIter = %v, %v", it, err)
	}
	holder, err := NewEncoder(b).Encode([]any{"ok", it})
	if err != nil {
		t.Fatal(err)
	}

	_, err = dec.Decode(holder)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("err = %v, want *errors.Error", err)
	}
	if e.Kind != errors.KindUnsupported || e.ForeignType != "iterator" {
		t.Errorf("err = %+v, want unsupported iterator", e)
	}
	if diff := cmp.Diff([]string{"[1]"}, e.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	_ = b.Release(holder, it, list)
	checkBalanced(t, b, rt, baseline)
}

type account struct {
	Name    string    `py:"name"`
	Age     uint8     `py:"age"`
	Scores  []float64 `py:"scores"`
	Limits  map[string]int
	Comment *string
	Any     any
	Skipped string `py:"-"`
}

func TestDecodeInto(t *testing.T) {
	b, rt := newBridge(t)
	dec := NewDecoder(b)
	baseline := b.Outstanding()

	obj := eval(t, b, "{'name': 'ada', 'AGE': 36, 'scores': [1.5, 2], 'limits': {'cpu': 4}, 'comment': 'hi', 'any': (1,), 'Skipped': 'no', 'extra': None}")
	var got account
	if err := dec.DecodeInto(obj, &got); err != nil {
		t.Fatalf("DecodeInto: %v", err)
	}
	_ = b.Release(obj)

	comment := "hi"
	want := account{
		Name:    "ada",
		Age:     36,
		Scores:  []float64{1.5, 2},
		Limits:  map[string]int{"cpu": 4},
		Comment: &comment,
		Any:     []any{int64(1)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeInto mismatch (-want +got):\n%s", diff)
	}
	checkBalanced(t, b, rt, baseline)
}

func TestDecodeIntoErrors(t *testing.T) {
	b, _ := newBridge(t)
	dec := NewDecoder(b)

	tests := []struct {
		name   string
		src    string
		target any
		kind   errors.Kind
	}{
		{"overflow", "{'age': 300}", &account{}, errors.KindOverflow},
		{"negative unsigned", "-1", new(uint), errors.KindOverflow},
		{"string into int", "'x'", new(int), errors.KindTypeMismatch},
		{"bool into int", "True", new(int), errors.KindTypeMismatch},
		{"list into map", "[1]", new(map[string]any), errors.KindTypeMismatch},
		{"array length", "[1, 2, 3]", new([2]int), errors.KindTypeMismatch},
		{"float into int", "1.5", new(int64), errors.KindTypeMismatch},
		{"not a pointer", "1", 0, errors.KindInvalidInput},
		{"channel", "1", new(chan int), errors.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := eval(t, b, tt.src)
			defer b.Release(obj)

			err := dec.DecodeInto(obj, tt.target)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseDecode || e.Kind != tt.kind {
				t.Errorf("err = %v, want decode/%s", err, tt.kind)
			}
		})
	}
}
