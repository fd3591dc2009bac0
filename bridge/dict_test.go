package bridge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDictIteration(t *testing.T) {
	b, rt := newTestBridge(t)
	own := owned(t)

	want := []struct {
		key   string
		value int64
	}{
		{"alpha", 1},
		{"beta", -2},
		{"gamma", 300},
	}

	dict := own(b.NewDict())
	for _, kv := range want {
		k := own(b.FromString(kv.key))
		v := own(b.FromInt64(kv.value))
		if status, err := b.DictSetItem(dict, k, v); err != nil || status != 0 {
			t.Fatalf("DictSetItem(%s) = %d, %v", kv.key, status, err)
		}
		if err := b.Release(k, v); err != nil {
			t.Fatal(err)
		}
	}
	before := b.Outstanding()

	var keys []string
	values := map[string]int64{}
	pos := 0
	for {
		e, err := b.DictNext(dict, pos)
		if err != nil {
			t.Fatalf("DictNext: %v", err)
		}
		if !e.OK {
			if !e.Key.IsNull() || !e.Value.IsNull() {
				t.Error("finished step should carry null key and value")
			}
			break
		}
		if e.Pos <= pos {
			t.Fatalf("cursor did not advance: %d -> %d", pos, e.Pos)
		}
		k := text(t, b, e.Key)
		v, _ := b.AsInt64(e.Value)
		keys = append(keys, k)
		values[k] = v
		pos = e.Pos
	}
	// borrowed entries leave the counter alone
	assertOutstanding(t, b, before)

	if diff := cmp.Diff([]string{"alpha", "beta", "gamma"}, keys); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
	wantValues := map[string]int64{"alpha": 1, "beta": -2, "gamma": 300}
	if diff := cmp.Diff(wantValues, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	var seen int
	err := b.DictEach(dict, func(key, value Borrowed) bool {
		seen++
		return seen < 2
	})
	if err != nil || seen != 2 {
		t.Errorf("DictEach stopped after %d entries, err %v; want 2", seen, err)
	}

	keyList := own(b.DictKeys(dict))
	if n, _ := b.ListSize(keyList); n != 3 {
		t.Errorf("DictKeys size = %d, want 3", n)
	}
	first, _ := b.ListGetItem(keyList, 0)
	if got := text(t, b, first); got != "alpha" {
		t.Errorf("first key = %q", got)
	}

	if err := b.Release(keyList, dict); err != nil {
		t.Fatal(err)
	}
	assertOutstanding(t, b, 0)
	assertNoLiveObjects(t, rt)
}

func TestDictNext_Empty(t *testing.T) {
	b, _ := newTestBridge(t)
	dict := owned(t)(b.NewDict())
	defer b.Release(dict)

	e, err := b.DictNext(dict, 0)
	if err != nil || e.OK || e.Pos != 0 {
		t.Errorf("DictNext on empty dict = %+v, %v", e, err)
	}
}

func TestTupleAccess(t *testing.T) {
	b, rt := newTestBridge(t)
	own := owned(t)

	tuple := own(b.NewTuple(2))
	if _, err := b.TupleSetItem(tuple, 0, own(b.FromString("a"))); err != nil {
		t.Fatal(err)
	}
	if _, err := b.TupleSetItem(tuple, 1, own(b.FromInt64(2))); err != nil {
		t.Fatal(err)
	}
	if n, _ := b.TupleSize(tuple); n != 2 {
		t.Errorf("TupleSize = %d", n)
	}
	item, _ := b.TupleGetItem(tuple, 1)
	if v, _ := b.AsInt64(item); v != 2 {
		t.Errorf("tuple[1] = %d", v)
	}
	if oob, _ := b.TupleGetItem(tuple, 5); !oob.IsNull() {
		t.Error("out of range TupleGetItem should be null")
	}
	_ = b.ErrClear()

	if err := b.Release(tuple); err != nil {
		t.Fatal(err)
	}
	assertOutstanding(t, b, 0)
	assertNoLiveObjects(t, rt)
}
