package resource

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnOwnershipEvent(e Event) {
	o.events = append(o.events, e)
}

func TestLedger_AcquireRelease(t *testing.T) {
	l := NewLedger()

	l.Acquire(0x10, "PyDict_New")
	l.Acquire(0x10, "Py_IncRef")
	l.Acquire(0x20, "PyList_New")

	if l.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", l.Len())
	}

	want := []Entry{
		{Addr: 0x10, Count: 2, Origin: "Py_IncRef"},
		{Addr: 0x20, Count: 1, Origin: "PyList_New"},
	}
	if diff := cmp.Diff(want, l.Outstanding()); diff != "" {
		t.Errorf("Outstanding() mismatch (-want +got):\n%s", diff)
	}

	l.Release(0x10, "Py_DecRef")
	l.Steal(0x20, "PyList_SetItem")

	want = []Entry{{Addr: 0x10, Count: 1, Origin: "Py_IncRef"}}
	if diff := cmp.Diff(want, l.Outstanding()); diff != "" {
		t.Errorf("Outstanding() mismatch (-want +got):\n%s", diff)
	}

	l.Release(0x10, "Py_DecRef")
	if l.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", l.Len())
	}
	if l.Unmatched() != 0 {
		t.Errorf("Unmatched() = %d, want 0", l.Unmatched())
	}
}

func TestLedger_ZeroAddrIgnored(t *testing.T) {
	l := NewLedger()
	obs := &testObserver{}
	l.Subscribe(obs)

	l.Acquire(0, "PyObject_GetAttrString")
	l.Release(0, "Py_DecRef")
	l.Steal(0, "PyTuple_SetItem")

	if l.Len() != 0 || len(obs.events) != 0 || l.Unmatched() != 0 {
		t.Errorf("zero address should be ignored: len=%d events=%d unmatched=%d",
			l.Len(), len(obs.events), l.Unmatched())
	}
}

func TestLedger_Unmatched(t *testing.T) {
	l := NewLedger()
	l.Release(0x30, "Py_DecRef")
	l.Steal(0x40, "PyList_SetItem")

	if l.Unmatched() != 2 {
		t.Errorf("Unmatched() = %d, want 2", l.Unmatched())
	}
	l.Reset()
	if l.Unmatched() != 0 {
		t.Errorf("Unmatched() after Reset = %d, want 0", l.Unmatched())
	}
}

func TestLedger_Observer(t *testing.T) {
	l := NewLedger()
	obs := &testObserver{}
	l.Subscribe(obs)

	l.Acquire(0x10, "PyDict_New")
	l.Steal(0x10, "PyList_SetItem")

	want := []Event{
		{Type: EventAcquired, Addr: 0x10, Origin: "PyDict_New", Count: 1},
		{Type: EventStolen, Addr: 0x10, Origin: "PyList_SetItem", Count: 0},
	}
	if diff := cmp.Diff(want, obs.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	if !l.Unsubscribe(obs) {
		t.Fatal("Unsubscribe should report a subscribed observer")
	}
	l.Acquire(0x10, "PyDict_New")
	if len(obs.events) != 2 {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestLedger_UnsubscribeNonComparable(t *testing.T) {
	l := NewLedger()
	var calls int
	fn := ObserverFunc(func(Event) { calls++ })
	ptr := &testObserver{}
	l.Subscribe(fn)
	l.Subscribe(ptr)

	if l.Unsubscribe(fn) {
		t.Error("Unsubscribe(ObserverFunc) = true, want false")
	}
	if !l.Unsubscribe(ptr) {
		t.Error("Unsubscribe(pointer) = false, want true")
	}
	if l.Unsubscribe(ptr) {
		t.Error("second Unsubscribe(pointer) = true, want false")
	}
	if l.Unsubscribe(nil) {
		t.Error("Unsubscribe(nil) = true, want false")
	}

	l.Acquire(0x20, "PyLong_FromLongLong")
	if calls != 1 {
		t.Errorf("ObserverFunc calls = %d, want 1", calls)
	}
	if len(ptr.events) != 0 {
		t.Errorf("removed observer got %d events", len(ptr.events))
	}
}

func TestObserverFunc(t *testing.T) {
	l := NewLedger()
	var got []EventType
	l.Subscribe(ObserverFunc(func(e Event) { got = append(got, e.Type) }))

	l.Acquire(0x10, "a")
	l.Release(0x10, "b")

	if diff := cmp.Diff([]EventType{EventAcquired, EventReleased}, got); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if EventStolen.String() != "stolen" || EventType(9).String() != "unknown" {
		t.Error("unexpected EventType strings")
	}
}
