package resource

import (
	"reflect"
	"sort"
	"sync"
)

// Ledger records outstanding owned references by address.
type Ledger struct {
	entries   map[uintptr]*Entry
	observers []Observer
	mu        sync.Mutex
	obsMu     sync.RWMutex
	// unmatched counts releases and steals for addresses with no recorded acquire.
	unmatched int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[uintptr]*Entry),
	}
}

// Acquire records one owned reference to addr produced by origin.
// A zero address is ignored.
func (l *Ledger) Acquire(addr uintptr, origin string) {
	if addr == 0 {
		return
	}

	l.mu.Lock()
	e, ok := l.entries[addr]
	if !ok {
		e = &Entry{Addr: addr}
		l.entries[addr] = e
	}
	e.Count++
	e.Origin = origin
	count := e.Count
	l.mu.Unlock()

	l.notify(Event{Type: EventAcquired, Addr: addr, Origin: origin, Count: count})
}

// Release records that the holder gave one reference to addr back.
func (l *Ledger) Release(addr uintptr, origin string) {
	l.drop(addr, origin, EventReleased)
}

// Steal records that a container took over one reference to addr.
func (l *Ledger) Steal(addr uintptr, origin string) {
	l.drop(addr, origin, EventStolen)
}

func (l *Ledger) drop(addr uintptr, origin string, typ EventType) {
	if addr == 0 {
		return
	}

	l.mu.Lock()
	count := 0
	if e, ok := l.entries[addr]; ok {
		e.Count--
		count = e.Count
		if e.Count <= 0 {
			delete(l.entries, addr)
		}
	} else {
		// Released a reference obtained by promoting a borrow, or a
		// double release. Either way the foreign side decides.
		l.unmatched++
	}
	l.mu.Unlock()

	l.notify(Event{Type: typ, Addr: addr, Origin: origin, Count: count})
}

// Len returns the number of distinct outstanding addresses.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Unmatched returns how many releases or steals had no recorded acquire.
func (l *Ledger) Unmatched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unmatched
}

// Outstanding returns a snapshot of outstanding entries ordered by address.
func (l *Ledger) Outstanding() []Entry {
	l.mu.Lock()
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	l.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
	return out
}

// Reset forgets every entry without emitting events.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[uintptr]*Entry)
	l.unmatched = 0
}

// Subscribe adds an observer for ownership events. A nil observer is ignored.
func (l *Ledger) Subscribe(o Observer) {
	if o == nil {
		return
	}
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	l.observers = append(l.observers, o)
}

// Unsubscribe removes an observer and reports whether it was subscribed.
// Observers of non-comparable types, such as ObserverFunc, are never matched.
func (l *Ledger) Unsubscribe(o Observer) bool {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return false
	}
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	for i, obs := range l.observers {
		if !reflect.TypeOf(obs).Comparable() {
			continue
		}
		if obs == o {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Ledger) notify(e Event) {
	l.obsMu.RLock()
	defer l.obsMu.RUnlock()
	for _, o := range l.observers {
		o.OnOwnershipEvent(e)
	}
}
