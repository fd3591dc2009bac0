package resource

// EventType identifies an ownership transition.
type EventType uint8

const (
	EventAcquired EventType = iota
	EventReleased
	EventStolen
)

func (t EventType) String() string {
	switch t {
	case EventAcquired:
		return "acquired"
	case EventReleased:
		return "released"
	case EventStolen:
		return "stolen"
	default:
		return "unknown"
	}
}

// Event describes one ownership transition.
type Event struct {
	Origin string
	Addr   uintptr
	Type   EventType
	// Count is the number of references the ledger holds for Addr after the event.
	Count int
}

// Observer receives ownership events.
type Observer interface {
	OnOwnershipEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnOwnershipEvent calls f(e).
func (f ObserverFunc) OnOwnershipEvent(e Event) {
	f(e)
}

// Entry is one outstanding address in the ledger.
type Entry struct {
	// Origin is the operation that produced the most recent reference.
	Origin string
	Addr   uintptr
	Count  int
}
