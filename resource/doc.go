// Package resource tracks ownership of foreign object references handed out
// by the bridge.
//
// The interpreter's objects are reference counted on the foreign side, and
// nothing on that side tells the host which references it still owes a
// release for. The Ledger records every owned reference as it is handed out
// and drops it again when it is released or stolen, so that leaks can be
// listed by address and origin when a session ends.
//
// # Ownership Events
//
// Three transitions are recorded:
//
//	acquire - an owned reference was produced (New*, From*, Get*, Call, ...)
//	release - the holder gave its reference back
//	steal   - a container took over the reference (list/tuple item set)
//
// Borrowed references never reach the ledger.
//
// # Observers
//
// Register observers to follow the lifecycle:
//
//	ledger.Subscribe(resource.ObserverFunc(func(e resource.Event) {
//	    if e.Type == resource.EventAcquired {
//	        log.Printf("%#x from %s", e.Addr, e.Origin)
//	    }
//	}))
//
// # Cost
//
// Every event takes a mutex and touches a map. The bridge only attaches a
// ledger when diagnostic logging is enabled.
package resource
