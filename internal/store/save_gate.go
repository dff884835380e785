package store

import "sync"

// SaveStatus is reported to the caller-supplied callback at each transition
// of a save: saving, then saved or error.
type SaveStatus string

const (
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusError  SaveStatus = "error"
)

// StatusFunc receives save status transitions. May be nil.
type StatusFunc func(SaveStatus)

type gatedSave struct {
	run      func() error
	onStatus StatusFunc
}

// gateEntry is the coalescing state for one project id.
type gateEntry struct {
	inFlight bool
	pending  *gatedSave
}

// saveGate serializes saves per project id: at most one write per id is in
// flight at any time. A save submitted while its id has a write in flight
// replaces any previously pending save for that same id (coalescing) — the
// gate converges on the latest submission's data for each document, it does
// not deliver every intermediate state. After the in-flight write completes,
// the pending save (if any) runs next, until none remain.
//
// Coalescing never crosses ids: saves for distinct projects proceed
// independently, so a busy project can never swallow another project's
// acknowledged write. The state lives on the instance, never at package
// level, so independent store instances cannot cross-talk either.
type saveGate struct {
	mu      sync.Mutex
	entries map[string]*gateEntry
}

// submit either runs the save now (draining any saves queued behind it for
// the same id) or, when a write for that id is already in flight, parks it
// as the id's sole pending save.
func (g *saveGate) submit(id string, run func() error, onStatus StatusFunc) {
	g.mu.Lock()
	if g.entries == nil {
		g.entries = make(map[string]*gateEntry)
	}
	e := g.entries[id]
	if e == nil {
		e = &gateEntry{}
		g.entries[id] = e
	}
	if e.inFlight {
		e.pending = &gatedSave{run: run, onStatus: onStatus}
		g.mu.Unlock()
		return
	}
	e.inFlight = true
	g.mu.Unlock()

	cur := &gatedSave{run: run, onStatus: onStatus}
	for cur != nil {
		notify(cur.onStatus, StatusSaving)
		if err := cur.run(); err != nil {
			notify(cur.onStatus, StatusError)
		} else {
			notify(cur.onStatus, StatusSaved)
		}

		g.mu.Lock()
		cur = e.pending
		e.pending = nil
		if cur == nil {
			e.inFlight = false
			// Drop the drained entry so the map doesn't grow one slot per
			// project ever saved.
			delete(g.entries, id)
		}
		g.mu.Unlock()
	}
}

func notify(fn StatusFunc, s SaveStatus) {
	if fn != nil {
		fn(s)
	}
}
