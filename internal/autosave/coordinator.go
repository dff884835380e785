// Package autosave decides when to persist the in-memory project: a debounce
// window after each edit, plus a fixed safety interval, both converging on a
// single save primitive that skips clean documents.
package autosave

import (
	"context"
	"sync"
	"time"

	"vidstudio-backend/internal/models"
	"vidstudio-backend/internal/store"
)

// Status is the coordinator's UI-facing state. Idle renders as nothing.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved"
	StatusError  Status = "error"
)

// Saver persists a project. *store.ProjectStore satisfies this; tests
// substitute a fake.
type Saver interface {
	SaveProject(ctx context.Context, p *models.EditorProject, onStatus store.StatusFunc) bool
}

// Config carries the coordinator's timings. Zero values take the defaults.
type Config struct {
	Debounce   time.Duration // quiet period after an edit before saving (default 2s)
	Interval   time.Duration // unconditional save-attempt cadence (default 30s)
	SavedDelay time.Duration // minimum time "saving" stays visible (default 500ms)
}

const (
	defaultDebounce   = 2 * time.Second
	defaultInterval   = 30 * time.Second
	defaultSavedDelay = 500 * time.Millisecond
)

// Coordinator watches a project document and drives the remote store's save.
// It only ever reads the project (to fingerprint it and hand it to the
// saver); the editor view owns all mutation. All failure is communicated via
// the status callback — nothing panics and nothing is returned to a caller.
type Coordinator struct {
	saver    Saver
	cfg      Config
	onStatus func(Status)

	mu            sync.Mutex
	current       *models.EditorProject
	baseline      string // fingerprint of the last successfully saved content
	lastSaved     time.Time
	status        Status
	statusGen     int // invalidates a scheduled "saved" transition
	debounceTimer *time.Timer
	closed        bool

	done chan struct{}
}

// New starts a coordinator. onStatus (optional) is called on every status
// transition. The interval ticker runs until Close.
func New(saver Saver, cfg Config, onStatus func(Status)) *Coordinator {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.SavedDelay <= 0 {
		cfg.SavedDelay = defaultSavedDelay
	}

	c := &Coordinator{
		saver:    saver,
		cfg:      cfg,
		onStatus: onStatus,
		status:   StatusIdle,
		done:     make(chan struct{}),
	}

	go c.intervalLoop()
	return c
}

func (c *Coordinator) intervalLoop() {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.trySave()
		case <-c.done:
			return
		}
	}
}

// Update tells the coordinator the project changed (or may have). If the
// content fingerprint differs from the last-saved baseline, the debounce
// timer is (re)armed; every further change within the window resets it, so a
// burst of edits produces one save timed from the last edit.
func (c *Coordinator) Update(p *models.EditorProject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.current = p
	if Fingerprint(p) == c.baseline {
		return
	}
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.debounceTimer = time.AfterFunc(c.cfg.Debounce, c.trySave)
}

// trySave is the single save primitive both timers converge on. It re-checks
// the fingerprint immediately before issuing the write, closing the race
// between "timer armed" and "user edited one tick later", and making a
// quiescent interval tick a no-op.
func (c *Coordinator) trySave() {
	c.mu.Lock()
	if c.closed || c.current == nil {
		c.mu.Unlock()
		return
	}
	p := c.current
	fp := Fingerprint(p)
	if fp == c.baseline {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	accepted := c.saver.SaveProject(context.Background(), p, func(s store.SaveStatus) {
		switch s {
		case store.StatusSaving:
			c.setStatus(StatusSaving)
		case store.StatusSaved:
			c.mu.Lock()
			c.baseline = fp
			c.lastSaved = time.Now()
			c.mu.Unlock()
			c.scheduleSaved()
		case store.StatusError:
			// Baseline deliberately untouched: the content is still dirty,
			// so the next debounce or interval tick retries it.
			c.setStatus(StatusError)
		}
	})
	if !accepted {
		c.setStatus(StatusError)
	}
}

func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.statusGen++
	c.status = s
	cb := c.onStatus
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

// scheduleSaved flips saving → saved after SavedDelay, so the UI gets to
// render the transient "saving…" affordance instead of flickering on fast
// networks. A newer transition in the meantime wins.
func (c *Coordinator) scheduleSaved() {
	c.mu.Lock()
	c.statusGen++
	gen := c.statusGen
	c.mu.Unlock()

	time.AfterFunc(c.cfg.SavedDelay, func() {
		c.mu.Lock()
		if c.closed || gen != c.statusGen {
			c.mu.Unlock()
			return
		}
		c.status = StatusSaved
		cb := c.onStatus
		c.mu.Unlock()
		if cb != nil {
			cb(StatusSaved)
		}
	})
}

// Status returns the current UI-facing state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastSaved returns when the last successful save completed (zero if never).
func (c *Coordinator) LastSaved() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSaved
}

// Close cancels both timers and prevents any further save. This must run on
// session teardown: a leaked timer could otherwise fire a save referencing a
// stale project after the user navigated elsewhere.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}
	c.mu.Unlock()
	close(c.done)
}
