package autosave

import (
	"context"
	"sync"
	"testing"
	"time"

	"vidstudio-backend/internal/models"
	"vidstudio-backend/internal/store"
)

// fakeSaver records each payload it is handed (cloned, so later mutations of
// the live project don't retroactively change history) and stamps updated_at
// the way the remote store does.
type fakeSaver struct {
	mu    sync.Mutex
	fail  bool
	saves []*models.EditorProject
}

func (f *fakeSaver) SaveProject(_ context.Context, p *models.EditorProject, onStatus store.StatusFunc) bool {
	if onStatus != nil {
		onStatus(store.StatusSaving)
	}

	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()

	if fail {
		if onStatus != nil {
			onStatus(store.StatusError)
		}
		return true
	}

	saved := p.Clone()
	saved.UpdatedAt = time.Now()
	f.mu.Lock()
	f.saves = append(f.saves, saved)
	f.mu.Unlock()

	if onStatus != nil {
		onStatus(store.StatusSaved)
	}
	return true
}

func (f *fakeSaver) setFail(fail bool) {
	f.mu.Lock()
	f.fail = fail
	f.mu.Unlock()
}

func (f *fakeSaver) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeSaver) last() *models.EditorProject {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saves) == 0 {
		return nil
	}
	return f.saves[len(f.saves)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestCoordinator_DebounceCollapsesBurstToOneSave(t *testing.T) {
	saver := &fakeSaver{}
	c := New(saver, Config{Debounce: 100 * time.Millisecond, Interval: time.Hour, SavedDelay: time.Millisecond}, nil)
	defer c.Close()

	p := models.NewProject("burst")
	for i := 0; i < 5; i++ {
		p.TextOverlays = append(p.TextOverlays, models.TextOverlay{Text: "edit"})
		c.Update(p)
		time.Sleep(30 * time.Millisecond) // inside the window: timer resets every time
	}

	// Still inside the window measured from the LAST edit.
	time.Sleep(40 * time.Millisecond)
	if saver.count() != 0 {
		t.Fatalf("save fired before the debounce window elapsed (%d saves)", saver.count())
	}

	if !waitFor(t, time.Second, func() bool { return saver.count() == 1 }) {
		t.Fatalf("want exactly 1 save after silence, got %d", saver.count())
	}

	// No further saves without further edits.
	time.Sleep(150 * time.Millisecond)
	if saver.count() != 1 {
		t.Fatalf("debounce produced %d saves, want 1", saver.count())
	}
	if len(saver.last().TextOverlays) != 5 {
		t.Fatalf("saved payload should hold all 5 edits, got %d", len(saver.last().TextOverlays))
	}
}

func TestCoordinator_QuiescentIntervalTickIsNoop(t *testing.T) {
	saver := &fakeSaver{}
	c := New(saver, Config{Debounce: 10 * time.Millisecond, Interval: 50 * time.Millisecond, SavedDelay: time.Millisecond}, nil)
	defer c.Close()

	p := models.NewProject("quiet")
	p.TextOverlays = append(p.TextOverlays, models.TextOverlay{Text: "once"})
	c.Update(p)

	if !waitFor(t, time.Second, func() bool { return saver.count() == 1 }) {
		t.Fatal("initial save never happened")
	}

	// Several interval ticks pass over an unchanged document: no writes.
	time.Sleep(200 * time.Millisecond)
	if saver.count() != 1 {
		t.Fatalf("quiescent ticks issued writes: %d saves", saver.count())
	}
}

func TestCoordinator_FailedSaveKeepsBaselineAndRetries(t *testing.T) {
	saver := &fakeSaver{}
	var mu sync.Mutex
	var statuses []Status
	c := New(saver, Config{Debounce: 20 * time.Millisecond, Interval: 80 * time.Millisecond, SavedDelay: time.Millisecond},
		func(s Status) {
			mu.Lock()
			statuses = append(statuses, s)
			mu.Unlock()
		})
	defer c.Close()

	saver.setFail(true)

	p := models.NewProject("retry")
	p.TextOverlays = append(p.TextOverlays, models.TextOverlay{Text: "dirty"})
	c.Update(p)

	if !waitFor(t, time.Second, func() bool { return c.Status() == StatusError }) {
		t.Fatal("failed save never surfaced as error status")
	}
	if saver.count() != 0 {
		t.Fatal("failed save must not be recorded")
	}

	// Baseline was not advanced, so a later tick retries the same payload
	// with no further Update calls.
	saver.setFail(false)
	if !waitFor(t, 2*time.Second, func() bool { return saver.count() == 1 }) {
		t.Fatal("interval tick did not retry the dirty payload")
	}
	if len(saver.last().TextOverlays) != 1 || saver.last().TextOverlays[0].Text != "dirty" {
		t.Fatal("retry must carry the same still-dirty content")
	}

	mu.Lock()
	defer mu.Unlock()
	sawError := false
	for _, s := range statuses {
		if s == StatusError {
			sawError = true
		}
	}
	if !sawError {
		t.Fatal("status callback never reported error")
	}
}

func TestCoordinator_CreateEditPersistFlow(t *testing.T) {
	saver := &fakeSaver{}
	c := New(saver, Config{Debounce: 30 * time.Millisecond, Interval: time.Hour, SavedDelay: time.Millisecond}, nil)
	defer c.Close()

	p := models.NewProject("scenario")
	time.Sleep(5 * time.Millisecond) // ensure the save stamp lands strictly later

	p.TextOverlays = append(p.TextOverlays, models.TextOverlay{
		Text: "Hello", StartTime: 0, EndTime: 3,
	})
	c.Update(p)

	if !waitFor(t, time.Second, func() bool { return saver.count() == 1 }) {
		t.Fatal("edit was never persisted")
	}

	saved := saver.last()
	if len(saved.TextOverlays) != 1 {
		t.Fatalf("want exactly one text overlay, got %d", len(saved.TextOverlays))
	}
	o := saved.TextOverlays[0]
	if o.Text != "Hello" || o.StartTime != 0 || o.EndTime != 3 {
		t.Fatalf("overlay content mismatch: %+v", o)
	}
	if !saved.UpdatedAt.After(saved.CreatedAt) {
		t.Fatalf("updated_at (%v) must be strictly after created_at (%v)", saved.UpdatedAt, saved.CreatedAt)
	}

	if !waitFor(t, time.Second, func() bool { return c.Status() == StatusSaved }) {
		t.Fatalf("status should settle on saved, got %s", c.Status())
	}
	if c.LastSaved().IsZero() {
		t.Fatal("last-saved timestamp not recorded")
	}
}

func TestCoordinator_CloseCancelsPendingSave(t *testing.T) {
	saver := &fakeSaver{}
	c := New(saver, Config{Debounce: 50 * time.Millisecond, Interval: 80 * time.Millisecond, SavedDelay: time.Millisecond}, nil)

	p := models.NewProject("closed")
	p.TextOverlays = append(p.TextOverlays, models.TextOverlay{Text: "never saved"})
	c.Update(p)
	c.Close()

	// Well past both timers: nothing may fire after teardown.
	time.Sleep(250 * time.Millisecond)
	if saver.count() != 0 {
		t.Fatalf("save fired after Close: %d saves", saver.count())
	}

	c.Close() // double close is safe
}

func TestCoordinator_UpdateWithCleanContentArmsNothing(t *testing.T) {
	saver := &fakeSaver{}
	c := New(saver, Config{Debounce: 30 * time.Millisecond, Interval: time.Hour, SavedDelay: time.Millisecond}, nil)
	defer c.Close()

	p := models.NewProject("clean")
	p.TextOverlays = append(p.TextOverlays, models.TextOverlay{Text: "x"})
	c.Update(p)
	if !waitFor(t, time.Second, func() bool { return saver.count() == 1 }) {
		t.Fatal("initial save never happened")
	}

	// Re-announcing unchanged content must not schedule another save.
	c.Update(p)
	time.Sleep(100 * time.Millisecond)
	if saver.count() != 1 {
		t.Fatalf("clean update caused %d saves, want 1", saver.count())
	}
}
