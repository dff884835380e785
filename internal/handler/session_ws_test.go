package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"vidstudio-backend/internal/auth"
	"vidstudio-backend/internal/autosave"
	"vidstudio-backend/internal/models"
	"vidstudio-backend/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sessionSaver records saves across goroutines; fail makes every write report
// an error so the coordinator keeps retrying on its interval.
type sessionSaver struct {
	mu    sync.Mutex
	fail  bool
	saves []*models.EditorProject
}

func (s *sessionSaver) SaveProject(_ context.Context, p *models.EditorProject, onStatus store.StatusFunc) bool {
	s.mu.Lock()
	s.saves = append(s.saves, p.Clone())
	fail := s.fail
	s.mu.Unlock()
	if onStatus != nil {
		onStatus(store.StatusSaving)
		if fail {
			onStatus(store.StatusError)
		} else {
			onStatus(store.StatusSaved)
		}
	}
	return true
}

func (s *sessionSaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *sessionSaver) last() *models.EditorProject {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

func newSessionServer(t *testing.T, saver autosave.Saver, cfg autosave.Config) *httptest.Server {
	t.Helper()
	h := &EditSessionHandler{
		Upgrader: websocket.Upgrader{},
		NewSaver: func(auth.IdentityResolver) autosave.Saver { return saver },
		Autosave: cfg,
	}
	srv := httptest.NewServer(WithUser(http.HandlerFunc(h.Serve)))
	t.Cleanup(srv.Close)
	return srv
}

func dialSession(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{}
	if userID != "" {
		header.Set("X-User-ID", userID)
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEditSession_UpdateStreamsPersistAndReportStatus(t *testing.T) {
	saver := &sessionSaver{}
	srv := newSessionServer(t, saver, autosave.Config{
		Debounce:   20 * time.Millisecond,
		Interval:   time.Hour,
		SavedDelay: 10 * time.Millisecond,
	})
	conn := dialSession(t, srv, uuid.New().String())

	p := models.NewProject("live cut")
	p.TextOverlays = append(p.TextOverlays, models.TextOverlay{
		ID: "t1", Text: "Hello", StartTime: 0, EndTime: 3,
	})
	if err := conn.WriteJSON(sessionMessage{Type: "update", Project: p}); err != nil {
		t.Fatalf("write update: %v", err)
	}

	// The debounce fires server-side; the session streams saving then saved.
	var seen []autosave.Status
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg statusMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("status stream ended early (saw %v): %v", seen, err)
		}
		seen = append(seen, msg.Status)
		if msg.Status == autosave.StatusSaved {
			if msg.LastSaved == nil || msg.LastSaved.IsZero() {
				t.Fatal("saved status carried no last_saved timestamp")
			}
			break
		}
	}

	if saver.count() != 1 {
		t.Fatalf("want 1 save for the edit burst, got %d", saver.count())
	}
	got := saver.last()
	if got.Title != "live cut" || len(got.TextOverlays) != 1 || got.TextOverlays[0].Text != "Hello" {
		t.Fatalf("persisted project does not match the streamed edit: %+v", got)
	}
}

func TestEditSession_NoUserIsRejectedAtHandshake(t *testing.T) {
	srv := newSessionServer(t, &sessionSaver{}, autosave.Config{})

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("handshake without a user must fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 handshake response, got %+v", resp)
	}
}

func TestEditSession_CloseStopsRetries(t *testing.T) {
	// A failing saver keeps the document dirty, so the interval ticker retries
	// for as long as the session lives. Closing the connection must tear the
	// coordinator down and freeze the attempt count.
	saver := &sessionSaver{fail: true}
	srv := newSessionServer(t, saver, autosave.Config{
		Debounce:   10 * time.Millisecond,
		Interval:   25 * time.Millisecond,
		SavedDelay: 10 * time.Millisecond,
	})
	conn := dialSession(t, srv, uuid.New().String())

	if err := conn.WriteJSON(sessionMessage{Type: "update", Project: models.NewProject("doomed")}); err != nil {
		t.Fatalf("write update: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for saver.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if saver.count() < 2 {
		t.Fatal("interval retries never started")
	}

	conn.Close()
	// Let the server observe the close and finish teardown.
	time.Sleep(100 * time.Millisecond)
	frozen := saver.count()
	time.Sleep(150 * time.Millisecond)
	if saver.count() != frozen {
		t.Fatalf("saves continued after the session closed: %d -> %d", frozen, saver.count())
	}
}
