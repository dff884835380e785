package handler

import (
	"log"
	"net/http"
	"time"

	"vidstudio-backend/internal/auth"
	"vidstudio-backend/internal/autosave"
	"vidstudio-backend/internal/models"

	"github.com/gorilla/websocket"
)

// EditSessionHandler runs one live editing session per websocket connection.
// The client streams project snapshots as it edits; a per-connection autosave
// coordinator (over a per-connection store instance, so save coalescing never
// crosses sessions) decides when to persist, and status transitions stream
// back for the save indicator.
type EditSessionHandler struct {
	Upgrader websocket.Upgrader
	// NewSaver builds the session's own saver, bound to the session's user.
	NewSaver func(identity auth.IdentityResolver) autosave.Saver
	Autosave autosave.Config
}

// Inbound: {"type":"update","project":{...}} on every edit.
type sessionMessage struct {
	Type    string                `json:"type"`
	Project *models.EditorProject `json:"project,omitempty"`
}

// Outbound: {"type":"status","status":"saving"|"saved"|"error"|"idle"}.
type statusMessage struct {
	Type      string          `json:"type"`
	Status    autosave.Status `json:"status"`
	LastSaved *time.Time      `json:"last_saved,omitempty"`
}

func (h *EditSessionHandler) Serve(w http.ResponseWriter, r *http.Request) {
	userID, ok := (auth.ContextResolver{}).CurrentUser(r.Context())
	if !ok {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("session: upgrade:", err)
		return
	}
	defer conn.Close()

	// The user was authenticated at upgrade time; the saver keeps that
	// identity for the connection's whole life.
	saver := h.NewSaver(auth.StaticResolver{ID: userID})

	statusCh := make(chan autosave.Status, 8)
	coordinator := autosave.New(saver, h.Autosave, func(s autosave.Status) {
		select {
		case statusCh <- s:
		default: // a slow client drops intermediate transitions, never blocks a save
		}
	})
	// Teardown cancels both autosave timers: nothing may save this project
	// after its session closed.
	defer coordinator.Close()

	done := make(chan struct{})
	defer close(done)

	// Single writer goroutine; gorilla/websocket allows one concurrent writer.
	go func() {
		for {
			select {
			case s := <-statusCh:
				msg := statusMessage{Type: "status", Status: s}
				if t := coordinator.LastSaved(); !t.IsZero() {
					msg.LastSaved = &t
				}
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		var msg sessionMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("session: read:", err)
			}
			return
		}
		if msg.Type == "update" && msg.Project != nil {
			coordinator.Update(msg.Project)
		}
	}
}
