package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"vidstudio-backend/internal/auth"
	"vidstudio-backend/internal/cache"
	"vidstudio-backend/internal/models"
	"vidstudio-backend/internal/service"
	"vidstudio-backend/internal/store"
	"vidstudio-backend/internal/thumbnail"
	"vidstudio-backend/internal/validation"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ProjectService is the slice of the remote project store the handlers use.
type ProjectService interface {
	ListProjects(ctx context.Context) []*models.EditorProject
	CreateProject(ctx context.Context, title string) *models.EditorProject
	SaveProject(ctx context.Context, p *models.EditorProject, onStatus store.StatusFunc) bool
	DeleteProject(ctx context.Context, id string) bool
	DuplicateProject(ctx context.Context, id string) *models.EditorProject
	RenameProject(ctx context.Context, id, newTitle string) bool
}

// Opener is the remote-aware project open path.
type Opener interface {
	Open(ctx context.Context, id string) (*service.OpenResult, bool)
}

type ProjectHandler struct {
	Service   ProjectService
	Opener    Opener
	Cache     *cache.Cache
	Thumbs    thumbnail.Generator
	UploadDir string
	BaseURL   string
}

// WithUser lifts the gateway-injected X-User-ID header onto the request
// context, where the store's identity resolver finds it. Requests without a
// valid header simply carry no user — every store call then fails gracefully.
func WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("X-User-ID"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(auth.WithUser(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	// Listing never fails from the caller's perspective; an empty list is
	// the worst case.
	writeJSON(w, http.StatusOK, h.Service.ListProjects(r.Context()))
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if err := validation.ValidateProjectTitle(req.Title); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project := h.Service.CreateProject(r.Context(), req.Title)
	if project == nil {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// OpenProject serves the full open path: remote document preferred, local
// cache fallback, cached source video surfaced alongside.
func (h *ProjectHandler) OpenProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, ok := h.Opener.Open(r.Context(), id)
	if !ok {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}

	resp := struct {
		Project     *models.EditorProject `json:"project"`
		FromCache   bool                  `json:"from_cache"`
		CachedVideo *struct {
			Name string `json:"name"`
			MIME string `json:"mime"`
		} `json:"cached_video,omitempty"`
	}{Project: result.Project, FromCache: result.FromCache}

	if result.Video != nil {
		resp.CachedVideo = &struct {
			Name string `json:"name"`
			MIME string `json:"mime"`
		}{Name: result.Video.Name, MIME: result.Video.MIME}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ProjectHandler) SaveProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var project models.EditorProject
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	project.ID = id // path wins over body

	// Buffered: the callback may fire later, from the save gate's goroutine,
	// if this payload was coalesced behind an in-flight save.
	statusCh := make(chan store.SaveStatus, 2)
	accepted := h.Service.SaveProject(r.Context(), &project, func(s store.SaveStatus) {
		if s != store.StatusSaving {
			select {
			case statusCh <- s:
			default:
			}
		}
	})
	if !accepted {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}

	select {
	case s := <-statusCh:
		if s == store.StatusError {
			http.Error(w, "save failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
	default:
		// Parked behind an in-flight save; it will be written next.
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

// DeleteProject removes the remote row and everything cached locally for the
// project (document + source video blob).
func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if !h.Service.DeleteProject(r.Context(), id) {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}
	h.Cache.DeleteProject(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProjectHandler) DuplicateProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	dup := h.Service.DuplicateProject(r.Context(), id)
	if dup == nil {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

func (h *ProjectHandler) RenameProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateProjectTitle(req.Title); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.Service.RenameProject(r.Context(), id, req.Title) {
		http.Error(w, "project not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// UploadVideo ingests the source video for a project: validates it, persists
// it under the uploads dir, caches the raw blob keyed by project id, and
// best-effort generates the initial thumbnail.
func (h *ProjectHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validation.ValidateUpload(header); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "file read failed", http.StatusInternalServerError)
		return
	}

	// UUID filename: no path traversal, no collisions, no name leakage.
	safeName := uuid.New().String() + filepath.Ext(header.Filename)
	path := filepath.Join(h.UploadDir, safeName)
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		http.Error(w, "unable to save file", http.StatusInternalServerError)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Println("upload: write file:", err)
		http.Error(w, "unable to save file", http.StatusInternalServerError)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = validation.GuessContentType(header.Filename)
	}
	h.Cache.PutVideoBlob(r.Context(), projectID, cache.VideoBlob{
		Name: header.Filename,
		MIME: contentType,
		Data: data,
	})

	var thumb string
	if h.Thumbs != nil {
		thumb, _ = h.Thumbs.Generate(r.Context(), path)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"video_url": h.BaseURL + "/uploads/" + safeName,
		"thumbnail": thumb,
	})
}
