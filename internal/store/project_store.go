// internal/store/project_store.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"vidstudio-backend/internal/auth"
	"vidstudio-backend/internal/models"

	"github.com/google/uuid"
)

// Sentinel errors — callers use errors.Is() instead of string matching
var (
	ErrProjectNotFound = errors.New("project not found")
)

const queryTimeout = 5 * time.Second

// ProjectStore is the authoritative store for project rows: per-user CRUD
// over Postgres. Every operation resolves the acting user through the
// injected identity resolver and fails gracefully (empty/absent/false, never
// a panic or surfaced error) when no session is active — the UI expects
// listing and saving to never block the page.
//
// Saves are serialized per instance through the embedded save gate; see
// SaveProject for the coalescing contract.
type ProjectStore struct {
	db       *sql.DB
	identity auth.IdentityResolver
	gate     saveGate
}

func NewProjectStore(db *sql.DB, identity auth.IdentityResolver) *ProjectStore {
	return &ProjectStore{db: db, identity: identity}
}

const projectColumns = `id, title, thumbnail, document, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.EditorProject, error) {
	p := &models.EditorProject{}
	var doc []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Thumbnail, &doc, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &p.ProjectDocument); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ListProjects returns the current user's projects, most recently updated
// first. Unauthenticated callers and query failures get an empty list.
func (s *ProjectStore) ListProjects(ctx context.Context) []*models.EditorProject {
	projects := []*models.EditorProject{}

	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return projects
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM editor_projects
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`, userID)
	if err != nil {
		log.Println("store: list projects:", err)
		return projects
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			log.Println("store: scan project:", err)
			continue
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		log.Println("store: list projects:", err)
	}
	return projects
}

// GetProject returns the project, or nil when it does not exist, belongs to
// another user, or there is no active session.
func (s *ProjectStore) GetProject(ctx context.Context, id string) *models.EditorProject {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM editor_projects
		WHERE id = $1 AND user_id = $2
	`, id, userID)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		log.Println("store: get project:", err)
		return nil
	}
	return p
}

// CreateProject inserts a fresh project row: server-assigned id, both
// timestamps stamped now, empty edit layers and neutral adjustments.
// Returns nil when there is no active session.
func (s *ProjectStore) CreateProject(ctx context.Context, title string) *models.EditorProject {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return nil
	}
	if title == "" {
		title = "Untitled Project"
	}

	p := &models.EditorProject{
		ID:              uuid.New().String(),
		Title:           title,
		ProjectDocument: models.EmptyDocument(),
	}
	doc, err := json.Marshal(p.ProjectDocument)
	if err != nil {
		log.Println("store: create project:", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO editor_projects (id, user_id, title, document)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, p.ID, userID, p.Title, doc).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		log.Println("store: create project:", err)
		return nil
	}
	return p
}

// SaveProject upserts the project by id, serializing the document fields into
// the document column and carrying title/thumbnail as their own columns.
//
// Saves are coalesced per project id: if a save for this id is in flight,
// this payload replaces any previously queued pending payload for the same
// id, and runs after the in-flight save completes. Callers get eventual
// convergence to the latest call's data per document, not delivery of every
// intermediate state; saves for distinct projects never coalesce with each
// other. onStatus (optional) observes saving → (saved | error) for each
// payload actually written.
//
// Returns false without touching the gate when there is no active session or
// the document cannot be serialized.
func (s *ProjectStore) SaveProject(ctx context.Context, p *models.EditorProject, onStatus StatusFunc) bool {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return false
	}

	doc, err := json.Marshal(p.ProjectDocument)
	if err != nil {
		log.Println("store: save project:", err)
		return false
	}

	// Snapshot the column values now: the in-memory project may be mutated
	// again before a coalesced save actually runs.
	id, title, thumbnail := p.ID, p.Title, p.Thumbnail

	s.gate.submit(id, func() error {
		return s.writeRow(userID, id, title, thumbnail, doc)
	}, onStatus)
	return true
}

func (s *ProjectStore) writeRow(userID uuid.UUID, id, title, thumbnail string, doc []byte) error {
	// Background context: a coalesced save may run after the request that
	// queued it has already returned.
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO editor_projects (id, user_id, title, thumbnail, document)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title      = EXCLUDED.title,
			thumbnail  = EXCLUDED.thumbnail,
			document   = EXCLUDED.document,
			updated_at = NOW()
		WHERE editor_projects.user_id = EXCLUDED.user_id
	`, id, userID, title, thumbnail, doc)
	if err != nil {
		log.Println("store: write project:", err)
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Row exists but belongs to another user.
		log.Println("store: write project: not owned by caller")
		return ErrProjectNotFound
	}
	return nil
}

// DeleteProject hard-deletes the row. Idempotent: deleting an absent id
// succeeds. Returns false only when there is no active session or the
// delete itself failed.
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) bool {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM editor_projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		log.Println("store: delete project:", err)
		return false
	}
	return true
}

// DuplicateProject deep-copies the source project into a new row under a new
// id with fresh timestamps and a " (Copy)" title suffix. All layers are
// copied; nothing aliases the source. Returns nil when the source is not
// found or there is no active session.
func (s *ProjectStore) DuplicateProject(ctx context.Context, id string) *models.EditorProject {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return nil
	}

	source := s.GetProject(ctx, id)
	if source == nil {
		return nil
	}

	dup := source.Clone()
	dup.ID = uuid.New().String()
	dup.Title = source.Title + " (Copy)"

	doc, err := json.Marshal(dup.ProjectDocument)
	if err != nil {
		log.Println("store: duplicate project:", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO editor_projects (id, user_id, title, thumbnail, document)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, dup.ID, userID, dup.Title, dup.Thumbnail, doc).Scan(&dup.CreatedAt, &dup.UpdatedAt)
	if err != nil {
		log.Println("store: duplicate project:", err)
		return nil
	}
	return dup
}

// RenameProject updates only the title column.
func (s *ProjectStore) RenameProject(ctx context.Context, id, newTitle string) bool {
	userID, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
		UPDATE editor_projects
		SET title = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
	`, newTitle, id, userID)
	if err != nil {
		log.Println("store: rename project:", err)
		return false
	}

	rows, _ := result.RowsAffected()
	return rows > 0
}
