package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"vidstudio-backend/internal/models"
)

// schemaVersion is bumped only for additive migrations (new tables/columns).
// Destructive changes are forbidden: an upgrade must never drop previously
// cached projects.
const schemaVersion = 2

type sqliteEngine struct {
	db *sql.DB
}

// openSQLite opens (or creates) the cache database and runs pending
// migrations. Any failure here means the preferred engine is unavailable and
// the caller should fall back.
func openSQLite(path string) (*sqliteEngine, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("probe cache db: %w", err)
	}
	e := &sqliteEngine{db: db}
	if err := e.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return e, nil
}

func (e *sqliteEngine) migrate() error {
	var version int
	if err := e.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("cache db schema version %d is newer than supported %d", version, schemaVersion)
	}

	if version < 1 {
		if _, err := e.db.Exec(`
			CREATE TABLE IF NOT EXISTS projects (
				id         TEXT PRIMARY KEY,
				document   TEXT NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects(updated_at);
		`); err != nil {
			return fmt.Errorf("migrate projects: %w", err)
		}
	}
	if version < 2 {
		if _, err := e.db.Exec(`
			CREATE TABLE IF NOT EXISTS video_blobs (
				project_id TEXT PRIMARY KEY,
				name       TEXT NOT NULL DEFAULT '',
				mime       TEXT NOT NULL DEFAULT '',
				data       BLOB NOT NULL
			);
		`); err != nil {
			return fmt.Errorf("migrate video_blobs: %w", err)
		}
	}

	if _, err := e.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

func (e *sqliteEngine) ListProjects(ctx context.Context) ([]*models.EditorProject, error) {
	rows, err := e.db.QueryContext(ctx,
		`SELECT document FROM projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*models.EditorProject{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		p := &models.EditorProject{}
		if err := json.Unmarshal(doc, p); err != nil {
			// One corrupt row must not hide the rest of the cache.
			continue
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (e *sqliteEngine) GetProject(ctx context.Context, id string) (*models.EditorProject, error) {
	var doc []byte
	err := e.db.QueryRowContext(ctx,
		`SELECT document FROM projects WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := &models.EditorProject{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("decode cached project: %w", err)
	}
	return p, nil
}

func (e *sqliteEngine) PutProject(ctx context.Context, p *models.EditorProject) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = e.db.ExecContext(ctx, `
		INSERT INTO projects (id, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document,
		                              updated_at = excluded.updated_at
	`, p.ID, doc, p.UpdatedAt)
	return err
}

func (e *sqliteEngine) DeleteProject(ctx context.Context, id string) error {
	_, err := e.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	return err
}

func (e *sqliteEngine) PutVideoBlob(ctx context.Context, projectID string, blob VideoBlob) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO video_blobs (project_id, name, mime, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET name = excluded.name,
		                                      mime = excluded.mime,
		                                      data = excluded.data
	`, projectID, blob.Name, blob.MIME, blob.Data)
	return err
}

func (e *sqliteEngine) GetVideoBlob(ctx context.Context, projectID string) (*VideoBlob, error) {
	blob := &VideoBlob{}
	err := e.db.QueryRowContext(ctx,
		`SELECT name, mime, data FROM video_blobs WHERE project_id = ?`, projectID).
		Scan(&blob.Name, &blob.MIME, &blob.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (e *sqliteEngine) DeleteVideoBlob(ctx context.Context, projectID string) error {
	_, err := e.db.ExecContext(ctx, `DELETE FROM video_blobs WHERE project_id = ?`, projectID)
	return err
}

func (e *sqliteEngine) Close() error {
	return e.db.Close()
}
