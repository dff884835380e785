package store

import (
	"database/sql"
	"fmt"
)

// EnsureSchema creates the project table if it does not exist. One row per
// project: identity, owner, title and thumbnail as top-level columns, every
// other project field inside the serialized document column.
func EnsureSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS editor_projects (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL,
		title      TEXT NOT NULL DEFAULT 'Untitled Project',
		thumbnail  TEXT NOT NULL DEFAULT '',
		document   JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_editor_projects_user_updated
		ON editor_projects (user_id, updated_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
