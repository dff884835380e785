// Package cache is the local project cache: a durable key-value store for
// project documents and raw video blobs, keyed by project id. It is a
// performance cache, not the source of truth — the remote store is — so every
// operation is failure-opaque: engine errors degrade to the fallback path (for
// projects) or to an absent result (for blobs), and callers never see a
// transport error.
package cache

import (
	"context"
	"log"
	"time"

	"vidstudio-backend/internal/models"
	"vidstudio-backend/internal/validation"
)

// VideoBlob is a cached source video plus the metadata needed to rebuild a
// well-typed file from raw bytes.
type VideoBlob struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"-"`
}

// Engine is the storage backend contract. Two implementations exist: sqlite
// (preferred) and a flat JSON file (fallback). Either can be swapped, or a
// third added, without touching Cache callers.
//
// GetProject and GetVideoBlob return (nil, nil) for an absent key.
// ListProjects returns projects ordered by UpdatedAt descending.
type Engine interface {
	ListProjects(ctx context.Context) ([]*models.EditorProject, error)
	GetProject(ctx context.Context, id string) (*models.EditorProject, error)
	PutProject(ctx context.Context, p *models.EditorProject) error
	DeleteProject(ctx context.Context, id string) error

	PutVideoBlob(ctx context.Context, projectID string, blob VideoBlob) error
	GetVideoBlob(ctx context.Context, projectID string) (*VideoBlob, error)
	DeleteVideoBlob(ctx context.Context, projectID string) error

	Close() error
}

// Cache wraps a preferred engine and a fallback engine. Project operations
// that fail on the preferred engine are retried on the fallback; blob
// operations have no fallback (the fallback medium is too small for video)
// and degrade to no-op/absent instead.
type Cache struct {
	preferred Engine // nil when the probe at construction failed
	fallback  Engine
}

// Open probes the sqlite engine at dbPath and falls back to a flat-file store
// at filePath when sqlite is unavailable. Open itself never fails: a cache
// with no working engine still satisfies every call (empty/absent results).
func Open(dbPath, filePath string) *Cache {
	c := &Cache{fallback: newFileEngine(filePath)}
	eng, err := openSQLite(dbPath)
	if err != nil {
		log.Println("cache: sqlite unavailable, using file fallback:", err)
		return c
	}
	c.preferred = eng
	return c
}

// NewWithEngines wires explicit engines; used by tests.
func NewWithEngines(preferred, fallback Engine) *Cache {
	return &Cache{preferred: preferred, fallback: fallback}
}

// ListProjects never fails; any internal error yields an empty list.
func (c *Cache) ListProjects(ctx context.Context) []*models.EditorProject {
	if c.preferred != nil {
		projects, err := c.preferred.ListProjects(ctx)
		if err == nil {
			return projects
		}
		log.Println("cache: list degraded to fallback:", err)
	}
	projects, err := c.fallback.ListProjects(ctx)
	if err != nil {
		log.Println("cache: list failed:", err)
		return []*models.EditorProject{}
	}
	return projects
}

// GetProject returns nil when the project is not cached or on any failure.
func (c *Cache) GetProject(ctx context.Context, id string) *models.EditorProject {
	if c.preferred != nil {
		p, err := c.preferred.GetProject(ctx, id)
		if err == nil {
			return p
		}
		log.Println("cache: get degraded to fallback:", err)
	}
	p, err := c.fallback.GetProject(ctx, id)
	if err != nil {
		log.Println("cache: get failed:", err)
		return nil
	}
	return p
}

// PutProject upserts by id and stamps UpdatedAt before storing.
func (c *Cache) PutProject(ctx context.Context, p *models.EditorProject) {
	p.UpdatedAt = time.Now().UTC()
	if c.preferred != nil {
		err := c.preferred.PutProject(ctx, p)
		if err == nil {
			return
		}
		log.Println("cache: put degraded to fallback:", err)
	}
	if err := c.fallback.PutProject(ctx, p); err != nil {
		log.Println("cache: put failed:", err)
	}
}

// DeleteProject is idempotent: deleting an absent id is a no-op.
// The project's cached video blob is removed along with it.
func (c *Cache) DeleteProject(ctx context.Context, id string) {
	if c.preferred != nil {
		if err := c.preferred.DeleteProject(ctx, id); err != nil {
			log.Println("cache: delete degraded to fallback:", err)
			if err := c.fallback.DeleteProject(ctx, id); err != nil {
				log.Println("cache: delete failed:", err)
			}
		}
	} else if err := c.fallback.DeleteProject(ctx, id); err != nil {
		log.Println("cache: delete failed:", err)
	}
	c.DeleteVideoBlob(ctx, id)
}

// PutVideoBlob stores one blob per project, last write wins. Without the
// preferred engine this is a no-op.
func (c *Cache) PutVideoBlob(ctx context.Context, projectID string, blob VideoBlob) {
	if c.preferred == nil {
		return
	}
	if err := c.preferred.PutVideoBlob(ctx, projectID, blob); err != nil {
		log.Println("cache: blob put dropped:", err)
	}
}

// GetVideoBlob returns nil when absent, unavailable or corrupt beyond repair.
// A blob stored without its MIME type is re-wrapped from its file name.
func (c *Cache) GetVideoBlob(ctx context.Context, projectID string) *VideoBlob {
	if c.preferred == nil {
		return nil
	}
	blob, err := c.preferred.GetVideoBlob(ctx, projectID)
	if err != nil {
		log.Println("cache: blob get failed:", err)
		return nil
	}
	if blob == nil {
		return nil
	}
	if len(blob.Data) == 0 {
		return nil
	}
	if blob.MIME == "" {
		blob.MIME = validation.GuessContentType(blob.Name)
	}
	return blob
}

// DeleteVideoBlob is idempotent and a no-op without the preferred engine.
func (c *Cache) DeleteVideoBlob(ctx context.Context, projectID string) {
	if c.preferred == nil {
		return
	}
	if err := c.preferred.DeleteVideoBlob(ctx, projectID); err != nil {
		log.Println("cache: blob delete failed:", err)
	}
}

// Close releases both engines.
func (c *Cache) Close() {
	if c.preferred != nil {
		if err := c.preferred.Close(); err != nil {
			log.Println("cache: close:", err)
		}
	}
	if err := c.fallback.Close(); err != nil {
		log.Println("cache: close fallback:", err)
	}
}
