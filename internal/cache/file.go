package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"vidstudio-backend/internal/models"
)

// fileEngine is the fallback engine: the whole project collection serialized
// under one file, rewritten atomically on every change. It exists so project
// caching survives when sqlite is unavailable; it deliberately does not store
// video blobs — they are far too large for a rewrite-everything medium.
type fileEngine struct {
	mu   sync.Mutex
	path string
}

type fileCollection struct {
	Projects []*models.EditorProject `json:"projects"`
}

func newFileEngine(path string) *fileEngine {
	return &fileEngine{path: path}
}

// load reads the collection. A missing file is an empty collection, not an
// error, so a fresh install starts clean.
func (e *fileEngine) load() (*fileCollection, error) {
	col := &fileCollection{Projects: []*models.EditorProject{}}
	data, err := os.ReadFile(e.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return col, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return col, nil
	}
	if err := json.Unmarshal(data, col); err != nil {
		return nil, fmt.Errorf("decode cache file: %w", err)
	}
	return col, nil
}

// store writes the collection atomically (tmp file + rename) so a crash
// mid-write never corrupts the previous cache contents.
func (e *fileEngine) store(col *fileCollection) error {
	if err := os.MkdirAll(filepath.Dir(e.path), 0o750); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.Marshal(col)
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}
	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write tmp: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename tmp: %w", err)
	}
	return nil
}

func (e *fileEngine) ListProjects(context.Context) ([]*models.EditorProject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	col, err := e.load()
	if err != nil {
		return nil, err
	}
	sort.Slice(col.Projects, func(i, j int) bool {
		return col.Projects[i].UpdatedAt.After(col.Projects[j].UpdatedAt)
	})
	return col.Projects, nil
}

func (e *fileEngine) GetProject(_ context.Context, id string) (*models.EditorProject, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	col, err := e.load()
	if err != nil {
		return nil, err
	}
	for _, p := range col.Projects {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (e *fileEngine) PutProject(_ context.Context, p *models.EditorProject) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	col, err := e.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range col.Projects {
		if existing.ID == p.ID {
			col.Projects[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		col.Projects = append(col.Projects, p)
	}
	return e.store(col)
}

func (e *fileEngine) DeleteProject(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	col, err := e.load()
	if err != nil {
		return err
	}
	kept := col.Projects[:0]
	for _, p := range col.Projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(col.Projects) {
		return nil // absent id, nothing to rewrite
	}
	col.Projects = kept
	return e.store(col)
}

// Video blobs have no file fallback: writes are dropped, reads are absent.

func (e *fileEngine) PutVideoBlob(context.Context, string, VideoBlob) error {
	return nil
}

func (e *fileEngine) GetVideoBlob(context.Context, string) (*VideoBlob, error) {
	return nil, nil
}

func (e *fileEngine) DeleteVideoBlob(context.Context, string) error {
	return nil
}

func (e *fileEngine) Close() error {
	return nil
}
