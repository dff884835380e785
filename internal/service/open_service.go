// internal/service/open_service.go
package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"vidstudio-backend/internal/cache"
	"vidstudio-backend/internal/models"
)

// remoteStore is the slice of the remote project store the opener needs.
type remoteStore interface {
	GetProject(ctx context.Context, id string) *models.EditorProject
}

// localCache is the slice of the local cache the opener needs.
type localCache interface {
	GetProject(ctx context.Context, id string) *models.EditorProject
	PutProject(ctx context.Context, p *models.EditorProject)
	GetVideoBlob(ctx context.Context, projectID string) *cache.VideoBlob
}

// OpenResult is everything the editor needs to reopen a project: the
// document plus, when cached, the raw source video so it need not be
// re-fetched.
type OpenResult struct {
	Project *models.EditorProject
	Video   *cache.VideoBlob
	// FromCache marks that the document came from the local cache because
	// the remote store had no copy (offline or never synced). Cached copies
	// can be stale — the remote store is the source of truth.
	FromCache bool
}

// ProjectOpener implements the open policy: prefer the remote document so
// reconstructed state is complete, fall back to local-only data when remote
// is unreachable, and warm the local cache with the remote copy on success.
type ProjectOpener struct {
	remote remoteStore
	local  localCache
}

func NewProjectOpener(remote remoteStore, local localCache) *ProjectOpener {
	return &ProjectOpener{remote: remote, local: local}
}

// Open fetches the remote document and the cached video blob concurrently.
// ok=false means the project exists in neither store.
func (o *ProjectOpener) Open(ctx context.Context, id string) (*OpenResult, bool) {
	var (
		remote *models.EditorProject
		blob   *cache.VideoBlob
	)

	// Both fetches are failure-opaque (absent, never an error), so the group
	// is used purely for the concurrent fan-out.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		remote = o.remote.GetProject(gctx, id)
		return nil
	})
	g.Go(func() error {
		blob = o.local.GetVideoBlob(gctx, id)
		return nil
	})
	_ = g.Wait()

	if remote != nil {
		// Clone: PutProject stamps its own updated_at, which must not leak
		// into the copy handed to the editor.
		o.local.PutProject(ctx, remote.Clone())
		return &OpenResult{Project: remote, Video: blob}, true
	}

	cached := o.local.GetProject(ctx, id)
	if cached == nil {
		return nil, false
	}
	return &OpenResult{Project: cached, Video: blob, FromCache: true}, true
}
