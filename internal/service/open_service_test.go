package service

import (
	"context"
	"testing"

	"vidstudio-backend/internal/cache"
	"vidstudio-backend/internal/models"
)

type fakeRemote struct {
	project *models.EditorProject
}

func (f *fakeRemote) GetProject(context.Context, string) *models.EditorProject {
	return f.project
}

type fakeLocal struct {
	project *models.EditorProject
	blob    *cache.VideoBlob
	warmed  *models.EditorProject
}

func (f *fakeLocal) GetProject(context.Context, string) *models.EditorProject {
	return f.project
}

func (f *fakeLocal) PutProject(_ context.Context, p *models.EditorProject) {
	f.warmed = p
}

func (f *fakeLocal) GetVideoBlob(context.Context, string) *cache.VideoBlob {
	return f.blob
}

func TestOpen_PrefersRemoteAndWarmsCache(t *testing.T) {
	remoteCopy := models.NewProject("remote")
	staleCopy := models.NewProject("stale local")
	blob := &cache.VideoBlob{Name: "clip.mp4", MIME: "video/mp4", Data: []byte{1}}

	remote := &fakeRemote{project: remoteCopy}
	local := &fakeLocal{project: staleCopy, blob: blob}

	result, ok := NewProjectOpener(remote, local).Open(context.Background(), remoteCopy.ID)
	if !ok {
		t.Fatal("open failed")
	}
	if result.Project != remoteCopy {
		t.Fatal("remote copy must win over the cached one")
	}
	if result.FromCache {
		t.Fatal("remote-sourced open must not be flagged from_cache")
	}
	if result.Video != blob {
		t.Fatal("cached video blob should ride along")
	}
	if local.warmed == nil || local.warmed.ID != remoteCopy.ID {
		t.Fatal("cache was not warmed with the remote copy")
	}
	if local.warmed == remoteCopy {
		t.Fatal("cache warm-up must use a clone, not the live project")
	}
}

func TestOpen_FallsBackToLocalWhenRemoteAbsent(t *testing.T) {
	cached := models.NewProject("offline")
	local := &fakeLocal{project: cached}

	result, ok := NewProjectOpener(&fakeRemote{}, local).Open(context.Background(), cached.ID)
	if !ok {
		t.Fatal("open should fall back to the local copy")
	}
	if result.Project != cached || !result.FromCache {
		t.Fatal("fallback open must return the cached copy flagged from_cache")
	}
}

func TestOpen_AbsentEverywhere(t *testing.T) {
	_, ok := NewProjectOpener(&fakeRemote{}, &fakeLocal{}).Open(context.Background(), "nope")
	if ok {
		t.Fatal("open must report absence when neither store has the project")
	}
}
