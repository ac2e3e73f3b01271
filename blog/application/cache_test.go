package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/camdenv/website/blog/domain"
)

// countingPostRepo wraps fakePostRepo and counts list calls, so the tests can
// observe whether a read was served from cache.
type countingPostRepo struct {
	*fakePostRepo

	mu    sync.Mutex
	lists int
}

func (c *countingPostRepo) ListPublished(ctx context.Context, opts domain.ListOptions) ([]*domain.PostRecord, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.fakePostRepo.ListPublished(ctx, opts)
}

func (c *countingPostRepo) listCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists
}

func newCountingPostRepo() *countingPostRepo {
	return &countingPostRepo{fakePostRepo: newFakePostRepo()}
}

func seedPost(repo *fakePostRepo, path, slug string, tags ...string) {
	repo.posts[path] = &domain.PostRecord{
		Path: path, Slug: slug, Title: slug, CreatedAt: "2023-01-01",
		Tags: tags, Status: domain.StatusPublished,
	}
}

func TestPostCache_ServesFromCache(t *testing.T) {
	repo := newCountingPostRepo()
	seedPost(repo.fakePostRepo, "posts/a.md", "a", "go")
	cache := NewPostCache(repo, time.Minute)
	ctx := context.Background()

	for range 3 {
		posts, tags, err := cache.Published(ctx)
		if err != nil {
			t.Fatalf("Published failed: %v", err)
		}
		if len(posts) != 1 || len(tags) != 1 {
			t.Fatalf("posts = %d, tags = %d", len(posts), len(tags))
		}
	}

	if calls := repo.listCalls(); calls != 1 {
		t.Errorf("Expected 1 repository load, got %d", calls)
	}
}

func TestPostCache_InvalidateForcesReload(t *testing.T) {
	repo := newCountingPostRepo()
	seedPost(repo.fakePostRepo, "posts/a.md", "a")
	cache := NewPostCache(repo, time.Minute)
	ctx := context.Background()

	if _, _, err := cache.Published(ctx); err != nil {
		t.Fatalf("Published failed: %v", err)
	}

	seedPost(repo.fakePostRepo, "posts/b.md", "b")
	cache.Invalidate()

	posts, _, err := cache.Published(ctx)
	if err != nil {
		t.Fatalf("Published failed after Invalidate: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("Expected reload to see 2 posts, got %d", len(posts))
	}
	if calls := repo.listCalls(); calls != 2 {
		t.Errorf("Expected 2 repository loads, got %d", calls)
	}
}

func TestPostCache_ExpiresAfterTTL(t *testing.T) {
	repo := newCountingPostRepo()
	seedPost(repo.fakePostRepo, "posts/a.md", "a")
	cache := NewPostCache(repo, time.Nanosecond)
	ctx := context.Background()

	if _, _, err := cache.Published(ctx); err != nil {
		t.Fatalf("Published failed: %v", err)
	}

	time.Sleep(time.Millisecond)

	if _, _, err := cache.Published(ctx); err != nil {
		t.Fatalf("Published failed after expiry: %v", err)
	}
	if calls := repo.listCalls(); calls != 2 {
		t.Errorf("Expected expired cache to reload, got %d loads", calls)
	}
}
