package application

import (
	"context"
	"sync"
	"time"

	"github.com/camdenv/website/blog/domain"
)

// PostCache is an in-memory cache of the published post list and tag set with
// a TTL. The sync paths call Invalidate after every store mutation, so readers
// never serve state older than the last completed sync.
type PostCache struct {
	mu      sync.RWMutex
	posts   []*domain.PostRecord
	tags    []string
	fetched time.Time
	ttl     time.Duration
	repo    domain.PostRepository
}

// NewPostCache creates a PostCache backed by the given repository.
func NewPostCache(repo domain.PostRepository, ttl time.Duration) *PostCache {
	return &PostCache{repo: repo, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

// Published returns the cached published posts and tags, reloading from the
// repository when the cache is empty or expired. It takes a read lock first
// and only upgrades to a write lock when a reload is needed.
func (c *PostCache) Published(ctx context.Context) ([]*domain.PostRecord, []string, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, c.tags, nil
	}

	posts, err := c.repo.ListPublished(ctx, domain.ListOptions{})
	if err != nil {
		return nil, nil, err
	}
	tags, err := c.repo.ListTags(ctx)
	if err != nil {
		return nil, nil, err
	}

	c.posts = posts
	c.tags = tags
	c.fetched = time.Now()
	return posts, tags, nil
}
