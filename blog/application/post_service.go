package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"

	"github.com/camdenv/website/blog/domain"
)

const (
	postsDir = "posts/"

	// Changed files from one push are fetched with this much parallelism.
	// The fetches are independent reads, so fanning out is safe; the store
	// mutation afterwards is a single transaction.
	fetchConcurrency = 5
)

// PostPage is a post plus its rendered body, as served by the detail route.
type PostPage struct {
	Post *domain.PostRecord
	HTML []byte
}

// PostService owns the blog read path and both sync entry points. It is the
// only writer to the post repository.
//
// Two webhook deliveries racing against the same paths is an accepted gap:
// each sync's store mutations are transactional, but there is no mutual
// exclusion across concurrent invocations.
type PostService struct {
	repo     domain.PostRepository
	source   domain.SourceRepository
	markdown MarkdownRenderer
	cache    *PostCache

	// redirectUnlisted controls whether the slug-redirect fallback will
	// resolve posts whose current front matter marks them unlisted.
	redirectUnlisted bool
}

// NewPostService wires the read path and sync orchestrator together.
func NewPostService(repo domain.PostRepository, source domain.SourceRepository, markdown MarkdownRenderer, cache *PostCache, redirectUnlisted bool) *PostService {
	return &PostService{
		repo:             repo,
		source:           source,
		markdown:         markdown,
		cache:            cache,
		redirectUnlisted: redirectUnlisted,
	}
}

// GetPost serves the post detail read path. On a store hit it returns the
// rendered page. On a miss it assumes the slug is stale, resolves the file at
// posts/<slug> against the content repository, and returns the post's current
// slug so the caller can issue a permanent redirect. A genuine upstream 404
// means the post does not exist: both results are nil.
func (s *PostService) GetPost(ctx context.Context, slug string) (*PostPage, string, error) {
	post, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, "", err
	}

	if post == nil {
		return s.resolveStaleSlug(ctx, slug)
	}

	return s.renderPage(post)
}

func (s *PostService) resolveStaleSlug(ctx context.Context, slug string) (*PostPage, string, error) {
	record, err := s.loadPost(ctx, postsDir+slug)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	if record.Status == domain.StatusUnlisted && !s.redirectUnlisted {
		return nil, "", nil
	}

	if record.Slug == slug {
		// The store is lagging behind the content repository within a push's
		// propagation delay. Serve the fresh record instead of redirecting a
		// request back to itself.
		return s.renderPage(record)
	}

	return nil, record.Slug, nil
}

func (s *PostService) renderPage(post *domain.PostRecord) (*PostPage, string, error) {
	html, err := s.markdown.Render([]byte(post.Content))
	if err != nil {
		return nil, "", fmt.Errorf("failed to render post %s: %w", post.Path, err)
	}
	return &PostPage{Post: post, HTML: html}, "", nil
}

// ListPublished returns published posts, newest first, optionally filtered by
// tag and truncated to the most recent limit posts.
func (s *PostService) ListPublished(ctx context.Context, opts domain.ListOptions) ([]*domain.PostRecord, error) {
	posts, _, err := s.cache.Published(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Tag != "" {
		filtered := make([]*domain.PostRecord, 0, len(posts))
		for _, p := range posts {
			if p.HasTag(opts.Tag) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	if opts.Limit > 0 && len(posts) > opts.Limit {
		posts = posts[:opts.Limit]
	}

	return posts, nil
}

// ListTags returns the sorted distinct tags across published posts.
func (s *PostService) ListTags(ctx context.Context) ([]string, error) {
	_, tags, err := s.cache.Published(ctx)
	return tags, err
}

// changeSet is the net effect of one push event on the posts/ directory.
type changeSet struct {
	toUpsert []string
	toRemove []string
}

// flattenPushEvent reduces a push event's per-commit file-change lists into a
// single deterministic change set. Commits are processed in event order with
// last-write-wins per path: an add or modify schedules an upsert and cancels a
// pending removal, a removal schedules a delete and cancels a pending upsert.
// A file that exists transiently within the push but is gone by HEAD therefore
// ends up removed, never upserted.
func flattenPushEvent(evt *github.PushEvent) changeSet {
	upsert := make(map[string]bool)
	remove := make(map[string]bool)
	var order []string

	track := func(path string) {
		if !upsert[path] && !remove[path] {
			order = append(order, path)
		}
	}

	for _, commit := range evt.Commits {
		for _, path := range commit.Added {
			if !isPostFile(path) {
				continue
			}
			track(path)
			upsert[path] = true
			remove[path] = false
		}
		for _, path := range commit.Modified {
			if !isPostFile(path) {
				continue
			}
			track(path)
			upsert[path] = true
			remove[path] = false
		}
		for _, path := range commit.Removed {
			if !isPostFile(path) {
				continue
			}
			track(path)
			upsert[path] = false
			remove[path] = true
		}
	}

	var cs changeSet
	for _, path := range order {
		switch {
		case remove[path]:
			cs.toRemove = append(cs.toRemove, path)
		case upsert[path]:
			cs.toUpsert = append(cs.toUpsert, path)
		}
	}
	return cs
}

func isPostFile(path string) bool {
	return strings.HasPrefix(path, postsDir) && len(path) > len(postsDir)
}

// HandlePushEvent applies one verified push event to the store.
//
// Deletes are applied first and unconditionally, so a path that was both
// rewritten and removed within one event never races and a renamed file never
// exists under two paths at once. If any changed file fails to fetch or parse
// the whole call fails without upserting anything; the webhook handler
// surfaces that as a 5xx so the event is redelivered.
func (s *PostService) HandlePushEvent(ctx context.Context, evt *github.PushEvent) error {
	cs := flattenPushEvent(evt)
	if len(cs.toRemove) == 0 && len(cs.toUpsert) == 0 {
		return nil
	}

	log.Info().
		Int("upserts", len(cs.toUpsert)).
		Int("removals", len(cs.toRemove)).
		Str("ref", evt.GetRef()).
		Msg("Applying push event")

	mutated := false
	defer func() {
		if mutated {
			s.cache.Invalidate()
		}
	}()

	if len(cs.toRemove) > 0 {
		if err := s.repo.DeleteByPath(ctx, cs.toRemove); err != nil {
			return fmt.Errorf("failed to delete removed posts: %w", err)
		}
		mutated = true
	}

	if len(cs.toUpsert) == 0 {
		return nil
	}

	records, err := s.fetchPosts(ctx, cs.toUpsert)
	if err != nil {
		return err
	}

	if err := s.repo.Upsert(ctx, records); err != nil {
		return fmt.Errorf("failed to upsert changed posts: %w", err)
	}
	mutated = true

	return nil
}

// FullResync replaces the entire store with the current contents of the
// content repository's posts/ directory. Used for cold-start and backfill,
// never triggered by user traffic.
func (s *PostService) FullResync(ctx context.Context) error {
	paths, err := s.source.ListPostFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list post files: %w", err)
	}

	records, err := s.fetchPosts(ctx, paths)
	if err != nil {
		return err
	}

	if err := s.repo.ReplaceAll(ctx, records); err != nil {
		return fmt.Errorf("failed to replace store contents: %w", err)
	}
	s.cache.Invalidate()

	log.Info().Int("posts", len(records)).Msg("Full resync complete")
	return nil
}

// fetchPosts loads the given paths from the content repository with a bounded
// worker pool. Any individual failure fails the whole batch.
func (s *PostService) fetchPosts(ctx context.Context, paths []string) ([]*domain.PostRecord, error) {
	pathChan := make(chan string, len(paths))
	for _, p := range paths {
		pathChan <- p
	}
	close(pathChan)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		records  []*domain.PostRecord
		firstErr error
	)

	workers := fetchConcurrency
	if len(paths) < workers {
		workers = len(paths)
	}

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range pathChan {
				mu.Lock()
				failed := firstErr != nil
				mu.Unlock()
				if failed {
					return
				}

				record, err := s.loadPost(ctx, path)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("failed to load %s: %w", path, err)
					}
				} else {
					records = append(records, record)
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return records, nil
}

// loadPost is the composite fetch: raw file contents, parsed front matter,
// and commit history for the last-modified timestamp.
func (s *PostService) loadPost(ctx context.Context, path string) (*domain.PostRecord, error) {
	raw, err := s.source.GetRawFile(ctx, path)
	if err != nil {
		return nil, err
	}

	attrs, body, err := ParseFrontMatter(raw)
	if err != nil {
		return nil, err
	}

	history, err := s.source.GetFileHistory(ctx, path)
	if err != nil {
		return nil, err
	}

	return &domain.PostRecord{
		Path:           path,
		Slug:           attrs.Slug,
		Title:          attrs.Title,
		Description:    attrs.Description,
		CreatedAt:      attrs.CreatedAt,
		LastModifiedAt: lastModifiedAt(history),
		Tags:           attrs.Tags,
		Status:         attrs.Status,
		Content:        body,
	}, nil
}

// lastModifiedAt derives the last-modified timestamp from a file's commit
// history, newest first. A file with fewer than two commits has only ever
// been created, never modified, so the result is nil.
func lastModifiedAt(history []time.Time) *string {
	if len(history) < 2 {
		return nil
	}
	ts := history[0].UTC().Format(time.RFC3339)
	return &ts
}
