package domain

import (
	"context"
)

// PostStatus controls whether a post appears in listings and feeds.
type PostStatus string

const (
	// StatusPublished posts appear in listings, tag pages, RSS, and the sitemap.
	StatusPublished PostStatus = "published"
	// StatusUnlisted posts are fetchable by slug but excluded from all listings.
	StatusUnlisted PostStatus = "unlisted"
)

// Valid reports whether s is a known status value.
func (s PostStatus) Valid() bool {
	return s == StatusPublished || s == StatusUnlisted
}

// PostRecord is a blog post as stored and served.
// Path is the authoritative identity: it is the file's location in the content
// repository and stays stable even when the slug or title change.
type PostRecord struct {
	Path           string
	Slug           string
	Title          string
	Description    *string
	CreatedAt      string // ISO-8601 date, e.g. "2023-01-15"
	LastModifiedAt *string
	Tags           []string
	Status         PostStatus
	Content        string // raw markdown body, front matter stripped
}

// Published reports whether the post should appear in listings.
func (p *PostRecord) Published() bool {
	return p.Status == StatusPublished
}

// HasTag reports whether the post carries the given tag.
func (p *PostRecord) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListOptions narrows a published-post listing.
type ListOptions struct {
	// Limit truncates the result to the N most recent posts. Zero means all.
	Limit int
	// Tag, when non-empty, filters to posts whose tag set contains it.
	Tag string
}

// PostRepository is the persisted post store. The sync orchestrator is the
// only writer; read paths are read-only consumers.
//
// A missing post is not an error: GetBySlug returns (nil, nil) on a miss so
// callers can decide between a 404 page and the slug-redirect fallback.
type PostRepository interface {
	GetBySlug(ctx context.Context, slug string) (*PostRecord, error)
	ListPublished(ctx context.Context, opts ListOptions) ([]*PostRecord, error)
	ListTags(ctx context.Context) ([]string, error)

	// Upsert replaces any existing rows sharing the batch's paths with the
	// given records, in a single transaction.
	Upsert(ctx context.Context, records []*PostRecord) error
	// DeleteByPath removes rows matching the given paths. Paths with no
	// matching row are a no-op, not an error.
	DeleteByPath(ctx context.Context, paths []string) error
	// ReplaceAll clears the store and inserts the given records, in a single
	// transaction. Used by the full-resync path.
	ReplaceAll(ctx context.Context, records []*PostRecord) error
}
