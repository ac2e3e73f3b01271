package domain

import (
	"context"
	"time"
)

// SourceRepository reads the content repository that posts are synced from
// (e.g. GitHub). All calls are read-only network operations; failures surface
// as *UpstreamError, with 404s distinguishable via errors.Is(err, ErrNotFound).
type SourceRepository interface {
	// ListPostFiles lists the file paths under the posts/ directory.
	ListPostFiles(ctx context.Context) ([]string, error)
	// GetRawFile fetches the raw text content of a single file.
	GetRawFile(ctx context.Context, path string) (string, error)
	// GetFileHistory returns the commit timestamps touching path, newest
	// first. Used to derive a post's last-modified time.
	GetFileHistory(ctx context.Context, path string) ([]time.Time, error)
}
