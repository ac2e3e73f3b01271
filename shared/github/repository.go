package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-github/v75/github"

	"github.com/camdenv/website/blog/domain"
)

const postsDir = "posts"

// ContentRepository is a domain.SourceRepository backed by the GitHub API. It
// is read-only: the content repository stays the source of truth and the
// store is only ever a cache of it.
type ContentRepository struct {
	client *github.Client
	owner  string
	repo   string
}

// NewContentRepository creates a ContentRepository for owner/repo.
func NewContentRepository(client *github.Client, owner string, repo string) *ContentRepository {
	return &ContentRepository{
		client: client,
		owner:  owner,
		repo:   repo,
	}
}

var _ domain.SourceRepository = (*ContentRepository)(nil)

// ListPostFiles lists the file paths under the posts/ directory.
func (g *ContentRepository) ListPostFiles(ctx context.Context) ([]string, error) {
	op := fmt.Sprintf("listing %s/ in %s/%s", postsDir, g.owner, g.repo)
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, postsDir, nil)
	if err != nil {
		return nil, wrapGithubError(op, err)
	}

	if entries == nil {
		return nil, &domain.UpstreamError{Op: op, Err: fmt.Errorf("%s is not a directory", postsDir)}
	}

	var paths []string
	for _, entry := range entries {
		if entry.GetType() != "file" {
			continue
		}
		paths = append(paths, entry.GetPath())
	}
	return paths, nil
}

// GetRawFile fetches the raw text content of a single file. Directories,
// submodules, and undecodable payloads fail with an *domain.UpstreamError.
func (g *ContentRepository) GetRawFile(ctx context.Context, path string) (string, error) {
	op := fmt.Sprintf("getting file %s", path)
	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, nil)
	if err != nil {
		return "", wrapGithubError(op, err)
	}

	if fileContent == nil {
		return "", &domain.UpstreamError{Op: op, Err: fmt.Errorf("%s is not a file", path)}
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", &domain.UpstreamError{Op: op, Err: fmt.Errorf("failed to decode content: %w", err)}
	}

	return content, nil
}

// GetFileHistory returns the commit timestamps touching path, newest first,
// as the GitHub commits API orders them.
func (g *ContentRepository) GetFileHistory(ctx context.Context, path string) ([]time.Time, error) {
	op := fmt.Sprintf("listing commits for %s", path)
	commits, _, err := g.client.Repositories.ListCommits(ctx, g.owner, g.repo, &github.CommitsListOptions{
		Path: path,
	})
	if err != nil {
		return nil, wrapGithubError(op, err)
	}

	history := make([]time.Time, 0, len(commits))
	for _, c := range commits {
		history = append(history, c.GetCommit().GetCommitter().GetDate().Time)
	}
	return history, nil
}

// RepoFullName returns "owner/repo".
func (g *ContentRepository) RepoFullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.repo)
}

// wrapGithubError converts a go-github client error into a structured
// *domain.UpstreamError carrying the upstream status, so callers can tell a
// 404 from a hard failure.
func wrapGithubError(op string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		return &domain.UpstreamError{
			Op:         op,
			StatusCode: errResp.Response.StatusCode,
			Err:        fmt.Errorf("%s", errResp.Message),
		}
	}

	return &domain.UpstreamError{Op: op, Err: err}
}
