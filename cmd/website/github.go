package main

import (
	"github.com/google/go-github/v75/github"

	"github.com/camdenv/website/internal/config"
	gh "github.com/camdenv/website/shared/github"
)

// newContentRepository builds the GitHub-backed content source. The token is
// optional; without it reads go through the unauthenticated rate limit.
func newContentRepository(cfg *config.Config) *gh.ContentRepository {
	client := github.NewClient(nil)
	if cfg.GitHubToken != "" {
		client = client.WithAuthToken(cfg.GitHubToken)
	}
	return gh.NewContentRepository(client, cfg.GitHubOwner, cfg.GitHubRepo)
}
