package config

import (
	"fmt"
	"os"
	"time"
)

// Config carries everything the server and sync pipeline need from the
// environment. The sync orchestrator and content client take their settings
// from here explicitly; nothing reads ambient request state.
type Config struct {
	SiteName        string // site title, used by the RSS channel
	SiteURL         string // canonical base URL, no trailing slash
	SiteDescription string

	Addr string // listen address

	GitHubOwner   string // content repository owner
	GitHubRepo    string // content repository name
	GitHubToken   string // optional API token
	WebhookSecret string // shared HMAC key for push notifications

	CacheTTL time.Duration

	// RedirectUnlisted controls whether the slug-redirect fallback resolves
	// posts whose current front matter marks them unlisted.
	RedirectUnlisted bool
}

// FromEnv loads configuration from the environment, applying defaults for
// everything except the content repository coordinates.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SiteName:         getenv("SITE_NAME", "Blog"),
		SiteURL:          getenv("SITE_URL", "http://localhost:8080"),
		SiteDescription:  os.Getenv("SITE_DESCRIPTION"),
		Addr:             getenv("LISTEN_ADDR", ":8080"),
		GitHubOwner:      os.Getenv("GITHUB_OWNER"),
		GitHubRepo:       os.Getenv("GITHUB_REPO"),
		GitHubToken:      os.Getenv("GITHUB_TOKEN"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		CacheTTL:         5 * time.Minute,
		RedirectUnlisted: os.Getenv("REDIRECT_UNLISTED") != "false",
	}

	if raw := os.Getenv("CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", raw, err)
		}
		cfg.CacheTTL = ttl
	}

	if cfg.GitHubOwner == "" || cfg.GitHubRepo == "" {
		return nil, fmt.Errorf("GITHUB_OWNER and GITHUB_REPO must be set")
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
