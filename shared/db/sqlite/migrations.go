package sqlite

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of schema migrations. Each must be
// idempotent and safe to run multiple times.
var migrations = []migration{
	{
		version: 1,
		name:    "create_blog_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS blog_posts (
				path TEXT PRIMARY KEY,
				slug TEXT NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				created_at TEXT NOT NULL,
				last_modified_at TEXT,
				status TEXT NOT NULL,
				tags TEXT NOT NULL,
				content TEXT NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_blog_posts_slug
			ON blog_posts(slug);

			CREATE INDEX IF NOT EXISTS idx_blog_posts_created_at
			ON blog_posts(status, created_at DESC);
		`,
	},
}

// runMigrations executes all pending migrations, tracking progress in the
// schema_migrations table.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}

		if _, err := tx.Exec(m.up); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
			m.version,
			m.name,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
