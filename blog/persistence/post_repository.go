package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/camdenv/website/blog/domain"
	"github.com/camdenv/website/shared/db"
)

var _ domain.PostRepository = (*SQLitePostRepository)(nil)

// SQLitePostRepository implements domain.PostRepository over a blog_posts
// table keyed by path. Multi-row mutations run inside one transaction so
// readers never observe a partially applied batch.
type SQLitePostRepository struct {
	db *sql.DB
}

// NewPostRepository creates a SQLitePostRepository from a standard sql.DB.
func NewPostRepository(db *sql.DB) *SQLitePostRepository {
	return &SQLitePostRepository{
		db: db,
	}
}

const postColumns = "path, slug, title, description, created_at, last_modified_at, status, tags, content"

const getBySlugQuery = `
	SELECT ` + postColumns + `
	FROM blog_posts
	WHERE slug = ?
`

// GetBySlug retrieves a single post by its URL-facing slug. A miss is not an
// error: both results are nil.
func (r *SQLitePostRepository) GetBySlug(ctx context.Context, slug string) (*domain.PostRecord, error) {
	if slug == "" {
		return nil, &domain.StoreError{Op: "get post", Err: fmt.Errorf("slug cannot be empty")}
	}

	var row postRow
	err := r.db.QueryRowContext(ctx, getBySlugQuery, slug).Scan(row.fields()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get post", Err: err}
	}

	return row.toDomain()
}

const listPublishedQuery = `
	SELECT ` + postColumns + `
	FROM blog_posts
	WHERE status = ?
	ORDER BY created_at DESC
`

// ListPublished retrieves published posts ordered by creation date descending.
// The tag filter matches against the JSON-encoded tag array; the limit
// truncates to the N most recent.
func (r *SQLitePostRepository) ListPublished(ctx context.Context, opts domain.ListOptions) ([]*domain.PostRecord, error) {
	query := listPublishedQuery
	args := []any{string(domain.StatusPublished)}

	if opts.Tag != "" {
		query = strings.Replace(query, "ORDER BY", "AND tags LIKE ?\n\tORDER BY", 1)
		args = append(args, `%"`+opts.Tag+`"%`)
	}
	if opts.Limit > 0 {
		query += "\tLIMIT ?\n"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "list published posts", Err: err}
	}
	defer rows.Close()

	posts := make([]*domain.PostRecord, 0)
	for rows.Next() {
		var row postRow
		if err := rows.Scan(row.fields()...); err != nil {
			return nil, &domain.StoreError{Op: "scan post row", Err: err}
		}
		post, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate post rows", Err: err}
	}

	return posts, nil
}

const listTagsQuery = `
	SELECT tags FROM blog_posts WHERE status = ?
`

// ListTags returns the union of tags across published posts, sorted ascending.
func (r *SQLitePostRepository) ListTags(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, listTagsQuery, string(domain.StatusPublished))
	if err != nil {
		return nil, &domain.StoreError{Op: "list tags", Err: err}
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, &domain.StoreError{Op: "scan tags row", Err: err}
		}
		tags, err := decodeTags(encoded)
		if err != nil {
			return nil, err
		}
		for _, t := range tags {
			seen[t] = struct{}{}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "iterate tags rows", Err: err}
	}

	result := make([]string, 0, len(seen))
	for t := range seen {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

const insertPostQuery = `
	INSERT INTO blog_posts (` + postColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Upsert replaces any existing rows sharing the batch's paths with the given
// records, as delete-then-insert inside one transaction. A changed slug for
// the same path is therefore reflected correctly, and no two rows ever share
// a path.
func (r *SQLitePostRepository) Upsert(ctx context.Context, records []*domain.PostRecord) error {
	if len(records) == 0 {
		return nil
	}

	paths := make([]string, len(records))
	for i, rec := range records {
		if rec.Path == "" {
			return &domain.StoreError{Op: "upsert posts", Err: fmt.Errorf("record path cannot be empty")}
		}
		paths[i] = rec.Path
	}

	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.ExecutorFrom(txCtx, r.db)

		query, args := deleteByPathStatement(paths)
		if _, err := executor.ExecContext(txCtx, query, args...); err != nil {
			return err
		}

		for _, rec := range records {
			row, err := rowFromDomain(rec)
			if err != nil {
				return err
			}
			if _, err := executor.ExecContext(txCtx, insertPostQuery, row.values()...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.StoreError{Op: "upsert posts", Err: err}
	}
	return nil
}

// DeleteByPath removes rows matching any of the given paths. Paths with no
// matching row are a no-op.
func (r *SQLitePostRepository) DeleteByPath(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	query, args := deleteByPathStatement(paths)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return &domain.StoreError{Op: "delete posts", Err: err}
	}
	return nil
}

// ReplaceAll clears the table and inserts the given records in one
// transaction. Used by the full-resync path.
func (r *SQLitePostRepository) ReplaceAll(ctx context.Context, records []*domain.PostRecord) error {
	err := db.RunInTransaction(ctx, r.db, func(txCtx context.Context) error {
		executor := db.ExecutorFrom(txCtx, r.db)

		if _, err := executor.ExecContext(txCtx, "DELETE FROM blog_posts"); err != nil {
			return err
		}

		for _, rec := range records {
			row, err := rowFromDomain(rec)
			if err != nil {
				return err
			}
			if _, err := executor.ExecContext(txCtx, insertPostQuery, row.values()...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.StoreError{Op: "replace posts", Err: err}
	}
	return nil
}

func deleteByPathStatement(paths []string) (string, []any) {
	placeholders := strings.Repeat("?, ", len(paths))
	placeholders = strings.TrimSuffix(placeholders, ", ")
	args := make([]any, len(paths))
	for i, p := range paths {
		args[i] = p
	}
	return "DELETE FROM blog_posts WHERE path IN (" + placeholders + ")", args
}

// postRow mirrors a blog_posts row, with sql.NullString for the nullable
// columns and tags held in their JSON-encoded form.
type postRow struct {
	Path           string
	Slug           string
	Title          string
	Description    sql.NullString
	CreatedAt      string
	LastModifiedAt sql.NullString
	Status         string
	Tags           string
	Content        string
}

func (pr *postRow) fields() []any {
	return []any{
		&pr.Path,
		&pr.Slug,
		&pr.Title,
		&pr.Description,
		&pr.CreatedAt,
		&pr.LastModifiedAt,
		&pr.Status,
		&pr.Tags,
		&pr.Content,
	}
}

func (pr *postRow) values() []any {
	return []any{
		pr.Path,
		pr.Slug,
		pr.Title,
		pr.Description,
		pr.CreatedAt,
		pr.LastModifiedAt,
		pr.Status,
		pr.Tags,
		pr.Content,
	}
}

func (pr *postRow) toDomain() (*domain.PostRecord, error) {
	tags, err := decodeTags(pr.Tags)
	if err != nil {
		return nil, err
	}

	post := &domain.PostRecord{
		Path:      pr.Path,
		Slug:      pr.Slug,
		Title:     pr.Title,
		CreatedAt: pr.CreatedAt,
		Status:    domain.PostStatus(pr.Status),
		Tags:      tags,
		Content:   pr.Content,
	}

	if pr.Description.Valid {
		desc := pr.Description.String
		post.Description = &desc
	}
	if pr.LastModifiedAt.Valid {
		ts := pr.LastModifiedAt.String
		post.LastModifiedAt = &ts
	}

	return post, nil
}

func rowFromDomain(p *domain.PostRecord) (*postRow, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags for %s: %w", p.Path, err)
	}

	row := &postRow{
		Path:      p.Path,
		Slug:      p.Slug,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		Status:    string(p.Status),
		Tags:      string(encoded),
		Content:   p.Content,
	}

	if p.Description != nil {
		row.Description = sql.NullString{String: *p.Description, Valid: true}
	}
	if p.LastModifiedAt != nil {
		row.LastModifiedAt = sql.NullString{String: *p.LastModifiedAt, Valid: true}
	}

	return row, nil
}

func decodeTags(encoded string) ([]string, error) {
	var tags []string
	if err := json.Unmarshal([]byte(encoded), &tags); err != nil {
		return nil, &domain.StoreError{Op: "decode tags", Err: err}
	}
	return tags, nil
}
