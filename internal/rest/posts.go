package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/camdenv/website/blog/domain"
)

// postSummary is the list-item shape: everything but the body.
type postSummary struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	CreatedAt   string   `json:"createdAt"`
	Tags        []string `json:"tags"`
}

type postDetail struct {
	postSummary
	LastModifiedAt *string `json:"lastModifiedAt"`
	Content        string  `json:"content"` // rendered HTML
}

func summarize(p *domain.PostRecord) postSummary {
	return postSummary{
		Slug:        p.Slug,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		Tags:        p.Tags,
	}
}

// GetPosts lists published posts, newest first. ?limit=N truncates to the N
// most recent, ?tag= filters.
func (a *API) GetPosts(c *gin.Context) {
	var opts domain.ListOptions
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		opts.Limit = limit
	}
	opts.Tag = c.Query("tag")

	posts, err := a.posts.ListPublished(c.Request.Context(), opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list posts")
		c.Status(http.StatusInternalServerError)
		return
	}

	summaries := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, summarize(p))
	}
	c.JSON(http.StatusOK, gin.H{"posts": summaries})
}

// GetPost serves a single post by slug. A renamed post answers with a
// permanent redirect to its current URL; an unknown slug is a 404.
func (a *API) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	page, redirectSlug, err := a.posts.GetPost(c.Request.Context(), slug)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("Failed to get post")
		c.Status(http.StatusInternalServerError)
		return
	}

	if redirectSlug != "" {
		c.Redirect(http.StatusMovedPermanently, "/blog/posts/"+redirectSlug)
		return
	}

	if page == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	detail := postDetail{
		postSummary:    summarize(page.Post),
		LastModifiedAt: page.Post.LastModifiedAt,
		Content:        string(page.HTML),
	}
	c.JSON(http.StatusOK, gin.H{"post": detail})
}
