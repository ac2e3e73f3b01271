package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/camdenv/website/blog/domain"
)

// GetTags returns the sorted distinct tags across published posts.
func (a *API) GetTags(c *gin.Context) {
	tags, err := a.posts.ListTags(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tags")
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// GetPostsByTag lists published posts carrying the given tag.
func (a *API) GetPostsByTag(c *gin.Context) {
	tag := c.Param("tag")

	posts, err := a.posts.ListPublished(c.Request.Context(), domain.ListOptions{Tag: tag})
	if err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("Failed to list posts by tag")
		c.Status(http.StatusInternalServerError)
		return
	}

	summaries := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, summarize(p))
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "posts": summaries})
}
