package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/camdenv/website/blog/application"
	"github.com/camdenv/website/internal/config"
)

// API serves the read-facing blog routes. It is a read-only consumer of the
// post service; all writes happen through the sync pipeline.
type API struct {
	posts *application.PostService
	cfg   *config.Config
}

// NewAPI creates the read-path handler set.
func NewAPI(posts *application.PostService, cfg *config.Config) *API {
	return &API{posts: posts, cfg: cfg}
}

func (a *API) RegisterRoutes(r *gin.Engine) {
	blog := r.Group("/blog")
	{
		blog.GET("/posts", a.GetPosts)
		blog.GET("/posts/:slug", a.GetPost)
		blog.GET("/tags", a.GetTags)
		blog.GET("/tags/:tag", a.GetPostsByTag)
		blog.GET("/rss.xml", a.GetRSS)
	}
	r.GET("/sitemap.txt", a.GetSitemap)
}
