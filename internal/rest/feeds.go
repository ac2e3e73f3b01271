package rest

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/camdenv/website/blog/application"
	"github.com/camdenv/website/blog/domain"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// GetRSS serves the RSS 2.0 feed of published posts.
func (a *API) GetRSS(c *gin.Context) {
	posts, err := a.posts.ListPublished(c.Request.Context(), domain.ListOptions{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build RSS feed")
		c.Status(http.StatusInternalServerError)
		return
	}

	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := a.postURL(p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: itemDescription(p),
			PubDate:     pubDate(p.CreatedAt),
			GUID:        postURL,
		})
	}

	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.cfg.SiteName,
			Link:        a.cfg.SiteURL,
			Description: a.cfg.SiteDescription,
			Items:       items,
		},
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Status(http.StatusOK)
	c.Writer.WriteString(xml.Header)
	if err := xml.NewEncoder(c.Writer).Encode(feed); err != nil {
		log.Error().Err(err).Msg("Failed to encode RSS feed")
	}
}

// GetSitemap serves the sitemap as a flat text URL list: home, blog index,
// each published post, each tag page.
func (a *API) GetSitemap(c *gin.Context) {
	ctx := c.Request.Context()

	posts, err := a.posts.ListPublished(ctx, domain.ListOptions{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to build sitemap")
		c.Status(http.StatusInternalServerError)
		return
	}
	tags, err := a.posts.ListTags(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build sitemap")
		c.Status(http.StatusInternalServerError)
		return
	}

	var sb strings.Builder
	sb.WriteString(a.cfg.SiteURL + "\n")
	sb.WriteString(a.cfg.SiteURL + "/blog\n")
	for _, p := range posts {
		sb.WriteString(a.postURL(p.Slug) + "\n")
	}
	for _, t := range tags {
		sb.WriteString(a.cfg.SiteURL + "/blog/tags/" + t + "\n")
	}

	c.String(http.StatusOK, sb.String())
}

// postURL builds a post's canonical URL, matching the registered detail route
// and the target of the rename redirect.
func (a *API) postURL(slug string) string {
	return a.cfg.SiteURL + "/blog/posts/" + slug
}

// itemDescription prefers the front-matter description and falls back to the
// post's first paragraph.
func itemDescription(p *domain.PostRecord) string {
	if p.Description != nil && *p.Description != "" {
		return *p.Description
	}
	return application.ExtractSnippet(p.Content)
}

// pubDate formats a post's creation date for RSS. Posts declare either a
// plain date or a full timestamp.
func pubDate(createdAt string) string {
	if t, err := time.Parse("2006-01-02", createdAt); err == nil {
		return t.Format(time.RFC1123Z)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		return t.Format(time.RFC1123Z)
	}
	return ""
}
