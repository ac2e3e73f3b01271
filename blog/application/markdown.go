package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const snippetMaxLength = 200

// MarkdownRenderer converts a post's markdown body to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) ([]byte, error)
}

// relativeLinkTransformer rewrites repo-relative links and images in post
// bodies so they resolve against the public site instead of the content
// repository. A link to another post file ("./other-post.md") becomes a post
// URL; a repo-relative image becomes an /images/ URL.
type relativeLinkTransformer struct {
	siteURL string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, linkOk := n.(*ast.Link)
		img, imgOk := n.(*ast.Image)
		if !linkOk && !imgOk {
			return ast.WalkContinue, nil
		}

		dest := ""
		if linkOk {
			dest = string(link.Destination)
		} else {
			dest = string(img.Destination)
		}
		if !isRelativeLink(dest) {
			return ast.WalkContinue, nil
		}

		destFile := path.Base(dest)
		if imgOk {
			img.Destination = []byte(t.siteURL + "/images/" + destFile)
			return ast.WalkContinue, nil
		}

		destFile = strings.TrimSuffix(destFile, ".md")
		destFile = strings.TrimSuffix(destFile, ".html")
		link.Destination = []byte(t.siteURL + "/blog/posts/" + destFile)

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "/") {
		// Protocol-relative URLs point off-site
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "#") {
		return false
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

// GoldmarkRenderer is the production MarkdownRenderer.
type GoldmarkRenderer struct {
	renderer goldmark.Markdown
}

// NewMarkdownRenderer builds a GFM renderer whose relative links resolve
// against siteURL.
func NewMarkdownRenderer(siteURL string) *GoldmarkRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{siteURL: strings.TrimRight(siteURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &GoldmarkRenderer{
		renderer: renderer,
	}
}

func (r *GoldmarkRenderer) Render(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtractSnippet returns the first paragraph of plain prose in markdown,
// truncated on a word boundary. Used as the RSS item description for posts
// whose front matter declares none.
func ExtractSnippet(markdown string) string {
	lines := strings.Split(markdown, "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Skip code blocks, horizontal rules, lists, and tables
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	if len(snippet) > snippetMaxLength {
		snippet = snippet[:snippetMaxLength]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}
