// Package render turns transformed markup into HTML with goldmark and derives
// the document outline and title from the same AST.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

type config struct {
	linkRewrite bool
	hardWraps   bool
}

// Option configures a Renderer.
type Option func(*config)

// WithLinkRewrite rewrites relative links to .md files into links to the
// matching .html page, for static export.
func WithLinkRewrite() Option {
	return func(c *config) { c.linkRewrite = true }
}

// WithHardWraps renders soft line breaks as <br>.
func WithHardWraps() Option {
	return func(c *config) { c.hardWraps = true }
}

// Renderer is stateless after construction and safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a goldmark engine with GFM, automatic heading ids and raw HTML
// passthrough. Shortcode output is HTML, so unsafe rendering is required.
func New(opts ...Option) *Renderer {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	parserOptions := []parser.Option{
		parser.WithAutoHeadingID(),
	}
	if cfg.linkRewrite {
		parserOptions = append(parserOptions,
			parser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)))
	}

	rendererOptions := []renderer.Option{html.WithUnsafe()}
	if cfg.hardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parserOptions...),
		goldmark.WithRendererOptions(rendererOptions...),
	}

	return &Renderer{md: goldmark.New(engineOptions...)}
}

// HTML renders markup to an HTML fragment.
func (r *Renderer) HTML(markup string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markup), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
