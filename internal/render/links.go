package render

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// linkRewriter points relative .md links at the exported .html pages.
type linkRewriter struct{}

func (linkRewriter) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(RewriteLink(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

// RewriteLink maps a relative link to a .md file onto the .html page of the
// same name, keeping any query or fragment. URLs with a scheme or host,
// in-page anchors and links to anything else are returned unchanged.
func RewriteLink(dest string) string {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") || strings.Contains(dest, ":") {
		return dest
	}
	path, rest := dest, ""
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		path, rest = dest[:i], dest[i:]
	}
	if !strings.HasSuffix(path, ".md") {
		return dest
	}
	return strings.TrimSuffix(path, ".md") + ".html" + rest
}
