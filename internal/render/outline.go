package render

import (
	"bytes"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/docshelf/internal/doctree"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Outline builds the heading hierarchy of markup. Heading ids match the ids
// HTML assigns, since both come from the same parser configuration.
func (r *Renderer) Outline(markup string) *doctree.DocTree {
	src := []byte(markup)
	doc := r.md.Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{}

	type stackEntry struct {
		node  *doctree.DocNode
		level int
	}

	// Root is level 0, all h1+ nest under it.
	root := &doctree.DocNode{}
	stack := []stackEntry{{node: root, level: 0}}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		node := &doctree.DocNode{
			Title: headingText(heading, src),
			ID:    headingID(heading),
			Level: heading.Level,
		}
		if tree.Title == "" && heading.Level == 1 {
			tree.Title = node.Title
		}

		// Pop until the top of the stack is a shallower heading.
		for len(stack) > 1 && stack[len(stack)-1].level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, level: heading.Level})
	}

	tree.Children = root.Children
	return tree
}

var std = New()

// Title returns the first level-one heading of markup or, failing that, a
// readable form of the file name in fallbackPath.
func Title(markup, fallbackPath string) string {
	if t := std.Outline(markup).Title; t != "" {
		return t
	}
	return Humanize(fallbackPath)
}

// Humanize turns "ci/merge_trains.md" into "Merge trains".
func Humanize(p string) string {
	name := strings.TrimSuffix(path.Base(p), ".md")
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return ""
}

// headingText collects the literal text of a heading, descending into
// emphasis, links and code spans.
func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var collect func(ast.Node)
	collect = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					buf.WriteByte(' ')
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				collect(c)
			}
		}
	}
	collect(n)
	return strings.TrimSpace(buf.String())
}
