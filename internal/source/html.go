package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLDecoder reads a corpus saved as HTML (for example the rendered
// summaries page) back into markdown-shaped text: headings become "#" lines,
// <hr> becomes the "---" delimiter and <strong> keeps its "**" markers so the
// section anchors survive.
type HTMLDecoder struct{}

func (d *HTMLDecoder) Decode(r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var blocks []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			blocks = append(blocks, s)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				add(strings.Repeat("#", level) + " " + collapse(inlineText(n)))
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "hr":
				add("---")
				return
			case "p", "td", "blockquote", "dt", "dd":
				add(inlineText(n))
				return
			case "li":
				add("- " + strings.TrimSpace(inlineText(n)))
				return
			case "pre":
				add(textContent(n))
				return
			}
		}

		for c := range n.ChildNodes() {
			walk(c)
		}
	}

	root := doc
	if body := findBody(doc); body != nil {
		root = body
	}
	walk(root)

	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

// inlineText renders the inline content of n, keeping line breaks and bold
// markers.
func inlineText(n *html.Node) string {
	var buf strings.Builder
	var render func(*html.Node)
	render = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
			return
		case html.ElementNode:
			switch n.Data {
			case "br":
				buf.WriteString("\n")
				return
			case "strong", "b":
				if t := strings.TrimSpace(textContent(n)); t != "" {
					buf.WriteString("**" + t + "**")
				}
				return
			case "code":
				buf.WriteString("`" + textContent(n) + "`")
				return
			case "script", "style":
				return
			}
		}
		for c := range n.ChildNodes() {
			render(c)
		}
	}
	render(n)

	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// headingLevel returns 1-6 for <h1>..<h6> and 0 for anything else.
func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent concatenates every text node below n.
func textContent(n *html.Node) string {
	var b strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			b.WriteString(d.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

func findBody(doc *html.Node) *html.Node {
	for d := range doc.Descendants() {
		if d.Type == html.ElementNode && d.DataAtom == atom.Body {
			return d
		}
	}
	return nil
}
