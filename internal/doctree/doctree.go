package doctree

// DocTree is the heading outline of a rendered document.
type DocTree struct {
	Title    string     `json:"title"`              // Document title (frontmatter, first H1 or file name)
	Children []*DocNode `json:"children,omitempty"` // Top-level headings
}

// DocNode is one heading and the headings nested below it.
type DocNode struct {
	Title    string     `json:"title"`              // Heading text
	ID       string     `json:"id,omitempty"`       // Anchor id assigned by the renderer
	Level    int        `json:"level"`              // 1 for h1 ... 6 for h6
	Children []*DocNode `json:"children,omitempty"` // Subsections
}

// Walk calls fn for every node in document order, depth first. Returning
// false from fn skips the node's children.
func (t *DocTree) Walk(fn func(n *DocNode, depth int) bool) {
	if t == nil {
		return
	}
	var walk func(nodes []*DocNode, depth int)
	walk = func(nodes []*DocNode, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t.Children, 0)
}

// Len returns the number of headings in the tree.
func (t *DocTree) Len() int {
	n := 0
	t.Walk(func(*DocNode, int) bool {
		n++
		return true
	})
	return n
}
