package shortcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestTransform_NoShortcodesUnchanged(t *testing.T) {
	inputs := []string{
		"",
		"# Title\n\nPlain *markdown* with {{ braces }} and <div>html</div>.",
		"{{% notice %}} percent shortcodes are not ours {{% /notice %}}",
	}
	for _, in := range inputs {
		require.Equal(t, in, Transform(in))
	}
}

func TestTransform_Details(t *testing.T) {
	got := Transform("before\n{{< details >}}\n\n- **Tier:** Premium\n\n{{< /details >}}\nafter")
	require.Equal(t, "before\n<details class=\"gitlab-details\">\n<summary>📋 Детали</summary>\n\n- **Tier:** Premium\n\n</details>\nafter", got)
}

func TestTransform_Alert(t *testing.T) {
	got := Transform(`{{< alert type="danger" >}}
Do not do this.
{{< /alert >}}`)
	require.Equal(t, "<div class=\"gitlab-alert gitlab-alert-danger\">\n<div class=\"alert-icon\">🚨</div>\n<div class=\"alert-content\">\n\nDo not do this.\n\n</div>\n</div>", got)
}

func TestTransform_AlertSeverities(t *testing.T) {
	for severity, icon := range AlertIcons {
		got := Transform(`{{< alert type="` + severity + `" >}}x{{< /alert >}}`)
		require.Contains(t, got, "gitlab-alert-"+severity)
		require.Contains(t, got, `<div class="alert-icon">`+icon+`</div>`)
	}
}

func TestTransform_AlertUnknownSeverity(t *testing.T) {
	got := Transform(`{{< alert type="unknown" >}}x{{< /alert >}}`)
	require.Contains(t, got, `class="gitlab-alert gitlab-alert-unknown"`)
	require.Contains(t, got, `<div class="alert-icon">📌</div>`)
}

func TestTransform_AlertMissingType(t *testing.T) {
	in := "{{< alert >}}x{{< /alert >}}"
	require.Equal(t, in, Transform(in))
}

func TestTransform_UnterminatedAlert(t *testing.T) {
	in := "intro\n{{< alert type=\"note\" >}}\nnever closed\n\n{{< icon name=\"star\" >}}"
	got := Transform(in)
	require.Contains(t, got, "{{< alert type=\"note\" >}}\nnever closed")
	// The rest of the input is still processed.
	require.True(t, strings.HasSuffix(got, "★"))
}

func TestTransform_UnterminatedBeforeValidBlock(t *testing.T) {
	in := "{{< alert type=\"note\" >}}\nopen\n{{< alert type=\"tip\" >}}\nclosed\n{{< /alert >}}"
	got := Transform(in)
	require.True(t, strings.HasPrefix(got, "{{< alert type=\"note\" >}}\nopen\n<div class=\"gitlab-alert gitlab-alert-tip\">"))
}

func TestTransform_History(t *testing.T) {
	got := Transform("{{< history >}}\n- Introduced in 16.0.\n{{< /history >}}")
	require.Equal(t, "<div class=\"gitlab-history\">\n<div class=\"history-header\">📅 История изменений</div>\n\n- Introduced in 16.0.\n\n</div>", got)
}

func TestTransform_Icons(t *testing.T) {
	require.Equal(t, "★", Transform(`{{< icon name="star" >}}`))
	require.Equal(t, "[bogus]", Transform(`{{< icon name="bogus" >}}`))
	require.Equal(t, "Click ⋮ then ➕.", Transform(`Click {{< icon name="ellipsis_v" >}} then {{< icon name="plus" >}}.`))

	in := "{{< icon >}}"
	require.Equal(t, in, Transform(in))
}

func TestTransform_WhitespaceTolerance(t *testing.T) {
	require.Equal(t, "✓", Transform(`{{<icon   name = "check">}}`))
	got := Transform("{{<details>}}x{{</ details >}}")
	require.Contains(t, got, "<details")
}

type tabsDoc struct {
	buttons []*html.Node
	panes   []*html.Node
}

func parseTabs(t *testing.T, markup string) tabsDoc {
	t.Helper()
	root, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)

	var doc tabsDoc
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "button" && hasClass(n, "tab-button"):
				doc.buttons = append(doc.buttons, n)
			case n.Data == "div" && hasClass(n, "tab-pane"):
				doc.panes = append(doc.panes, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func TestTransform_Tabs(t *testing.T) {
	in := `{{< tabs >}}

{{< tab title="Linux package" >}}

1. Edit /etc/gitlab/gitlab.rb
1. Reconfigure {{< icon name="check" >}}

{{< tab title="Helm chart" >}}

Export values.

{{< tab title="Docker" >}}

Restart the container.

{{< /tabs >}}`

	got := Transform(in)
	doc := parseTabs(t, got)
	require.Len(t, doc.buttons, 3)
	require.Len(t, doc.panes, 3)

	panesByID := map[string]int{}
	for _, p := range doc.panes {
		panesByID[attr(p, "id")]++
	}
	for i, b := range doc.buttons {
		target := attr(b, "data-tab")
		require.Equal(t, 1, panesByID[target], "button %d target %q", i, target)
		require.Equal(t, i == 0, hasClass(b, "active"))
		require.Equal(t, i == 0, hasClass(doc.panes[i], "active"))
		require.Equal(t, target, attr(doc.panes[i], "id"))
	}

	require.Contains(t, got, `data-tab="tab-1-0">▸ Linux package</button>`)
	require.Contains(t, got, "<div class=\"tab-pane active\" id=\"tab-1-0\">\n\n1. Edit /etc/gitlab/gitlab.rb\n1. Reconfigure ✓\n\n</div>")
	require.Contains(t, got, "<div class=\"tab-pane\" id=\"tab-1-2\">\n\nRestart the container.\n\n</div>")
	require.NotContains(t, got, "{{<")
}

func TestTransform_TabsGroupsAreDistinctAndDeterministic(t *testing.T) {
	in := `{{< tabs >}}{{< tab title="A" >}}a{{< /tabs >}}
text
{{< tabs >}}{{< tab title="B" >}}b{{< tab title="C" >}}c{{< /tabs >}}`

	first := Transform(in)
	require.Equal(t, first, Transform(in))

	doc := parseTabs(t, first)
	require.Len(t, doc.buttons, 3)
	require.Equal(t, "tab-1-0", attr(doc.buttons[0], "data-tab"))
	require.Equal(t, "tab-2-0", attr(doc.buttons[1], "data-tab"))
	require.Equal(t, "tab-2-1", attr(doc.buttons[2], "data-tab"))
}

func TestTransform_TabsWithClosingChildren(t *testing.T) {
	in := `{{< tabs >}}
{{< tab title="One" >}}
first
{{< /tab >}}
{{< tab title="Two" >}}
second
{{< /tab >}}
{{< /tabs >}}`
	got := Transform(in)
	require.Contains(t, got, "id=\"tab-1-0\">\n\nfirst\n\n</div>")
	require.Contains(t, got, "id=\"tab-1-1\">\n\nsecond\n\n</div>")
	require.NotContains(t, got, "/tab")
}

func TestTransform_TabsWithoutChildrenUntouched(t *testing.T) {
	in := "{{< tabs >}}\nno children here\n{{< /tabs >}}"
	require.Equal(t, in, Transform(in))
}

func TestTransform_TabMissingTitleUntouched(t *testing.T) {
	in := "{{< tabs >}}{{< tab title=\"A\" >}}a{{< tab >}}b{{< /tabs >}}"
	require.Equal(t, in, Transform(in))
}

func TestTransform_TabTitleEscaped(t *testing.T) {
	got := Transform(`{{< tabs >}}{{< tab title="<b>x</b>" >}}y{{< /tabs >}}`)
	require.Contains(t, got, "▸ &lt;b&gt;x&lt;/b&gt;</button>")
}

func TestTransform_NestedBlocks(t *testing.T) {
	in := "{{< details >}}\n{{< alert type=\"tip\" >}}\nUse {{< icon name=\"star-o\" >}}\n{{< /alert >}}\n{{< /details >}}"
	got := Transform(in)
	require.Contains(t, got, "<details class=\"gitlab-details\">")
	require.Contains(t, got, "<div class=\"gitlab-alert gitlab-alert-tip\">")
	require.Contains(t, got, "Use ⭐")
	require.Equal(t, 0, Remaining(got))
}

func TestNew_CustomOptions(t *testing.T) {
	tr := New(Options{DetailsLabel: "Details", TabIDPrefix: "doc7", ClassPrefix: "kb"})
	got := tr.Transform("{{< details >}}x{{< /details >}}{{< tabs >}}{{< tab title=\"A\" >}}a{{< /tabs >}}")
	require.Contains(t, got, "<details class=\"kb-details\">\n<summary>Details</summary>")
	require.Contains(t, got, `data-tab="doc7-1-0"`)
	require.Contains(t, got, `<div class="kb-tabs">`)
}

func TestRemaining(t *testing.T) {
	require.Equal(t, 0, Remaining("plain"))
	require.Equal(t, 2, Remaining("{{< youtube id=\"x\" >}} and {{< /figure >}}"))
	require.Equal(t, 1, Remaining(Transform("{{< alert >}}x")))
}
