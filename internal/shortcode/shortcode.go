// Package shortcode rewrites the Hugo shortcodes used by the GitLab docs
// (details, alert, history, tabs and icon) into HTML blocks that a CommonMark
// renderer passes through, keeping the inner content as markdown.
//
// Malformed shortcodes (unterminated blocks, missing required attributes) are
// left in the output verbatim. Transform never fails.
package shortcode

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Options controls the fixed labels and the generated names.
type Options struct {
	DetailsLabel string `yaml:"details_label"`
	HistoryLabel string `yaml:"history_label"`
	TabIDPrefix  string `yaml:"tab_id_prefix"`
	ClassPrefix  string `yaml:"class_prefix"`
}

// DefaultOptions returns the labels of the original GitLab docs viewer.
func DefaultOptions() Options {
	return Options{
		DetailsLabel: "📋 Детали",
		HistoryLabel: "📅 История изменений",
		TabIDPrefix:  "tab",
		ClassPrefix:  "gitlab",
	}
}

// AlertIcons maps alert severities to their icon.
var AlertIcons = map[string]string{
	"note":    "📝",
	"warning": "⚠️",
	"info":    "ℹ️",
	"danger":  "🚨",
	"tip":     "💡",
}

// FallbackAlertIcon is used for severities missing from AlertIcons.
const FallbackAlertIcon = "📌"

// Icons maps icon shortcode names to unicode glyphs.
var Icons = map[string]string{
	"plus":            "➕",
	"star-o":          "⭐",
	"star":            "★",
	"ellipsis_v":      "⋮",
	"check":           "✓",
	"times":           "✕",
	"arrow-right":     "→",
	"arrow-left":      "←",
	"info-circle":     "ℹ️",
	"warning":         "⚠️",
	"question-circle": "❓",
}

var (
	detailsOpen  = openTag("details")
	detailsClose = closeTag("details")
	alertOpen    = openTag("alert")
	alertClose   = closeTag("alert")
	historyOpen  = openTag("history")
	historyClose = closeTag("history")
	tabsOpen     = openTag("tabs")
	tabsClose    = closeTag("tabs")
	tabOpen      = openTag("tab")
	tabClose     = closeTag("tab")
	iconTag      = openTag("icon")
)

// Transformer rewrites shortcodes. It holds no mutable state and is safe for
// concurrent use.
type Transformer struct {
	opts Options
}

// New returns a Transformer. Empty option fields fall back to DefaultOptions.
func New(opts Options) *Transformer {
	d := DefaultOptions()
	if opts.DetailsLabel == "" {
		opts.DetailsLabel = d.DetailsLabel
	}
	if opts.HistoryLabel == "" {
		opts.HistoryLabel = d.HistoryLabel
	}
	if opts.TabIDPrefix == "" {
		opts.TabIDPrefix = d.TabIDPrefix
	}
	if opts.ClassPrefix == "" {
		opts.ClassPrefix = d.ClassPrefix
	}
	return &Transformer{opts: opts}
}

var std = New(DefaultOptions())

// Transform rewrites body with the default options.
func Transform(body string) string {
	return std.Transform(body)
}

// Transform rewrites every known shortcode in body. Block tags are handled
// before the inline icon tag, one tag type per pass.
func (t *Transformer) Transform(body string) string {
	out := body
	out = rewrite(out, findBlocks(out, "details", detailsOpen, detailsClose), t.details)
	out = rewrite(out, findBlocks(out, "alert", alertOpen, alertClose), t.alert)
	out = rewrite(out, findBlocks(out, "history", historyOpen, historyClose), t.history)

	// Group ids are counted per call so output is reproducible.
	groups := 0
	out = rewrite(out, findBlocks(out, "tabs", tabsOpen, tabsClose), func(m match) (string, bool) {
		m.children = findTabs(m.inner)
		if len(m.children) == 0 {
			return "", false
		}
		for _, c := range m.children {
			if c.attrs["title"] == "" {
				return "", false
			}
		}
		groups++
		return t.tabs(m, fmt.Sprintf("%s-%d", t.opts.TabIDPrefix, groups)), true
	})

	out = rewrite(out, findInline(out, "icon", iconTag), icon)
	return out
}

func (t *Transformer) class(name string) string {
	return t.opts.ClassPrefix + "-" + name
}

func (t *Transformer) details(m match) (string, bool) {
	return fmt.Sprintf("<details class=\"%s\">\n<summary>%s</summary>\n\n%s\n\n</details>",
		t.class("details"), t.opts.DetailsLabel, strings.TrimSpace(m.inner)), true
}

func (t *Transformer) alert(m match) (string, bool) {
	severity := m.attrs["type"]
	if severity == "" {
		return "", false
	}
	glyph, ok := AlertIcons[severity]
	if !ok {
		glyph = FallbackAlertIcon
	}
	return fmt.Sprintf("<div class=\"%s %s-%s\">\n<div class=\"alert-icon\">%s</div>\n<div class=\"alert-content\">\n\n%s\n\n</div>\n</div>",
		t.class("alert"), t.class("alert"), html.EscapeString(severity), glyph, strings.TrimSpace(m.inner)), true
}

func (t *Transformer) history(m match) (string, bool) {
	return fmt.Sprintf("<div class=\"%s\">\n<div class=\"history-header\">%s</div>\n\n%s\n\n</div>",
		t.class("history"), t.opts.HistoryLabel, strings.TrimSpace(m.inner)), true
}

// findTabs collects child tab openers in a single forward scan and derives
// each child's content from the gap up to the next opener. Children carry no
// closing tag of their own; a stray {{< /tab >}} ends the content early.
func findTabs(inner string) []match {
	locs := tabOpen.FindAllStringSubmatchIndex(inner, -1)
	children := make([]match, 0, len(locs))
	for i, loc := range locs {
		end := len(inner)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		content := inner[loc[1]:end]
		if c := tabClose.FindStringIndex(content); c != nil {
			content = content[:c[0]]
		}
		children = append(children, match{
			start: loc[0],
			end:   end,
			name:  "tab",
			attrs: parseAttrs(inner[loc[2]:loc[3]]),
			inner: strings.TrimSpace(content),
		})
	}
	return children
}

func (t *Transformer) tabs(m match, group string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div class=\"%s\">\n", t.class("tabs"))
	b.WriteString("<div class=\"tabs-header\">\n")
	for i, c := range m.children {
		fmt.Fprintf(&b, "<button class=\"tab-button%s\" data-tab=\"%s-%d\">▸ %s</button>\n",
			active(i), group, i, html.EscapeString(c.attrs["title"]))
	}
	b.WriteString("</div>\n<div class=\"tabs-content\">\n")
	for i, c := range m.children {
		fmt.Fprintf(&b, "<div class=\"tab-pane%s\" id=\"%s-%d\">\n\n%s\n\n</div>\n", active(i), group, i, c.inner)
	}
	b.WriteString("</div>\n</div>")
	return b.String()
}

func active(i int) string {
	if i == 0 {
		return " active"
	}
	return ""
}

func icon(m match) (string, bool) {
	name, ok := m.attrs["name"]
	if !ok || name == "" {
		return "", false
	}
	if glyph, ok := Icons[name]; ok {
		return glyph, true
	}
	return "[" + name + "]", true
}

var leftover = regexp.MustCompile(`\{\{<\s*/?\s*[\w-]+[^>]*>\}\}`)

// Remaining counts shortcode tags still present in markup, i.e. unknown or
// malformed ones that Transform left as text.
func Remaining(markup string) int {
	return len(leftover.FindAllStringIndex(markup, -1))
}
