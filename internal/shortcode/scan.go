package shortcode

import (
	"regexp"
	"strings"
)

// attrList matches zero or more key="value" pairs following a tag name.
const attrList = `((?:\s+[\w-]+\s*=\s*"[^"]*")*)`

var attrPattern = regexp.MustCompile(`([\w-]+)\s*=\s*"([^"]*)"`)

// openTag matches {{< name key="value" ... >}}. The first submatch holds the
// raw attribute list.
func openTag(name string) *regexp.Regexp {
	return regexp.MustCompile(`\{\{<\s*` + regexp.QuoteMeta(name) + attrList + `\s*>\}\}`)
}

// closeTag matches {{< /name >}}.
func closeTag(name string) *regexp.Regexp {
	return regexp.MustCompile(`\{\{<\s*/\s*` + regexp.QuoteMeta(name) + `\s*>\}\}`)
}

// match is one located shortcode occurrence.
type match struct {
	start, end int // span of the whole construct in the source
	name       string
	attrs      map[string]string
	inner      string
	children   []match
}

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, kv := range attrPattern.FindAllStringSubmatch(raw, -1) {
		attrs[kv[1]] = kv[2]
	}
	return attrs
}

// findBlocks returns the paired open/close occurrences of a block tag in
// src, in order. An opener with no closer before the next opener of the same
// tag is unterminated and skipped, so its text stays as is.
func findBlocks(src, name string, open, closer *regexp.Regexp) []match {
	var (
		out []match
		pos int
	)
	for pos < len(src) {
		loc := open.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			break
		}
		openStart, openEnd := pos+loc[0], pos+loc[1]
		rawAttrs := src[pos+loc[2] : pos+loc[3]]

		c := closer.FindStringIndex(src[openEnd:])
		if c == nil {
			break
		}
		if next := open.FindStringIndex(src[openEnd:]); next != nil && next[0] < c[0] {
			pos = openEnd
			continue
		}

		out = append(out, match{
			start: openStart,
			end:   openEnd + c[1],
			name:  name,
			attrs: parseAttrs(rawAttrs),
			inner: src[openEnd : openEnd+c[0]],
		})
		pos = openEnd + c[1]
	}
	return out
}

// findInline returns every occurrence of a self-contained tag.
func findInline(src, name string, tag *regexp.Regexp) []match {
	var out []match
	for _, loc := range tag.FindAllStringSubmatchIndex(src, -1) {
		out = append(out, match{
			start: loc[0],
			end:   loc[1],
			name:  name,
			attrs: parseAttrs(src[loc[2]:loc[3]]),
		})
	}
	return out
}

// rewrite replaces each match with the output of fn. When fn reports false
// the original text of the match is kept.
func rewrite(src string, matches []match, fn func(match) (string, bool)) string {
	if len(matches) == 0 {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	last := 0
	for _, m := range matches {
		b.WriteString(src[last:m.start])
		if out, ok := fn(m); ok {
			b.WriteString(out)
		} else {
			b.WriteString(src[m.start:m.end])
		}
		last = m.end
	}
	b.WriteString(src[last:])
	return b.String()
}
