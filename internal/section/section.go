// Package section locates labeled subsections inside a block of text by
// plain substring anchors rather than a grammar.
package section

import (
	"strings"
	"unicode"
)

// Span is the byte range of a located section body within the searched text.
// Start and End are only meaningful when Found is true.
type Span struct {
	Start int
	End   int
	Found bool
}

// Find returns the span of the section introduced by anchor.
//
// The body starts right after the line holding the first occurrence of anchor
// and ends at the earliest occurrence, at or after the body start, of any
// anchor in anchors or of hardStop. Leading and trailing whitespace is
// excluded from the span. Matching is exact and case-sensitive.
func Find(text, anchor string, anchors []string, hardStop string) Span {
	if anchor == "" {
		return Span{}
	}
	at := strings.Index(text, anchor)
	if at < 0 {
		return Span{}
	}

	nl := strings.IndexByte(text[at+len(anchor):], '\n')
	if nl < 0 {
		// Anchor line is the last line: present but empty.
		return Span{Start: len(text), End: len(text), Found: true}
	}
	start := at + len(anchor) + nl + 1

	end := len(text)
	rest := text[start:]
	for _, a := range anchors {
		if a == "" {
			continue
		}
		if i := strings.Index(rest, a); i >= 0 && start+i < end {
			end = start + i
		}
	}
	if hardStop != "" {
		if i := strings.Index(rest, hardStop); i >= 0 && start+i < end {
			end = start + i
		}
	}

	body := text[start:end]
	start += len(body) - len(strings.TrimLeftFunc(body, unicode.IsSpace))
	end -= len(body) - len(strings.TrimRightFunc(body, unicode.IsSpace))
	if end < start {
		end = start
	}
	return Span{Start: start, End: end, Found: true}
}

// Locate returns the trimmed body of the section introduced by anchor and
// whether the anchor was present at all. An absent anchor is not an error.
func Locate(text, anchor string, anchors []string, hardStop string) (string, bool) {
	sp := Find(text, anchor, anchors, hardStop)
	if !sp.Found {
		return "", false
	}
	return text[sp.Start:sp.End], true
}

