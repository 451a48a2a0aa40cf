package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/docshelf/internal/section"
)

// Options describes the corpus layout the extractor expects.
type Options struct {
	Delimiter     string `yaml:"delimiter"`      // line separating records
	HeadingMarker string `yaml:"heading_marker"` // prefix of the record heading line
	Suffix        string `yaml:"suffix"`         // stripped from the display name

	Summary  string `yaml:"summary"`
	Features string `yaml:"features"`
	Nuances  string `yaml:"nuances"`
}

// DefaultOptions returns the layout of the GitLab premium summaries corpus.
func DefaultOptions() Options {
	return Options{
		Delimiter:     "---",
		HeadingMarker: "## 📄",
		Suffix:        ".md",
		Summary:       "**Зачем это нужно**",
		Features:      "**Основные возможности**",
		Nuances:       "**Важные нюансы**",
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Delimiter == "" {
		o.Delimiter = d.Delimiter
	}
	if o.HeadingMarker == "" {
		o.HeadingMarker = d.HeadingMarker
	}
	if o.Summary == "" {
		o.Summary = d.Summary
	}
	if o.Features == "" {
		o.Features = d.Features
	}
	if o.Nuances == "" {
		o.Nuances = d.Nuances
	}
	// An empty Suffix is meaningful (no stripping) and is left as is.
	return o
}

// Anchors returns the three subsection labels.
func (o Options) Anchors() []string {
	return []string{o.Summary, o.Features, o.Nuances}
}

// Extractor builds catalogs from corpus text.
type Extractor struct {
	opts Options
}

// NewExtractor returns an extractor for the given layout. Empty fields fall
// back to DefaultOptions.
func NewExtractor(opts Options) *Extractor {
	opts = opts.withDefaults()
	opts.Delimiter = norm.NFC.String(opts.Delimiter)
	opts.HeadingMarker = norm.NFC.String(opts.HeadingMarker)
	opts.Summary = norm.NFC.String(opts.Summary)
	opts.Features = norm.NFC.String(opts.Features)
	opts.Nuances = norm.NFC.String(opts.Nuances)
	return &Extractor{opts: opts}
}

// Options returns the effective layout.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract is shorthand for NewExtractor(opts).Extract(corpus).
func Extract(corpus string, opts Options) *Catalog {
	return NewExtractor(opts).Extract(corpus)
}

// Extract splits corpus into records. Blobs without a heading line or with an
// empty summary are skipped; the remaining records keep corpus order.
func (e *Extractor) Extract(corpus string) *Catalog {
	corpus = norm.NFC.String(strings.ReplaceAll(corpus, "\r\n", "\n"))

	var records []Record
	for _, blob := range e.split(corpus) {
		if rec, ok := e.record(blob); ok {
			records = append(records, rec)
		}
	}
	return &Catalog{records: records}
}

// split cuts the corpus on lines equal to the delimiter and drops blank blobs.
func (e *Extractor) split(corpus string) []string {
	var (
		blobs   []string
		current strings.Builder
	)
	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			blobs = append(blobs, current.String())
		}
		current.Reset()
	}

	for _, line := range strings.SplitAfter(corpus, "\n") {
		if strings.TrimRight(line, " \t\r\n") == e.opts.Delimiter {
			flush()
			continue
		}
		current.WriteString(line)
	}
	flush()
	return blobs
}

func (e *Extractor) record(blob string) (Record, bool) {
	identifier, ok := e.heading(blob)
	if !ok {
		return Record{}, false
	}

	anchors := e.opts.Anchors()
	hardStop := "\n" + e.opts.Delimiter
	summary, _ := section.Locate(blob, e.opts.Summary, anchors, hardStop)
	if summary == "" {
		return Record{}, false
	}
	features, _ := section.Locate(blob, e.opts.Features, anchors, hardStop)
	nuances, _ := section.Locate(blob, e.opts.Nuances, anchors, hardStop)

	category, name := splitIdentifier(identifier, e.opts.Suffix)
	return Record{
		Identifier:    identifier,
		DisplayName:   name,
		Category:      category,
		ShortBody:     summary,
		SecondaryBody: features,
		TertiaryBody:  nuances,
	}, true
}

// heading finds the first line starting with the heading marker and returns
// the identifier that follows it.
func (e *Extractor) heading(blob string) (string, bool) {
	for _, line := range strings.Split(blob, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, e.opts.HeadingMarker) {
			continue
		}
		id := strings.TrimSpace(strings.TrimPrefix(line, e.opts.HeadingMarker))
		return id, id != ""
	}
	return "", false
}

func splitIdentifier(identifier, suffix string) (category, name string) {
	parts := strings.Split(identifier, "/")
	category = parts[0]
	name = parts[len(parts)-1]
	if suffix != "" {
		name = strings.TrimSuffix(name, suffix)
	}
	return category, name
}
