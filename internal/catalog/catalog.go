// Package catalog splits a summaries corpus into records and builds the
// read-only catalog consumed by the library, API and exporter.
package catalog

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Record is one documentation entry of the corpus.
type Record struct {
	Identifier    string `json:"identifier"`
	DisplayName   string `json:"display_name"`
	Category      string `json:"category"`
	ShortBody     string `json:"summary"`
	SecondaryBody string `json:"features,omitempty"`
	TertiaryBody  string `json:"nuances,omitempty"`
}

// Slug returns a URL-friendly id built from the category and display name,
// e.g. "administration-auditor-users".
func (r Record) Slug() string {
	return Slugify(r.Category + "-" + r.DisplayName)
}

// Excerpt returns the summary cut to at most n runes, with "..." appended
// when it was shortened.
func (r Record) Excerpt(n int) string {
	if n <= 0 || utf8.RuneCountInString(r.ShortBody) <= n {
		return r.ShortBody
	}
	cut := 0
	for i := range r.ShortBody {
		if n == 0 {
			cut = i
			break
		}
		n--
	}
	return r.ShortBody[:cut] + "..."
}

// Catalog is the ordered set of records extracted from one corpus load.
// It is not modified after Extract returns it.
type Catalog struct {
	records []Record
}

// New wraps records into a Catalog, keeping their order.
func New(records []Record) *Catalog {
	out := make([]Record, len(records))
	copy(out, records)
	return &Catalog{records: out}
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Records returns a copy of the records in corpus order.
func (c *Catalog) Records() []Record {
	if c == nil {
		return nil
	}
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Find returns the record with the given identifier. When the corpus holds
// duplicates the last one wins.
func (c *Catalog) Find(identifier string) (Record, bool) {
	if c == nil {
		return Record{}, false
	}
	for i := len(c.records) - 1; i >= 0; i-- {
		if c.records[i].Identifier == identifier {
			return c.records[i], true
		}
	}
	return Record{}, false
}

// CategoryCount is a category with its human label and number of records.
type CategoryCount struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Categories returns every category with its record count, sorted by name.
func (c *Catalog) Categories() []CategoryCount {
	caser := cases.Title(language.Und)
	counts := make(map[string]int)
	for _, r := range c.Records() {
		counts[r.Category]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CategoryCount{
			Name:  name,
			Label: caser.String(strings.ReplaceAll(name, "_", " ")),
			Count: n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllCategories is the category value that matches every record.
const AllCategories = "all"

// Filter returns the records in category (empty or AllCategories for any)
// whose name, category or bodies contain query, case-insensitively.
func (c *Catalog) Filter(category, query string) []Record {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []Record
	for _, r := range c.Records() {
		if category != "" && category != AllCategories && r.Category != category {
			continue
		}
		if query != "" && !r.matches(query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (r Record) matches(query string) bool {
	for _, field := range []string{r.DisplayName, r.Category, r.ShortBody, r.SecondaryBody, r.TertiaryBody} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
