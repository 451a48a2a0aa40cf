package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docshelf/internal/catalog"
)

// csvColumns maps accepted header names to record fields.
var csvColumns = map[string]string{
	"identifier": "identifier",
	"path":       "identifier",
	"summary":    "summary",
	"features":   "features",
	"nuances":    "nuances",
}

// CSVDecoder reads a tabular corpus export, one record per row, and writes it
// back out in the entry layout described by Layout. The header row names the
// columns: identifier (or path), summary, features, nuances.
type CSVDecoder struct {
	Layout catalog.Options
}

func (d *CSVDecoder) Decode(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv %s: %w", filename, err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	// First row is headers.
	index := make(map[string]int)
	for i, h := range rows[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if field, ok := csvColumns[h]; ok {
			if _, dup := index[field]; !dup {
				index[field] = i
			}
		}
	}
	if _, ok := index["identifier"]; !ok {
		return "", fmt.Errorf("parse csv %s: missing identifier column", filename)
	}

	layout := catalog.NewExtractor(d.Layout).Options()
	cell := func(row []string, field string) string {
		i, ok := index[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var b strings.Builder
	for _, row := range rows[1:] {
		id := cell(row, "identifier")
		if id == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n\n", layout.HeadingMarker, id)
		for _, s := range []struct{ anchor, body string }{
			{layout.Summary, cell(row, "summary")},
			{layout.Features, cell(row, "features")},
			{layout.Nuances, cell(row, "nuances")},
		} {
			if s.body != "" {
				fmt.Fprintf(&b, "%s\n%s\n\n", s.anchor, s.body)
			}
		}
		b.WriteString(layout.Delimiter + "\n")
	}
	return b.String(), nil
}
