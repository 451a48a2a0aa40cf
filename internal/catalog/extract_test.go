package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

const sampleCorpus = `# Обзор

---
## 📄 administration/auditor_users.md

**Зачем это нужно**
Аудиторы получают доступ только на чтение.

**Основные возможности**
- просмотр всех проектов
- без права записи

**Важные нюансы**
Занимает платное место.
---
## 📄 ci/pipelines/merge_trains.md

**Важные нюансы**
Nuance first.

**Зачем это нужно**
Keep main green.

**Основные возможности**
Queue of merge requests.
---
## 📄 user/no_summary.md

**Основные возможности**
Only features.
---
Stray text without a heading.
**Зачем это нужно**
Should be ignored.
`

func TestExtract_Scenario(t *testing.T) {
	cat := Extract("## 📄 auth/sso.md\n**Зачем это нужно**\nBody A\n---", DefaultOptions())
	require.Equal(t, 1, cat.Len())

	rec := cat.Records()[0]
	require.Equal(t, "auth/sso.md", rec.Identifier)
	require.Equal(t, "auth", rec.Category)
	require.Equal(t, "sso", rec.DisplayName)
	require.Equal(t, "Body A", rec.ShortBody)
	require.Empty(t, rec.SecondaryBody)
	require.Empty(t, rec.TertiaryBody)
}

func TestExtract_Corpus(t *testing.T) {
	cat := Extract(sampleCorpus, DefaultOptions())
	require.Equal(t, 2, cat.Len())

	recs := cat.Records()
	require.Equal(t, "administration/auditor_users.md", recs[0].Identifier)
	require.Equal(t, "auditor_users", recs[0].DisplayName)
	require.Equal(t, "Аудиторы получают доступ только на чтение.", recs[0].ShortBody)
	require.Equal(t, "- просмотр всех проектов\n- без права записи", recs[0].SecondaryBody)
	require.Equal(t, "Занимает платное место.", recs[0].TertiaryBody)

	// Sections declared out of order are bounded by whichever anchor follows.
	require.Equal(t, "ci", recs[1].Category)
	require.Equal(t, "merge_trains", recs[1].DisplayName)
	require.Equal(t, "Keep main green.", recs[1].ShortBody)
	require.Equal(t, "Nuance first.", recs[1].TertiaryBody)
	require.Equal(t, "Queue of merge requests.", recs[1].SecondaryBody)
}

func TestExtract_Invariants(t *testing.T) {
	corpora := []string{
		"",
		"---\n---\n",
		sampleCorpus,
		strings.Repeat("## 📄 a/b.md\n**Зачем это нужно**\nx\n---\n", 5),
		"## 📄 a/b.md\n**Зачем это нужно**\n",
	}
	for _, corpus := range corpora {
		cat := Extract(corpus, DefaultOptions())
		blobs := NewExtractor(DefaultOptions()).split(corpus)
		require.LessOrEqual(t, cat.Len(), len(blobs))
		for _, r := range cat.Records() {
			require.NotEmpty(t, r.ShortBody)
		}
	}
}

func TestExtract_DuplicatesRetained(t *testing.T) {
	corpus := "## 📄 a/b.md\n**Зачем это нужно**\nfirst\n---\n## 📄 a/b.md\n**Зачем это нужно**\nsecond\n"
	cat := Extract(corpus, DefaultOptions())
	require.Equal(t, 2, cat.Len())

	rec, ok := cat.Find("a/b.md")
	require.True(t, ok)
	require.Equal(t, "second", rec.ShortBody)
}

func TestExtract_DelimiterMustBeWholeLine(t *testing.T) {
	corpus := "## 📄 a/b.md\n**Зачем это нужно**\nuse --- inline\n----\nstill here\n"
	cat := Extract(corpus, DefaultOptions())
	require.Equal(t, 1, cat.Len())
	// "----" is not the delimiter, but the hard stop still bounds the section.
	require.Equal(t, "use --- inline", cat.Records()[0].ShortBody)
}

func TestExtract_CRLF(t *testing.T) {
	corpus := "## 📄 a/b.md\r\n**Зачем это нужно**\r\nBody\r\n---\r\n"
	cat := Extract(corpus, DefaultOptions())
	require.Equal(t, 1, cat.Len())
	require.Equal(t, "Body", cat.Records()[0].ShortBody)
}

func TestExtract_NormalizesUnicode(t *testing.T) {
	// "й" written as и + combining breve still matches the composed anchor.
	opts := DefaultOptions()
	opts.Nuances = "**Важный нюанс**"
	decomposed := norm.NFD.String(opts.Nuances)
	require.NotEqual(t, opts.Nuances, decomposed)

	corpus := "## 📄 a/b.md\n**Зачем это нужно**\nS\n" + decomposed + "\nN\n"
	cat := Extract(corpus, opts)
	require.Equal(t, 1, cat.Len())
	require.Equal(t, "S", cat.Records()[0].ShortBody)
	require.Equal(t, "N", cat.Records()[0].TertiaryBody)
}

func TestExtract_CustomOptions(t *testing.T) {
	opts := Options{
		Delimiter:     "===",
		HeadingMarker: "### >",
		Suffix:        ".txt",
		Summary:       "Why:",
		Features:      "What:",
		Nuances:       "Caveats:",
	}
	corpus := "### > ops/backup.txt\nWhy:\nSafety\nWhat:\nSnapshots\n===\n"
	cat := Extract(corpus, opts)
	require.Equal(t, 1, cat.Len())
	rec := cat.Records()[0]
	require.Equal(t, "backup", rec.DisplayName)
	require.Equal(t, "Safety", rec.ShortBody)
	require.Equal(t, "Snapshots", rec.SecondaryBody)
}

func TestExtract_IdentifierWithoutSlash(t *testing.T) {
	cat := Extract("## 📄 readme.md\n**Зачем это нужно**\nx\n", DefaultOptions())
	require.Equal(t, 1, cat.Len())
	rec := cat.Records()[0]
	require.Equal(t, "readme.md", rec.Category)
	require.Equal(t, "readme", rec.DisplayName)
}
