package pipeline

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/dgallion1/docshelf/internal/catalog"
	"github.com/dgallion1/docshelf/internal/doctree"
	"github.com/dgallion1/docshelf/internal/library"
)

//go:embed assets/style.css assets/tabs.js
var assets embed.FS

const siteTitle = "Обзор функций GitLab EE"

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.Root}}style.css">
</head>
<body>
<header class="site"><a href="{{.Root}}index.html">{{.SiteTitle}}</a> / {{.Category}}</header>
{{- if .TOC}}
<nav class="toc"><ul>
{{- range .TOC}}
<li class="depth-{{.Depth}}"><a href="#{{.ID}}">{{.Title}}</a></li>
{{- end}}
</ul></nav>
{{- end}}
<main>
{{.Body}}
</main>
<script src="{{.Root}}tabs.js"></script>
</body>
</html>
`))

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="ru">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="style.css">
</head>
<body>
<h1>{{.Title}}</h1>
{{- range .Groups}}
<section class="category" id="{{.Name}}">
<h2>{{.Label}} <span class="count">{{len .Pages}}</span></h2>
{{- range .Pages}}
<h3><a href="{{.Path}}">{{.Title}}</a></h3>
<p class="summary">{{.Excerpt}}</p>
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// page is one rendered record ready to be written.
type page struct {
	Record catalog.Record
	Doc    *library.Document
	Path   string
}

func newPage(rec catalog.Record, doc *library.Document) *page {
	return &page{Record: rec, Doc: doc, Path: PagePath(rec.Identifier)}
}

// PagePath maps a record identifier onto its page inside the site,
// "ci/merge_trains.md" -> "ci/merge_trains.html".
func PagePath(identifier string) string {
	p := path.Clean(strings.TrimPrefix(strings.ReplaceAll(identifier, "\\", "/"), "/"))
	if strings.HasSuffix(p, ".md") {
		return strings.TrimSuffix(p, ".md") + ".html"
	}
	return p + ".html"
}

// relRoot returns the relative prefix from a page back to the site root.
func relRoot(pagePath string) string {
	return strings.Repeat("../", strings.Count(pagePath, "/"))
}

type tocEntry struct {
	Title string
	ID    string
	Depth int
}

type dbArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Path        string `json:"path"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type dbFile struct {
	Articles   []dbArticle `json:"articles"`
	Categories []string    `json:"categories"`
}

// writeSite writes every page plus index.html, db.json and the assets under
// outDir. Writes are confined to outDir. A page that cannot be written is
// reported on the job and skipped. It returns the written and skipped page
// counts.
func writeSite(outDir string, cat *catalog.Catalog, pages []*page, job *Job) (written, skipped int, err error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create output dir: %w", err)
	}
	root, err := os.OpenRoot(outDir)
	if err != nil {
		return 0, 0, fmt.Errorf("open output dir: %w", err)
	}
	defer root.Close()

	pages = dedupe(pages)
	labels := make(map[string]string)
	for _, c := range cat.Categories() {
		labels[c.Name] = c.Label
	}

	ok := make([]*page, 0, len(pages))
	for _, p := range pages {
		if err := writePage(root, p, labels[p.Record.Category]); err != nil {
			job.AddError(fmt.Sprintf("%s: %s", p.Record.Identifier, err))
			skipped++
			continue
		}
		ok = append(ok, p)
	}
	written = len(ok)

	if err := writeIndex(root, cat, ok); err != nil {
		return written, skipped, err
	}
	if err := writeDB(root, cat, ok); err != nil {
		return written, skipped, err
	}
	for _, name := range []string{"style.css", "tabs.js"} {
		data, err := assets.ReadFile("assets/" + name)
		if err != nil {
			return written, skipped, fmt.Errorf("read asset %s: %w", name, err)
		}
		if err := root.WriteFile(name, data, 0o644); err != nil {
			return written, skipped, fmt.Errorf("write %s: %w", name, err)
		}
	}
	return written, skipped, nil
}

// dedupe keeps the last page per output path, matching catalog lookups.
func dedupe(pages []*page) []*page {
	idx := make(map[string]int, len(pages))
	out := make([]*page, 0, len(pages))
	for _, p := range pages {
		if i, ok := idx[p.Path]; ok {
			out[i] = p
			continue
		}
		idx[p.Path] = len(out)
		out = append(out, p)
	}
	return out
}

func writePage(root *os.Root, p *page, categoryLabel string) error {
	var toc []tocEntry
	p.Doc.Outline.Walk(func(n *doctree.DocNode, _ int) bool {
		if n.Level > 1 && n.ID != "" {
			toc = append(toc, tocEntry{Title: n.Title, ID: n.ID, Depth: n.Level - 2})
		}
		return true
	})

	var sb strings.Builder
	err := pageTmpl.Execute(&sb, map[string]any{
		"Title":     p.Doc.Title,
		"Root":      relRoot(p.Path),
		"SiteTitle": siteTitle,
		"Category":  categoryLabel,
		"TOC":       toc,
		"Body":      template.HTML(p.Doc.HTML),
	})
	if err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}

	if dir := path.Dir(p.Path); dir != "." {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := root.WriteFile(p.Path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p.Path, err)
	}
	return nil
}

type indexEntry struct {
	Title   string
	Path    string
	Excerpt string
}

type indexGroup struct {
	Name  string
	Label string
	Pages []indexEntry
}

func writeIndex(root *os.Root, cat *catalog.Catalog, pages []*page) error {
	byCategory := make(map[string][]indexEntry)
	for _, p := range pages {
		byCategory[p.Record.Category] = append(byCategory[p.Record.Category], indexEntry{
			Title:   p.Doc.Title,
			Path:    p.Path,
			Excerpt: p.Record.Excerpt(500),
		})
	}

	var groups []indexGroup
	for _, c := range cat.Categories() {
		entries := byCategory[c.Name]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Title < entries[j].Title })
		groups = append(groups, indexGroup{Name: c.Name, Label: c.Label, Pages: entries})
	}

	var sb strings.Builder
	if err := indexTmpl.Execute(&sb, map[string]any{"Title": siteTitle, "Groups": groups}); err != nil {
		return fmt.Errorf("execute index template: %w", err)
	}
	if err := root.WriteFile("index.html", []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write index.html: %w", err)
	}
	return nil
}

func writeDB(root *os.Root, cat *catalog.Catalog, pages []*page) error {
	db := dbFile{
		Articles:   make([]dbArticle, 0, len(pages)),
		Categories: []string{catalog.AllCategories},
	}
	for _, p := range pages {
		db.Articles = append(db.Articles, dbArticle{
			ID:          p.Record.Slug(),
			Title:       p.Doc.Title,
			Path:        p.Record.Identifier,
			URL:         p.Path,
			Description: strings.Join(strings.Fields(p.Record.ShortBody), " "),
			Category:    p.Record.Category,
		})
	}
	sort.SliceStable(db.Articles, func(i, j int) bool { return db.Articles[i].Title < db.Articles[j].Title })
	for _, c := range cat.Categories() {
		db.Categories = append(db.Categories, c.Name)
	}

	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal db.json: %w", err)
	}
	if err := root.WriteFile("db.json", data, 0o644); err != nil {
		return fmt.Errorf("write db.json: %w", err)
	}
	return nil
}
