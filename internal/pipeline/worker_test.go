package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docshelf/internal/library"
	"github.com/dgallion1/docshelf/internal/metrics"
	"github.com/dgallion1/docshelf/internal/source"
)

const testCorpus = `# Обзор
---
## 📄 ci/merge_trains.md

**Зачем это нужно**
Keep   main
green.

**Основные возможности**
Queue of merge requests.
---
## 📄 ci/runners.md

**Зачем это нужно**
Execute jobs.
---
## 📄 user/group_sso.md

**Зачем это нужно**
Single sign-on.
`

var testBodies = map[string]string{
	"ci/merge_trains.md": "---\ntitle: Merge trains\n---\n# Merge trains in CI\n\nSee [runners](runners.md).\n\n## Setup\n\n" +
		"{{< tabs >}}{{< tab title=\"One\" >}}first{{< /tab >}}{{< tab title=\"Two\" >}}second{{< /tab >}}{{< /tabs >}}\n",
	"ci/runners.md":     "# Runners\n\nThey run jobs.\n",
	"user/group_sso.md": "# Group SSO\n\n{{< alert type=\"warning\" >}}SAML only{{< /alert >}}\n",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// newTestLibrary writes the corpus and the given bodies to temp dirs and
// returns an unloaded library over them.
func newTestLibrary(t *testing.T, bodies map[string]string) *library.Library {
	t.Helper()
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "summaries.md")
	writeTree(t, dir, map[string]string{"summaries.md": testCorpus})
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	writeTree(t, docs, bodies)

	return library.New(
		library.Options{CorpusPath: corpusPath},
		source.NewDirSource(docs, 0),
		testLogger(),
		library.WithBackoff(func(int) time.Duration { return time.Millisecond }),
	)
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []string
}

func (r *outcomeRecorder) IncExportOutcome(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, status)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWorker_ExportsSite(t *testing.T) {
	lib := newTestLibrary(t, testBodies)
	rec := &outcomeRecorder{}
	out := filepath.Join(t.TempDir(), "site")
	job := NewJob(out)

	NewWorker(lib, rec, testLogger(), 2).Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusCompleted, snap.Status, "errors: %v", snap.Progress.Errors)
	require.Equal(t, 3, snap.Progress.TotalRecords)
	require.Equal(t, 3, snap.Progress.Rendered)
	require.Zero(t, snap.Progress.Failed)
	require.Equal(t, lib.Version(), snap.Version)
	require.Equal(t, []string{"completed"}, rec.outcomes)

	for _, name := range []string{"index.html", "db.json", "style.css", "tabs.js", "ci/merge_trains.html", "ci/runners.html", "user/group_sso.html"} {
		require.FileExists(t, filepath.Join(out, filepath.FromSlash(name)))
	}

	page := readFile(t, filepath.Join(out, "ci", "merge_trains.html"))
	require.Contains(t, page, "<title>Merge trains</title>")
	require.Contains(t, page, `href="../style.css"`)
	require.Contains(t, page, `src="../tabs.js"`)
	require.Contains(t, page, `href="runners.html"`)
	require.Contains(t, page, `<a href="#setup">Setup</a>`)
	require.Contains(t, page, `class="tab-button active" data-tab="tab-1-0"`)
	require.NotContains(t, page, "{{&lt;")

	sso := readFile(t, filepath.Join(out, "user", "group_sso.html"))
	require.Contains(t, sso, "gitlab-alert-warning")

	index := readFile(t, filepath.Join(out, "index.html"))
	require.Contains(t, index, `href="ci/merge_trains.html"`)
	require.Contains(t, index, `href="user/group_sso.html"`)
	require.Less(t, strings.Index(index, "Merge trains"), strings.Index(index, "Group SSO"),
		"categories are ordered by name")

	var db struct {
		Articles []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Path        string `json:"path"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Category    string `json:"category"`
		} `json:"articles"`
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal([]byte(readFile(t, filepath.Join(out, "db.json"))), &db))
	require.Equal(t, []string{"all", "ci", "user"}, db.Categories)
	require.Len(t, db.Articles, 3)
	require.Equal(t, "Group SSO", db.Articles[0].Title)
	require.Equal(t, "Merge trains", db.Articles[1].Title)
	require.Equal(t, "Runners", db.Articles[2].Title)
	require.Equal(t, "Keep main green.", db.Articles[1].Description)
	require.Equal(t, "ci/merge_trains.md", db.Articles[1].Path)
	require.Equal(t, "ci/merge_trains.html", db.Articles[1].URL)
}

func TestWorker_PartialWhenBodiesMissing(t *testing.T) {
	bodies := map[string]string{
		"ci/merge_trains.md": testBodies["ci/merge_trains.md"],
		"user/group_sso.md":  testBodies["user/group_sso.md"],
	}
	lib := newTestLibrary(t, bodies)
	rec := &outcomeRecorder{}
	out := t.TempDir()
	job := NewJob(out)

	NewWorker(lib, rec, testLogger(), 4).Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusPartial, snap.Status)
	require.Equal(t, 2, snap.Progress.Rendered)
	require.Equal(t, 1, snap.Progress.Failed)
	require.Len(t, snap.Progress.Errors, 1)
	require.Contains(t, snap.Progress.Errors[0], "ci/runners.md")
	require.Equal(t, []string{"partial"}, rec.outcomes)

	require.NoFileExists(t, filepath.Join(out, "ci", "runners.html"))
	require.NotContains(t, readFile(t, filepath.Join(out, "index.html")), "runners.html")
}

func TestWorker_FailsWhenNothingRenders(t *testing.T) {
	lib := newTestLibrary(t, nil)
	job := NewJob(t.TempDir())

	NewWorker(lib, nil, testLogger(), 2).Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	require.Equal(t, "rendering", snap.Phase)
	require.Equal(t, 3, snap.Progress.Failed)
}

func TestWorker_FailsWhenCorpusMissing(t *testing.T) {
	lib := library.New(
		library.Options{CorpusPath: filepath.Join(t.TempDir(), "missing.md")},
		source.NewDirSource(t.TempDir(), 0),
		testLogger(),
	)
	job := NewJob(t.TempDir())

	NewWorker(lib, nil, testLogger(), 2).Process(context.Background(), job)

	snap := job.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	require.Equal(t, "loading", snap.Phase)
	require.NotEmpty(t, snap.Progress.Errors)
	select {
	case <-job.Done():
	default:
		t.Fatal("expected Done to be closed")
	}
}

func TestWorker_CancelledContext(t *testing.T) {
	lib := newTestLibrary(t, testBodies)
	_, err := lib.Load(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := NewJob(t.TempDir())

	NewWorker(lib, nil, testLogger(), 1).Process(ctx, job)

	snap := job.Snapshot()
	require.Equal(t, StatusFailed, snap.Status)
	require.Equal(t, "rendering", snap.Phase)
}

func TestPagePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"ci/merge_trains.md", "ci/merge_trains.html"},
		{"/ci/runners.md", "ci/runners.html"},
		{`user\sso.md`, "user/sso.html"},
		{"README", "README.html"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, PagePath(tt.in), tt.in)
	}
	require.Equal(t, "", relRoot("index.html"))
	require.Equal(t, "../../", relRoot("a/b/c.html"))
}

func TestRenderAll(t *testing.T) {
	bodies := map[string]string{"ci/runners.md": testBodies["ci/runners.md"]}
	lib := newTestLibrary(t, bodies)
	_, err := lib.Load(context.Background())
	require.NoError(t, err)

	ok, err := RenderAll(context.Background(), lib, lib.Catalog(), 2)
	require.Equal(t, 1, ok)
	require.Error(t, err)
	require.True(t, library.IsFetchError(err))
}
