// Package library owns the loaded catalog and builds full documents on
// demand: fetch body, split frontmatter, convert shortcodes, render.
package library

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgallion1/docshelf/internal/catalog"
	"github.com/dgallion1/docshelf/internal/metrics"
	"github.com/dgallion1/docshelf/internal/render"
	"github.com/dgallion1/docshelf/internal/shortcode"
	"github.com/dgallion1/docshelf/internal/source"
)

// ErrUnknownRecord is returned for identifiers not in the current catalog.
var ErrUnknownRecord = errors.New("unknown record")

// Options configures a Library.
type Options struct {
	CorpusPath        string
	Layout            catalog.Options
	Shortcodes        shortcode.Options
	FallbackPdftotext bool
	// WatchDebounce delays a reload after the last corpus change event.
	WatchDebounce time.Duration
}

// Option customizes optional collaborators.
type Option func(*Library)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(l *Library) { l.recorder = r }
}

// WithLatencyStats sets the rolling render latency window.
func WithLatencyStats(s *metrics.LatencyStats) Option {
	return func(l *Library) { l.stats = s }
}

// WithBackoff overrides the delay between body fetch retries.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(l *Library) { l.backoff = fn }
}

// WithRenderer sets the renderer used by Document.
func WithRenderer(r *render.Renderer) Option {
	return func(l *Library) { l.renderer = r }
}

type snapshot struct {
	catalog  *catalog.Catalog
	version  string
	loadedAt time.Time
}

// Library is safe for concurrent use. Readers always see a complete catalog;
// loads are serialized and swap the catalog atomically.
type Library struct {
	cfg        Options
	bodies     source.BodySource
	log        *slog.Logger
	extractor  *catalog.Extractor
	shortcodes *shortcode.Transformer
	renderer   *render.Renderer
	recorder   metrics.Recorder
	stats      *metrics.LatencyStats
	backoff    func(int) time.Duration

	loadMu  sync.Mutex
	current atomic.Pointer[snapshot]
}

func New(cfg Options, bodies source.BodySource, log *slog.Logger, opts ...Option) *Library {
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}
	l := &Library{
		cfg:        cfg,
		bodies:     bodies,
		log:        log.With("component", "library"),
		extractor:  catalog.NewExtractor(cfg.Layout),
		shortcodes: shortcode.New(cfg.Shortcodes),
		renderer:   render.New(),
		recorder:   metrics.NoopRecorder{},
		stats:      metrics.NewLatencyStats(time.Hour),
		backoff:    source.Backoff,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Load reads and extracts the corpus and swaps the new catalog in. It reports
// whether the catalog changed; a corpus with the same content hash as the
// current one is not re-extracted. On error the previous catalog stays.
func (l *Library) Load(ctx context.Context) (bool, error) {
	l.loadMu.Lock()
	defer l.loadMu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	start := time.Now()
	text, err := source.ReadFile(l.cfg.CorpusPath, source.ReadOptions{
		Layout:            l.extractor.Options(),
		FallbackPdftotext: l.cfg.FallbackPdftotext,
	})
	if err != nil {
		l.recorder.IncReload("failed")
		return false, fmt.Errorf("load corpus: %w", err)
	}

	version := ContentHashHex([]byte(text))
	if cur := l.current.Load(); cur != nil && cur.version == version {
		l.recorder.IncReload("unchanged")
		l.log.Debug("corpus unchanged", "version", shortVersion(version))
		return false, nil
	}

	cat := l.extractor.Extract(text)
	l.current.Store(&snapshot{catalog: cat, version: version, loadedAt: time.Now()})

	elapsed := time.Since(start)
	l.recorder.ObserveLoadDuration(elapsed)
	l.recorder.SetCatalogRecords(cat.Len())
	l.recorder.IncReload("changed")
	l.log.Info("catalog loaded",
		"path", l.cfg.CorpusPath,
		"records", cat.Len(),
		"categories", len(cat.Categories()),
		"version", shortVersion(version),
		"duration_ms", elapsed.Milliseconds(),
	)
	return true, nil
}

// Catalog returns the current catalog, or nil before the first load.
func (l *Library) Catalog() *catalog.Catalog {
	if s := l.current.Load(); s != nil {
		return s.catalog
	}
	return nil
}

// Version returns the SHA-256 of the loaded corpus text, or "" before the
// first load.
func (l *Library) Version() string {
	if s := l.current.Load(); s != nil {
		return s.version
	}
	return ""
}

// LoadedAt returns when the current catalog was swapped in.
func (l *Library) LoadedAt() time.Time {
	if s := l.current.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Stats returns the render latency window.
func (l *Library) Stats() *metrics.LatencyStats {
	return l.stats
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}
