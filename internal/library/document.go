package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docshelf/internal/catalog"
	"github.com/dgallion1/docshelf/internal/doctree"
	"github.com/dgallion1/docshelf/internal/metrics"
	"github.com/dgallion1/docshelf/internal/render"
	"github.com/dgallion1/docshelf/internal/shortcode"
	"github.com/dgallion1/docshelf/internal/source"
)

// FetchError reports that a record's body could not be retrieved. It is
// distinct from ErrUnknownRecord: the record exists but its document does
// not load.
type FetchError struct {
	Identifier string
	Attempts   int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%d attempts): %v", e.Identifier, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrNoBodySource is wrapped in the FetchError of a library built without a
// body source.
var ErrNoBodySource = errors.New("no body source configured")

// Document is one record's full page.
type Document struct {
	Identifier  string             `json:"identifier"`
	Title       string             `json:"title"`
	Record      catalog.Record     `json:"record"`
	FrontMatter source.FrontMatter `json:"front_matter"`
	Markup      string             `json:"-"`
	HTML        string             `json:"html"`
	Outline     *doctree.DocTree   `json:"outline"`
	// Leftover counts shortcodes the transformer did not recognize.
	Leftover int `json:"leftover_shortcodes,omitempty"`
}

// Document builds the page for identifier with the library's renderer.
func (l *Library) Document(ctx context.Context, identifier string) (*Document, error) {
	return l.Render(ctx, identifier, l.renderer)
}

// Render builds the page for identifier with r. Unknown identifiers yield
// ErrUnknownRecord; body retrieval failures yield *FetchError.
func (l *Library) Render(ctx context.Context, identifier string, r *render.Renderer) (*Document, error) {
	start := time.Now()
	doc, result, err := l.build(ctx, identifier, r)
	elapsed := time.Since(start)

	l.recorder.IncRenderResult(result)
	if result == metrics.ResultSuccess {
		l.recorder.ObserveRenderDuration(elapsed)
		l.stats.Observe(elapsed)
	}
	return doc, err
}

func (l *Library) build(ctx context.Context, identifier string, r *render.Renderer) (*Document, metrics.ResultLabel, error) {
	log := l.log.With("identifier", identifier)

	rec, ok := l.Catalog().Find(identifier)
	if !ok {
		return nil, metrics.ResultUnknown, fmt.Errorf("%w: %s", ErrUnknownRecord, identifier)
	}

	raw, err := l.fetch(ctx, identifier)
	if err != nil {
		log.Warn("body fetch failed", "error", err)
		return nil, metrics.ResultFetchFailed, err
	}

	fm, body, err := source.SplitFrontMatter(raw)
	if err != nil {
		// Malformed frontmatter is rendered as part of the body.
		log.Warn("frontmatter ignored", "error", err)
		fm, body = source.FrontMatter{}, raw
	}

	markup := l.shortcodes.Transform(string(body))
	leftover := shortcode.Remaining(markup)
	if leftover > 0 {
		log.Debug("unconverted shortcodes", "count", leftover)
	}

	html, err := r.HTML(markup)
	if err != nil {
		return nil, metrics.ResultFailed, fmt.Errorf("render %s: %w", identifier, err)
	}

	title := fm.Title
	if title == "" {
		title = render.Title(markup, identifier)
	}
	outline := r.Outline(markup)
	outline.Title = title

	return &Document{
		Identifier:  identifier,
		Title:       title,
		Record:      rec,
		FrontMatter: fm,
		Markup:      markup,
		HTML:        html,
		Outline:     outline,
		Leftover:    leftover,
	}, metrics.ResultSuccess, nil
}

// fetch retrieves a body, retrying transient failures with backoff.
func (l *Library) fetch(ctx context.Context, identifier string) ([]byte, error) {
	if l.bodies == nil {
		return nil, &FetchError{Identifier: identifier, Err: ErrNoBodySource}
	}
	var (
		body     []byte
		lastErr  error
		attempts int
	)
retry:
	for attempt := range source.MaxRetries {
		attempts++
		body, lastErr = l.bodies.Body(ctx, identifier)
		if lastErr == nil || !source.IsTransient(lastErr) || attempt == source.MaxRetries-1 {
			break
		}
		l.recorder.IncFetchRetry()
		l.log.Warn("retryable fetch error", "identifier", identifier, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(l.backoff(attempt)):
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		}
	}
	if lastErr != nil {
		return nil, &FetchError{Identifier: identifier, Attempts: attempts, Err: lastErr}
	}
	return body, nil
}

// IsFetchError reports whether err is a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
