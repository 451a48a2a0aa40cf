package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docshelf/internal/catalog"
	"github.com/dgallion1/docshelf/internal/library"
	"github.com/dgallion1/docshelf/internal/metrics"
	"github.com/dgallion1/docshelf/internal/render"
)

// Worker renders the catalog of a library into a static site.
type Worker struct {
	lib      *library.Library
	renderer *render.Renderer
	recorder metrics.Recorder
	log      *slog.Logger

	maxConcurrentRender int
}

func NewWorker(lib *library.Library, recorder metrics.Recorder, log *slog.Logger, maxRender int) *Worker {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	if maxRender <= 0 {
		maxRender = 1
	}
	return &Worker{
		lib:                 lib,
		renderer:            render.New(render.WithLinkRewrite()),
		recorder:            recorder,
		log:                 log,
		maxConcurrentRender: maxRender,
	}
}

// Process runs the full export for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "out_dir", job.OutDir)
	status := w.process(ctx, job, log)
	w.recorder.IncExportOutcome(string(status))
}

func (w *Worker) process(ctx context.Context, job *Job, log *slog.Logger) JobStatus {
	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	cat := w.lib.Catalog()
	if cat == nil {
		if _, err := w.lib.Load(ctx); err != nil {
			log.Error("catalog load failed", "error", err)
			job.AddError(fmt.Sprintf("load: %s", err))
			job.SetStatus(StatusFailed, "loading")
			return StatusFailed
		}
		cat = w.lib.Catalog()
	}
	job.SetVersion(w.lib.Version())

	records := cat.Records()
	job.SetTotalRecords(len(records))
	if len(records) == 0 {
		log.Warn("catalog has no records")
		job.AddError("catalog has no records")
		job.SetStatus(StatusFailed, "loading")
		return StatusFailed
	}

	// Phase 2: Render each record with bounded concurrency. A failed record
	// is reported and skipped.
	job.SetStatus(StatusRendering, "rendering")
	pages := make([]*page, len(records))

	var g errgroup.Group
	g.SetLimit(w.maxConcurrentRender)
	for i, rec := range records {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			doc, err := w.lib.Render(ctx, rec.Identifier, w.renderer)
			if err != nil {
				log.Warn("render failed", "identifier", rec.Identifier, "error", err)
				job.AddError(fmt.Sprintf("%s: %s", rec.Identifier, err))
				job.IncrFailed()
				return nil
			}
			pages[i] = newPage(rec, doc)
			job.IncrRendered()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn("export cancelled", "error", err)
		job.AddError(fmt.Sprintf("cancelled: %s", err))
		job.SetStatus(StatusFailed, "rendering")
		return StatusFailed
	}

	rendered := compact(pages)
	if len(rendered) == 0 {
		job.SetStatus(StatusFailed, "rendering")
		return StatusFailed
	}

	// Phase 3: Write pages, index, db.json and assets.
	job.SetStatus(StatusWriting, "writing")
	written, skipped, err := writeSite(job.OutDir, cat, rendered, job)
	if err != nil {
		log.Error("write site failed", "error", err)
		job.AddError(fmt.Sprintf("write: %s", err))
		job.SetStatus(StatusFailed, "writing")
		return StatusFailed
	}

	snap := job.Snapshot()
	log.Info("export complete",
		"pages", written,
		"skipped", skipped,
		"failed", snap.Progress.Failed,
		"version", snap.Version,
	)

	if snap.Progress.Failed > 0 || skipped > 0 {
		job.SetStatus(StatusPartial, "done")
		return StatusPartial
	}
	job.SetStatus(StatusCompleted, "done")
	return StatusCompleted
}

func compact(pages []*page) []*page {
	out := make([]*page, 0, len(pages))
	for _, p := range pages {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// RenderAll renders every record of cat without writing anything. It returns
// the number of records that rendered and the joined per-record errors.
func RenderAll(ctx context.Context, lib *library.Library, cat *catalog.Catalog, limit int) (int, error) {
	if limit <= 0 {
		limit = 1
	}
	r := render.New(render.WithLinkRewrite())

	var (
		mu   sync.Mutex
		errs []error
		ok   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, rec := range cat.Records() {
		g.Go(func() error {
			if _, err := lib.Render(gctx, rec.Identifier, r); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			mu.Lock()
			ok++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ok, err
	}
	return ok, errors.Join(errs...)
}
