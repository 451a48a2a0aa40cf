package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docshelf/internal/config"
	"github.com/dgallion1/docshelf/internal/library"
	"github.com/dgallion1/docshelf/internal/metrics"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("export pipeline stopped")

// Orchestrator manages the static export pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	lib      *library.Library
	recorder metrics.Recorder
	log      *slog.Logger
	cfg      config.Config

	mu      sync.Mutex
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, lib *library.Library, recorder metrics.Recorder, log *slog.Logger) *Orchestrator {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		lib:      lib,
		recorder: recorder,
		log:      log.With("component", "export"),
		cfg:      cfg,
	}
}

// jobSweepInterval is how often finished jobs past their TTL are dropped.
const jobSweepInterval = 5 * time.Minute

// Start launches cfg.WorkerCount export workers and the job sweeper. They
// run until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := range o.cfg.WorkerCount {
		w := NewWorker(o.lib, o.recorder, o.log.With("worker", i), o.cfg.MaxConcurrentRender)
		o.wg.Go(func() { o.drain(runCtx, w) })
	}
	o.wg.Go(func() { o.sweep(runCtx) })
}

// drain feeds queued jobs to w until the queue closes or ctx ends.
func (o *Orchestrator) drain(ctx context.Context, w *Worker) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			w.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	t := time.NewTicker(jobSweepInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := o.jobs.Sweep(); n > 0 {
				o.log.Debug("expired export jobs removed", "count", n)
			}
		}
	}
}

// Stop cancels running exports and waits for the workers to exit. Jobs still
// queued are marked failed.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.mu.Unlock()

	o.wg.Wait()

	for job := range o.queue {
		job.SetStatus(StatusFailed, "shutdown")
	}
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		o.recorder.IncExportOutcome("rejected")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// DefaultOutDir is the export directory used when a request names none.
func (o *Orchestrator) DefaultOutDir() string {
	return o.cfg.ExportDir
}
