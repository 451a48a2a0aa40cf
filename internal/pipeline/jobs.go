package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of an export job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusLoading   JobStatus = "loading"
	StatusRendering JobStatus = "rendering"
	StatusWriting   JobStatus = "writing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Job tracks the state of a single static site export.
type Job struct {
	mu sync.Mutex

	ID     string `json:"job_id"`
	OutDir string `json:"out_dir"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	// Version is the catalog version the export was rendered from.
	Version   string    `json:"version,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	done chan struct{}
}

// Progress tracks processing progress.
type Progress struct {
	TotalRecords int      `json:"total_records"`
	Rendered     int      `json:"rendered"`
	Failed       int      `json:"failed"`
	Errors       []string `json:"errors"`
}

// NewJob returns a queued export job writing to outDir.
func NewJob(outDir string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		OutDir:    outDir,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		done:      make(chan struct{}),
	}
}

// JobStore keeps export jobs in memory so their status can be polled.
// Finished jobs are dropped once they have been idle for longer than ttl.
type JobStore struct {
	ttl time.Duration

	mu   sync.Mutex
	jobs map[string]*Job
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{ttl: ttl, jobs: make(map[string]*Job)}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
}

// Get returns the job with id, or nil.
func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Sweep removes finished jobs idle for longer than the TTL and reports how
// many it removed. Jobs still in flight are kept regardless of age.
func (s *JobStore) Sweep() int {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.jobs {
		status, updated := job.state()
		if status.Terminal() && updated.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

func (j *Job) state() (JobStatus, time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.UpdatedAt
}

// update applies fn under the job lock and bumps UpdatedAt.
func (j *Job) update(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn()
	j.UpdatedAt = time.Now()
}

// SetStatus moves the job to status. Reaching a terminal status closes Done.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.update(func() {
		j.Status, j.Phase = status, phase
		if !status.Terminal() || j.done == nil {
			return
		}
		select {
		case <-j.done:
		default:
			close(j.done)
		}
	})
}

// Terminal reports whether no further transitions follow s.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusPartial:
		return true
	}
	return false
}

// Done is closed once the job reaches a terminal status. Jobs not built by
// NewJob return nil.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// AddError appends a per-record or phase error to the job's progress.
func (j *Job) AddError(msg string) {
	j.update(func() { j.Progress.Errors = append(j.Progress.Errors, msg) })
}

// IncrRendered counts one rendered record.
func (j *Job) IncrRendered() {
	j.update(func() { j.Progress.Rendered++ })
}

// IncrFailed counts one record that could not be rendered.
func (j *Job) IncrFailed() {
	j.update(func() { j.Progress.Failed++ })
}

func (j *Job) SetTotalRecords(n int) {
	j.update(func() { j.Progress.TotalRecords = n })
}

// SetVersion records the catalog version being exported.
func (j *Job) SetVersion(v string) {
	j.update(func() { j.Version = v })
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	OutDir    string    `json:"out_dir"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Version   string    `json:"version,omitempty"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.Progress
	p.Errors = append(make([]string, 0, len(p.Errors)), p.Errors...)
	return JobSnapshot{
		ID:        j.ID,
		OutDir:    j.OutDir,
		Status:    j.Status,
		Phase:     j.Phase,
		Version:   j.Version,
		Progress:  p,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
