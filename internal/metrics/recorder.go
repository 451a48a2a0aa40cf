// Package metrics holds the observability hooks of the library and export
// pipeline: a Recorder interface with Noop and Prometheus implementations and
// an in-process rolling latency window for the stats endpoint.
package metrics

import "time"

// ResultLabel enumerates document build outcomes for counters.
type ResultLabel string

const (
	ResultSuccess     ResultLabel = "success"
	ResultUnknown     ResultLabel = "unknown_record"
	ResultFetchFailed ResultLabel = "fetch_failed"
	ResultFailed      ResultLabel = "failed"
)

// Recorder defines observability hooks for catalog loads, document renders
// and export jobs.
type Recorder interface {
	ObserveLoadDuration(d time.Duration)
	IncReload(outcome string) // outcome: changed|unchanged|failed
	SetCatalogRecords(n int)
	ObserveRenderDuration(d time.Duration)
	IncRenderResult(result ResultLabel)
	IncFetchRetry()
	IncExportOutcome(status string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveLoadDuration(time.Duration)   {}
func (NoopRecorder) IncReload(string)                    {}
func (NoopRecorder) SetCatalogRecords(int)               {}
func (NoopRecorder) ObserveRenderDuration(time.Duration) {}
func (NoopRecorder) IncRenderResult(ResultLabel)         {}
func (NoopRecorder) IncFetchRetry()                      {}
func (NoopRecorder) IncExportOutcome(string)             {}
