package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docshelf"

var _ Recorder = (*PrometheusRecorder)(nil)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	loadDuration   prom.Histogram
	reloads        *prom.CounterVec
	catalogRecords prom.Gauge
	renderDuration prom.Histogram
	renderResults  *prom.CounterVec
	fetchRetries   prom.Counter
	exportOutcomes *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		loadDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_duration_seconds",
			Help:      "Duration of corpus read and record extraction",
			Buckets:   prom.DefBuckets,
		}),
		reloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Catalog reloads by outcome",
		}, []string{"outcome"}),
		catalogRecords: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Number of records in the current catalog",
		}),
		renderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_duration_seconds",
			Help:      "Duration of a full document build (fetch, transform, render)",
			Buckets:   prom.DefBuckets,
		}),
		renderResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_renders_total",
			Help:      "Document builds by result",
		}, []string{"result"}),
		fetchRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "body_fetch_retries_total",
			Help:      "Retried body fetches after transient failures",
		}),
		exportOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "export_jobs_total",
			Help:      "Export jobs by final status",
		}, []string{"status"}),
	}
	reg.MustRegister(pr.loadDuration, pr.reloads, pr.catalogRecords, pr.renderDuration,
		pr.renderResults, pr.fetchRetries, pr.exportOutcomes)
	return pr
}

func (p *PrometheusRecorder) ObserveLoadDuration(d time.Duration) {
	p.loadDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncReload(outcome string) {
	p.reloads.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetCatalogRecords(n int) {
	p.catalogRecords.Set(float64(n))
}

func (p *PrometheusRecorder) ObserveRenderDuration(d time.Duration) {
	p.renderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderResult(result ResultLabel) {
	p.renderResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry() {
	p.fetchRetries.Inc()
}

func (p *PrometheusRecorder) IncExportOutcome(status string) {
	p.exportOutcomes.WithLabelValues(status).Inc()
}

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
