package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the research report service.
// Metrics are organized by subsystem: pipelines, paper sources, completions,
// persistence and authentication. All collectors are registered via promauto
// with the default Prometheus registry.
//
// Every Record method is safe to call on a nil *Metrics, which lets tests and
// optional wiring skip instrumentation.
type Metrics struct {
	// PipelineRunsStarted counts pipeline runs initiated, labeled by pipeline.
	PipelineRunsStarted *prometheus.CounterVec

	// PipelineRunsCompleted counts pipeline runs that finished successfully.
	PipelineRunsCompleted *prometheus.CounterVec

	// PipelineRunsFailed counts failed pipeline runs, labeled by pipeline and failing stage.
	PipelineRunsFailed *prometheus.CounterVec

	// PipelineDuration observes end-to-end pipeline duration in seconds.
	PipelineDuration *prometheus.HistogramVec

	// DegradedOutputs counts fallback values substituted for unusable upstream output.
	DegradedOutputs *prometheus.CounterVec

	// PapersPerSearch observes the number of papers returned per search, labeled by source.
	PapersPerSearch *prometheus.HistogramVec

	// SourceRequestsTotal counts HTTP requests to paper source APIs, labeled by source.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestsFailed counts failed paper source requests, labeled by source and error type.
	SourceRequestsFailed *prometheus.CounterVec

	// SourceRequestDuration observes paper source request duration in seconds.
	SourceRequestDuration *prometheus.HistogramVec

	// LLMRequestsTotal counts completion requests, labeled by operation and model.
	LLMRequestsTotal *prometheus.CounterVec

	// LLMRequestsFailed counts failed completion requests, labeled by operation, model, and error type.
	LLMRequestsFailed *prometheus.CounterVec

	// LLMRequestDuration observes completion request duration in seconds.
	LLMRequestDuration *prometheus.HistogramVec

	// RecordsSaved counts persistence writes, labeled by record type and outcome.
	RecordsSaved *prometheus.CounterVec

	// AuthFailures counts rejected requests, labeled by reason.
	AuthFailures *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Pipelines
		PipelineRunsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_started_total",
			Help:      "Total number of pipeline runs started",
		}, []string{"pipeline"}),
		PipelineRunsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_completed_total",
			Help:      "Total number of pipeline runs completed successfully",
		}, []string{"pipeline"}),
		PipelineRunsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_failed_total",
			Help:      "Total number of pipeline runs that failed by stage",
		}, []string{"pipeline", "stage"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of pipeline runs in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}, []string{"pipeline"}),
		DegradedOutputs: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_outputs_total",
			Help:      "Total number of fallback values substituted for unusable upstream output",
		}, []string{"operation"}),

		// Paper sources
		PapersPerSearch: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "papers_per_search",
			Help:      "Number of papers returned per search by source",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}, []string{"source"}),
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of requests to paper source APIs",
		}, []string{"source"}),
		SourceRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_failed_total",
			Help:      "Total number of failed requests to paper source APIs",
		}, []string{"source", "error_type"}),
		SourceRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of paper source API requests in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"source"}),

		// Completions
		LLMRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of completion requests",
		}, []string{"operation", "model"}),
		LLMRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_failed_total",
			Help:      "Total number of failed completion requests",
		}, []string{"operation", "model", "error_type"}),
		LLMRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Duration of completion requests in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"operation", "model"}),

		// Persistence
		RecordsSaved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_saved_total",
			Help:      "Total number of record writes by type and outcome",
		}, []string{"type", "outcome"}),

		// Auth
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected requests by reason",
		}, []string{"reason"}),
	}
}

// RecordPipelineStarted records that a pipeline run has started.
func (m *Metrics) RecordPipelineStarted(pipeline string) {
	if m == nil {
		return
	}
	m.PipelineRunsStarted.WithLabelValues(pipeline).Inc()
}

// RecordPipelineCompleted records a successful pipeline run.
func (m *Metrics) RecordPipelineCompleted(pipeline string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsCompleted.WithLabelValues(pipeline).Inc()
	m.PipelineDuration.WithLabelValues(pipeline).Observe(durationSeconds)
}

// RecordPipelineFailed records a pipeline run that failed at stage.
func (m *Metrics) RecordPipelineFailed(pipeline, stage string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PipelineRunsFailed.WithLabelValues(pipeline, stage).Inc()
	m.PipelineDuration.WithLabelValues(pipeline).Observe(durationSeconds)
}

// RecordDegradedOutput records a fallback substitution for operation.
func (m *Metrics) RecordDegradedOutput(operation string) {
	if m == nil {
		return
	}
	m.DegradedOutputs.WithLabelValues(operation).Inc()
}

// RecordSourceRequest records a successful request to a paper source.
func (m *Metrics) RecordSourceRequest(source string, paperCount int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source).Inc()
	m.SourceRequestDuration.WithLabelValues(source).Observe(durationSeconds)
	m.PapersPerSearch.WithLabelValues(source).Observe(float64(paperCount))
}

// RecordSourceRequestFailed records a failed request to a paper source.
func (m *Metrics) RecordSourceRequestFailed(source, errorType string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequestsTotal.WithLabelValues(source).Inc()
	m.SourceRequestsFailed.WithLabelValues(source, errorType).Inc()
	m.SourceRequestDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordLLMRequest records a successful completion request.
func (m *Metrics) RecordLLMRequest(operation, model string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordLLMRequestFailed records a failed completion request.
func (m *Metrics) RecordLLMRequestFailed(operation, model, errorType string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(operation, model).Inc()
	m.LLMRequestsFailed.WithLabelValues(operation, model, errorType).Inc()
	m.LLMRequestDuration.WithLabelValues(operation, model).Observe(durationSeconds)
}

// RecordSave records a persistence write outcome ("success" or "failure").
func (m *Metrics) RecordSave(recordType, outcome string) {
	if m == nil {
		return
	}
	m.RecordsSaved.WithLabelValues(recordType, outcome).Inc()
}

// RecordAuthFailure records a rejected request.
func (m *Metrics) RecordAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}
