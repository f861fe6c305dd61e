package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for configuration runs. It is only
// exported over HTTP in watch mode; one-shot runs just count internally.
type Metrics struct {
	runsStarted      prometheus.Counter
	runsCompleted    *prometheus.CounterVec
	sectionFailures  *prometheus.CounterVec
	artifactsWritten prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osg_configure",
			Name:      "runs_started_total",
			Help:      "Total number of configuration runs started",
		}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osg_configure",
			Name:      "runs_completed_total",
			Help:      "Total number of configuration runs completed",
		}, []string{"status"}),
		sectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "osg_configure",
			Name:      "section_failures_total",
			Help:      "Total number of per-section failures by pass",
		}, []string{"section", "pass"}),
		artifactsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "osg_configure",
			Name:      "artifacts_written_total",
			Help:      "Total number of artifacts written to disk",
		}),
	}

	registry.MustRegister(m.runsStarted, m.runsCompleted, m.sectionFailures, m.artifactsWritten)
	return m
}

// RecordRunStarted increments the started-run counter.
func (m *Metrics) RecordRunStarted() {
	m.runsStarted.Inc()
}

// RecordRunCompleted increments the completed-run counter with a status of
// "success" or "failure".
func (m *Metrics) RecordRunCompleted(ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	m.runsCompleted.WithLabelValues(status).Inc()
}

// RecordSectionFailure counts a per-section failure in the named pass.
func (m *Metrics) RecordSectionFailure(section, pass string) {
	m.sectionFailures.WithLabelValues(section, pass).Inc()
}

// RecordArtifactWritten counts one artifact written to disk.
func (m *Metrics) RecordArtifactWritten() {
	m.artifactsWritten.Inc()
}

// Handler returns the HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
