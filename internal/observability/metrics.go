// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	PairsFetched     prometheus.Counter
	SignalsStored    *prometheus.CounterVec
	FilterFailures   *prometheus.CounterVec
	CandidatesChosen prometheus.Counter
	AlertsCreated    *prometheus.CounterVec
	AnalyzerFailures *prometheus.CounterVec

	// Recheck metrics
	RecheckJobs     *prometheus.CounterVec
	RecheckStatuses *prometheus.CounterVec

	// Latency metrics
	ExternalCallLatency *prometheus.HistogramVec
	ExternalCallErrors  *prometheus.CounterVec

	// Pipeline metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "dog_scout"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		PairsFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "pairs_fetched_total",
			Help:      "Total number of pair snapshots fetched",
		}),
		SignalsStored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "signals_stored_total",
			Help:      "Total number of signals persisted by filter result",
		}, []string{"passed"}),
		FilterFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "filter_failures_total",
			Help:      "Total number of hard filter failures by reason",
		}, []string{"reason"}),
		CandidatesChosen: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_selected_total",
			Help:      "Total number of candidates selected for alerting",
		}),
		AlertsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "alerts_total",
			Help:      "Total number of alerts by kind and delivery status",
		}, []string{"kind", "status"}),
		AnalyzerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "analyzer_failures_total",
			Help:      "Total number of narrative analyzer failures by provider",
		}, []string{"provider"}),

		RecheckJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recheck",
			Name:      "jobs_total",
			Help:      "Total number of processed recheck jobs by outcome",
		}, []string{"outcome"}),
		RecheckStatuses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recheck",
			Name:      "status_total",
			Help:      "Total number of recheck classifications by status",
		}, []string{"status"}),

		ExternalCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_latency_seconds",
			Help:      "External call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
		ExternalCallErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_errors_total",
			Help:      "Total number of failed external calls",
		}, []string{"target"}),

		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cycles_total",
			Help:      "Total number of pipeline cycles by status",
		}, []string{"status"}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cycle_duration_seconds",
			Help:      "Pipeline cycle duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
		}),

		LastSuccessfulCycle: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful pipeline cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordPairsFetched adds n fetched snapshots.
func RecordPairsFetched(n int) {
	DefaultMetrics.PairsFetched.Add(float64(n))
}

// RecordSignal counts a persisted signal and its filter failure reasons.
// Reasons are labelled by their prefix before ':' to keep cardinality bounded.
func RecordSignal(passed bool, reasons []string) {
	label := "false"
	if passed {
		label = "true"
	}
	DefaultMetrics.SignalsStored.WithLabelValues(label).Inc()
	for _, r := range reasons {
		if i := strings.IndexByte(r, ':'); i >= 0 {
			r = r[:i]
		}
		DefaultMetrics.FilterFailures.WithLabelValues(r).Inc()
	}
}

// RecordSelected adds n selected candidates.
func RecordSelected(n int) {
	DefaultMetrics.CandidatesChosen.Add(float64(n))
}

// RecordAlert counts a persisted alert.
func RecordAlert(kind, status string) {
	DefaultMetrics.AlertsCreated.WithLabelValues(kind, status).Inc()
}

// RecordAnalyzerFailure counts a failed analyzer call.
func RecordAnalyzerFailure(provider string) {
	DefaultMetrics.AnalyzerFailures.WithLabelValues(provider).Inc()
}

// RecordRecheckJob counts a finished recheck job ("done" or "failed").
func RecordRecheckJob(outcome string) {
	DefaultMetrics.RecheckJobs.WithLabelValues(outcome).Inc()
}

// RecordRecheckStatus counts a recheck classification.
func RecordRecheckStatus(status string) {
	DefaultMetrics.RecheckStatuses.WithLabelValues(status).Inc()
}

// RecordExternalCall records latency and failure of one external call.
func RecordExternalCall(target string, d time.Duration, err error) {
	DefaultMetrics.ExternalCallLatency.WithLabelValues(target).Observe(d.Seconds())
	if err != nil {
		DefaultMetrics.ExternalCallErrors.WithLabelValues(target).Inc()
	}
}

// RecordCycle records a pipeline cycle.
func RecordCycle(d time.Duration, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(d.Seconds())
	if ok {
		DefaultMetrics.LastSuccessfulCycle.SetToCurrentTime()
	}
}
