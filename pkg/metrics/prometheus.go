package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes scan and fetch counters via Prometheus.
// ⭐ SSOT: 메트릭 등록은 여기서만
type Recorder struct {
	scansTotal    *prometheus.CounterVec
	scanDuration  prometheus.Histogram
	seriesFetched *prometheus.CounterVec
	fetchErrors   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadlag_scans_total",
				Help: "Total number of scans by outcome",
			},
			[]string{"outcome"},
		),
		scanDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadlag_scan_duration_seconds",
				Help:    "Duration of a full lead-lag scan",
				Buckets: prometheus.DefBuckets,
			},
		),
		seriesFetched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadlag_series_fetched_total",
				Help: "Total number of series fetched per source",
			},
			[]string{"source"},
		),
		fetchErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadlag_fetch_errors_total",
				Help: "Total number of fetch failures per source",
			},
			[]string{"source"},
		),
	}
}

// RecordScan records a completed scan with its outcome ("ok", "empty", "failed")
func (r *Recorder) RecordScan(outcome string, seconds float64) {
	r.scansTotal.WithLabelValues(outcome).Inc()
	r.scanDuration.Observe(seconds)
}

// RecordSeriesFetched records a successfully fetched series
func (r *Recorder) RecordSeriesFetched(source string) {
	r.seriesFetched.WithLabelValues(source).Inc()
}

// RecordFetchError records a fetch failure
func (r *Recorder) RecordFetchError(source string) {
	r.fetchErrors.WithLabelValues(source).Inc()
}

// Handler returns the HTTP handler serving the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
