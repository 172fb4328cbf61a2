package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total API requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adsync_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// ads accepted by response traversal
	AdsExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adsync_ads_extracted_total",
			Help: "Total canonical ads extracted from raw responses",
		},
	)

	// collated results that could not be normalized, by reason
	ResultsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_results_rejected_total",
			Help: "Total collated results skipped during normalization",
		},
		[]string{"reason"},
	)

	// later observations of an ad already accepted in the run
	DuplicateAds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adsync_duplicate_ads_total",
			Help: "Total duplicate ad observations discarded",
		},
	)

	// reconciliation outcomes: inserted, updated, failed
	ReconcileOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsync_reconcile_outcomes_total",
			Help: "Total reconciled ads by outcome",
		},
		[]string{"outcome"},
	)

	// wall time of a reconciliation run
	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsync_reconcile_duration_seconds",
			Help:    "Duration of reconciliation runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)

	// failures publishing change notifications
	NotifyErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adsync_notify_errors_total",
			Help: "Total ad change notifications that failed to publish",
		},
	)

	// failures writing the import audit log
	AuditErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adsync_audit_errors_total",
			Help: "Total import audit records that failed to write",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		AdsExtracted,
		ResultsRejected,
		DuplicateAds,
		ReconcileOutcomes,
		ReconcileDuration,
		NotifyErrors,
		AuditErrors,
	)
}
