package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics.
// Components take it as a dependency instead of touching the Prometheus globals.
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Extraction metrics
	IncrementAdsExtracted()
	IncrementResultsRejected(reason string)
	IncrementDuplicateAds()

	// Reconciliation metrics
	IncrementReconcileOutcome(outcome string)
	RecordReconcileDuration(duration time.Duration)

	// Side channel metrics
	IncrementNotifyErrors()
	IncrementAuditErrors()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementAdsExtracted() {
	AdsExtracted.Inc()
}

func (r *PrometheusRegistry) IncrementResultsRejected(reason string) {
	ResultsRejected.WithLabelValues(reason).Inc()
}

func (r *PrometheusRegistry) IncrementDuplicateAds() {
	DuplicateAds.Inc()
}

func (r *PrometheusRegistry) IncrementReconcileOutcome(outcome string) {
	ReconcileOutcomes.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) RecordReconcileDuration(duration time.Duration) {
	ReconcileDuration.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementNotifyErrors() {
	NotifyErrors.Inc()
}

func (r *PrometheusRegistry) IncrementAuditErrors() {
	AuditErrors.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementAdsExtracted()                                               {}
func (r *NoOpRegistry) IncrementResultsRejected(reason string)                               {}
func (r *NoOpRegistry) IncrementDuplicateAds()                                               {}
func (r *NoOpRegistry) IncrementReconcileOutcome(outcome string)                             {}
func (r *NoOpRegistry) RecordReconcileDuration(duration time.Duration)                       {}
func (r *NoOpRegistry) IncrementNotifyErrors()                                               {}
func (r *NoOpRegistry) IncrementAuditErrors()                                                {}
