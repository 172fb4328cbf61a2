package observability

import (
	"sync"
	"time"
)

// RecordingRegistry counts every metric call by name so tests can assert on
// what a component reported.
type RecordingRegistry struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewRecordingRegistry returns an empty RecordingRegistry.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{counts: make(map[string]int)}
}

func (m *RecordingRegistry) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

// Count returns how many times key was recorded. Labelled metrics use
// "name:label" keys, e.g. "rejected:missing_ad_id" or "outcome:inserted".
func (m *RecordingRegistry) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *RecordingRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests:" + endpoint + ":" + status)
}

func (m *RecordingRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	m.inc("latency:" + endpoint)
}

func (m *RecordingRegistry) IncrementAdsExtracted()             { m.inc("extracted") }
func (m *RecordingRegistry) IncrementResultsRejected(r string)  { m.inc("rejected:" + r) }
func (m *RecordingRegistry) IncrementDuplicateAds()             { m.inc("duplicates") }
func (m *RecordingRegistry) IncrementReconcileOutcome(o string) { m.inc("outcome:" + o) }
func (m *RecordingRegistry) RecordReconcileDuration(time.Duration) {
	m.inc("reconcile_duration")
}
func (m *RecordingRegistry) IncrementNotifyErrors() { m.inc("notify_errors") }
func (m *RecordingRegistry) IncrementAuditErrors()  { m.inc("audit_errors") }
