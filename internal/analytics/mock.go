package analytics

import (
	"context"
	"sync"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

var _ AnalyticsService = (*MockAnalytics)(nil)

// MockAnalytics keeps import events in memory for testing.
type MockAnalytics struct {
	mu     sync.Mutex
	Events []models.ImportEvent
	// Err, when set, is returned by RecordImportEvents.
	Err error
}

// NewMockAnalytics creates a new mock analytics instance
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordImportEvents appends events unless Err is set.
func (m *MockAnalytics) RecordImportEvents(ctx context.Context, events []models.ImportEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, events...)
	return nil
}

// EventsByRun filters the recorded events by run.
func (m *MockAnalytics) EventsByRun(ctx context.Context, runID string) ([]models.ImportEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ImportEvent
	for _, ev := range m.Events {
		if ev.RunID == runID {
			out = append(out, ev)
		}
	}
	return out, nil
}
