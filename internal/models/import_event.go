package models

import "time"

// ImportOutcome is the result of reconciling one ad.
type ImportOutcome string

const (
	OutcomeInserted ImportOutcome = "inserted"
	OutcomeUpdated  ImportOutcome = "updated"
	OutcomeFailed   ImportOutcome = "failed"
)

// ImportEvent is one row of the import audit log.
type ImportEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RunID     string        `json:"run_id"`
	AdID      string        `json:"ad_id"`
	Outcome   ImportOutcome `json:"outcome"`
	Versions  int           `json:"versions"`
	Platforms int           `json:"platforms"`
	Error     string        `json:"error,omitempty"`
}

// ImportReportRow holds the outcome counts for one day of imports.
type ImportReportRow struct {
	Date     string `json:"date"`
	Runs     int    `json:"runs"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Failed   int    `json:"failed"`
}
