// Package reporting summarizes reconciliation runs from the ClickHouse
// import audit log: daily outcome counts and the ads that fail most often.
package reporting

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// FailingAd is an ad that failed reconciliation at least once in the period.
type FailingAd struct {
	AdID      string    `json:"ad_id"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error"`
	LastSeen  time.Time `json:"last_seen"`
}

// ImportSummary contains import activity over a reporting period.
type ImportSummary struct {
	Days        int                      `json:"days"`
	Totals      models.ImportReportRow   `json:"totals"`
	Daily       []models.ImportReportRow `json:"daily"`
	FailureRate float64                  `json:"failure_rate"` // failed / all outcomes, 0-100
	TopFailures []FailingAd              `json:"top_failures"`
}

// GenerateImportReport queries ClickHouse for the last days of import events.
func GenerateImportReport(ctx context.Context, db *sql.DB, days int) (*ImportSummary, error) {
	if days < 1 {
		days = 1
	}
	summary := &ImportSummary{Days: days}

	daily, err := getDailyOutcomes(ctx, db, days)
	if err != nil {
		return nil, fmt.Errorf("get daily outcomes: %w", err)
	}
	summary.Daily = daily

	totals := models.ImportReportRow{Date: "total"}
	for _, d := range daily {
		totals.Runs += d.Runs
		totals.Inserted += d.Inserted
		totals.Updated += d.Updated
		totals.Failed += d.Failed
	}
	summary.Totals = totals
	if all := totals.Inserted + totals.Updated + totals.Failed; all > 0 {
		summary.FailureRate = float64(totals.Failed) / float64(all) * 100
	}

	top, err := getTopFailures(ctx, db, days, 5)
	if err != nil {
		return nil, fmt.Errorf("get top failures: %w", err)
	}
	summary.TopFailures = top

	return summary, nil
}

// getDailyOutcomes groups outcomes by day, newest first.
func getDailyOutcomes(ctx context.Context, db *sql.DB, days int) ([]models.ImportReportRow, error) {
	query := `
		SELECT
			toDate(timestamp) as date,
			uniqExact(run_id) as runs,
			countIf(outcome = 'inserted') as inserted,
			countIf(outcome = 'updated') as updated,
			countIf(outcome = 'failed') as failed
		FROM import_events
		WHERE timestamp >= now() - INTERVAL ? DAY
		GROUP BY date
		ORDER BY date DESC`

	rows, err := db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("query daily outcomes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.ImportReportRow
	for rows.Next() {
		var r models.ImportReportRow
		var date time.Time
		if err := rows.Scan(&date, &r.Runs, &r.Inserted, &r.Updated, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan daily outcomes: %w", err)
		}
		r.Date = date.Format("2006-01-02")
		out = append(out, r)
	}
	return out, rows.Err()
}

// getTopFailures returns the ads with the most failed outcomes.
func getTopFailures(ctx context.Context, db *sql.DB, days, limit int) ([]FailingAd, error) {
	query := `
		SELECT
			ad_id,
			count() as failures,
			argMax(error, timestamp) as last_error,
			max(timestamp) as last_seen
		FROM import_events
		WHERE outcome = 'failed'
			AND timestamp >= now() - INTERVAL ? DAY
		GROUP BY ad_id
		ORDER BY failures DESC, last_seen DESC
		LIMIT ?`

	rows, err := db.QueryContext(ctx, query, days, limit)
	if err != nil {
		return nil, fmt.Errorf("query top failures: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []FailingAd
	for rows.Next() {
		var f FailingAd
		if err := rows.Scan(&f.AdID, &f.Failures, &f.LastError, &f.LastSeen); err != nil {
			return nil, fmt.Errorf("scan top failures: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
