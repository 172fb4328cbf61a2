package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
)

// AnalyticsService defines the interface for the import audit log.
// Implementations should handle cases where underlying storage is unavailable
// by returning ErrUnavailable.
type AnalyticsService interface {
	// RecordImportEvents appends the outcomes of one reconciliation run.
	RecordImportEvents(ctx context.Context, events []models.ImportEvent) error
	// EventsByRun returns the outcomes recorded for a run, oldest first.
	EventsByRun(ctx context.Context, runID string) ([]models.ImportEvent, error)
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// Analytics wraps a ClickHouse DB connection.
type Analytics struct {
	DB      *sql.DB
	Metrics observability.MetricsRegistry
}

const createImportEvents = `CREATE TABLE IF NOT EXISTS import_events (
       timestamp DateTime,
       run_id    String,
       ad_id     String,
       outcome   LowCardinality(String),
       versions  UInt32,
       platforms UInt32,
       error     String
   ) ENGINE=MergeTree() ORDER BY (outcome, timestamp)`

const insertImportEvent = `INSERT INTO import_events (timestamp, run_id, ad_id, outcome, versions, platforms, error) VALUES (?, ?, ?, ?, ?, ?, ?)`

// InitClickHouse connects to ClickHouse and ensures the import_events table exists.
func InitClickHouse(dsn string, metrics observability.MetricsRegistry) (*Analytics, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(5)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	a := &Analytics{DB: db, Metrics: metrics}
	if err := a.ensureSchema(context.Background()); err != nil {
		return nil, err
	}

	zap.L().Info("Connected to ClickHouse")
	return a, nil
}

func (a *Analytics) ensureSchema(ctx context.Context) error {
	if _, err := a.DB.ExecContext(ctx, createImportEvents); err != nil {
		return fmt.Errorf("clickhouse create table: %w", err)
	}
	return nil
}

// RecordImportEvents writes events as one batch.
func (a *Analytics) RecordImportEvents(ctx context.Context, events []models.ImportEvent) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := a.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertImportEvent)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, ev := range events {
		ts := ev.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, ts, ev.RunID, ev.AdID, string(ev.Outcome), uint32(ev.Versions), uint32(ev.Platforms), ev.Error); err != nil {
			zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("ad_id", ev.AdID))
			return fmt.Errorf("insert import event %s: %w", ev.AdID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// EventsByRun returns all events for a given run ordered by timestamp.
func (a *Analytics) EventsByRun(ctx context.Context, runID string) ([]models.ImportEvent, error) {
	if a == nil || a.DB == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT timestamp, run_id, ad_id, outcome, versions, platforms, error FROM import_events WHERE run_id=? ORDER BY timestamp`
	rows, err := a.DB.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query import events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("rows close", zap.Error(err))
		}
	}()

	var events []models.ImportEvent
	for rows.Next() {
		var ev models.ImportEvent
		var outcome string
		var versions, platforms uint32
		if err := rows.Scan(&ev.Timestamp, &ev.RunID, &ev.AdID, &outcome, &versions, &platforms, &ev.Error); err != nil {
			return nil, fmt.Errorf("scan import event: %w", err)
		}
		ev.Outcome = models.ImportOutcome(outcome)
		ev.Versions = int(versions)
		ev.Platforms = int(platforms)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}

// Close terminates the ClickHouse connection.
func (a *Analytics) Close() {
	if a != nil && a.DB != nil {
		if err := a.DB.Close(); err != nil {
			zap.L().Error("clickhouse close", zap.Error(err))
		}
	}
}
