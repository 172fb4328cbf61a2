package analytics

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

func TestRecordImportEvents_Unavailable(t *testing.T) {
	var a *Analytics
	err := a.RecordImportEvents(context.Background(), []models.ImportEvent{{AdID: "1"}})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = (&Analytics{}).EventsByRun(context.Background(), "run")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRecordImportEvents_Batch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO import_events"))
	prep.ExpectExec().
		WithArgs(ts, "run-1", "A1", "inserted", uint32(2), uint32(1), "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(ts, "run-1", "A2", "failed", uint32(0), uint32(0), "boom").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a := &Analytics{DB: db}
	err = a.RecordImportEvents(context.Background(), []models.ImportEvent{
		{Timestamp: ts, RunID: "run-1", AdID: "A1", Outcome: models.OutcomeInserted, Versions: 2, Platforms: 1},
		{Timestamp: ts, RunID: "run-1", AdID: "A2", Outcome: models.OutcomeFailed, Error: "boom"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordImportEvents_ExecErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO import_events")).
		ExpectExec().
		WillReturnError(errors.New("table missing"))
	mock.ExpectRollback()

	a := &Analytics{DB: db}
	err = a.RecordImportEvents(context.Background(), []models.ImportEvent{{RunID: "r", AdID: "A1", Outcome: models.OutcomeUpdated}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventsByRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"timestamp", "run_id", "ad_id", "outcome", "versions", "platforms", "error"}).
		AddRow(ts, "run-1", "A1", "updated", uint32(3), uint32(2), "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM import_events WHERE run_id=?")).
		WithArgs("run-1").
		WillReturnRows(rows)

	a := &Analytics{DB: db}
	events, err := a.EventsByRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.OutcomeUpdated, events[0].Outcome)
	assert.Equal(t, 3, events[0].Versions)
	assert.Equal(t, 2, events[0].Platforms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockAnalytics(t *testing.T) {
	m := NewMockAnalytics()
	ctx := context.Background()
	require.NoError(t, m.RecordImportEvents(ctx, []models.ImportEvent{{RunID: "a", AdID: "1"}, {RunID: "b", AdID: "2"}}))

	got, err := m.EventsByRun(ctx, "b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].AdID)

	m.Err = ErrUnavailable
	assert.ErrorIs(t, m.RecordImportEvents(ctx, nil), ErrUnavailable)
}
