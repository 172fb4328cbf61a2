package reporting

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateImportReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	day1 := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("uniqExact(run_id) as runs")).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"date", "runs", "inserted", "updated", "failed"}).
			AddRow(day1, 2, 10, 5, 5).
			AddRow(day2, 1, 20, 0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("argMax(error, timestamp) as last_error")).
		WithArgs(7, 5).
		WillReturnRows(sqlmock.NewRows([]string{"ad_id", "failures", "last_error", "last_seen"}).
			AddRow("A9", 3, "insert ad: null start_date", day1))

	summary, err := GenerateImportReport(context.Background(), db, 7)
	require.NoError(t, err)

	require.Len(t, summary.Daily, 2)
	assert.Equal(t, "2024-05-02", summary.Daily[0].Date)
	assert.Equal(t, 3, summary.Totals.Runs)
	assert.Equal(t, 30, summary.Totals.Inserted)
	assert.Equal(t, 5, summary.Totals.Updated)
	assert.Equal(t, 5, summary.Totals.Failed)
	assert.InDelta(t, 12.5, summary.FailureRate, 0.001)
	require.Len(t, summary.TopFailures, 1)
	assert.Equal(t, "A9", summary.TopFailures[0].AdID)
	assert.Equal(t, 3, summary.TopFailures[0].Failures)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateImportReport_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM import_events").
		WithArgs(1).
		WillReturnError(errors.New("connection refused"))

	_, err = GenerateImportReport(context.Background(), db, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get daily outcomes")
	assert.NoError(t, mock.ExpectationsWereMet())
}
