package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

// seedAd commits one ad with the given platforms and version count.
func seedAd(t *testing.T, m *Memory, adID string, status models.AdStatus, start string, page string, created time.Time, platforms []string, versions int) string {
	t.Helper()
	ctx := context.Background()
	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	ad := &models.Ad{
		AdID:      adID,
		Status:    status,
		StartDate: day(start),
		PageName:  models.StringPtr(page),
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, tx.InsertAd(ctx, ad))
	for _, p := range platforms {
		require.NoError(t, tx.InsertPlatform(ctx, &models.AdPlatform{AdRowID: ad.ID, Platform: p}))
	}
	for i := 1; i <= versions; i++ {
		require.NoError(t, tx.InsertVersion(ctx, &models.AdVersion{AdRowID: ad.ID, VersionNumber: i}))
	}
	require.NoError(t, tx.Commit())
	return ad.ID
}

func TestMemory_RollbackDiscards(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	ad := &models.Ad{AdID: "A1", Status: models.StatusActive, StartDate: day("2024-01-01"), PageName: models.StringPtr("P")}
	require.NoError(t, tx.InsertAd(ctx, ad))
	require.NoError(t, tx.InsertVersion(ctx, &models.AdVersion{AdRowID: ad.ID, VersionNumber: 1}))
	require.NoError(t, tx.Rollback())
	require.NoError(t, tx.Rollback(), "second rollback is a no-op")

	ads, versions, platforms := m.Counts()
	assert.Equal(t, 0, ads)
	assert.Equal(t, 0, versions)
	assert.Equal(t, 0, platforms)

	_, err = m.GetAd(ctx, "A1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemory_UncommittedInvisible(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertAd(ctx, &models.Ad{AdID: "A1", Status: models.StatusActive, StartDate: day("2024-01-01"), PageName: models.StringPtr("P")}))

	n, err := m.CountAds(ctx, models.AdFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, tx.Commit())
	n, err = m.CountAds(ctx, models.AdFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemory_Constraints(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rowID := seedAd(t, m, "A1", models.StatusActive, "2024-01-01", "P", time.Now(), []string{"Facebook"}, 1)

	tests := []struct {
		name string
		op   func(tx models.RecordTx) error
		want error
	}{
		{"duplicate ad_id", func(tx models.RecordTx) error {
			return tx.InsertAd(ctx, &models.Ad{AdID: "A1", Status: models.StatusActive, StartDate: day("2024-01-01"), PageName: models.StringPtr("P")})
		}, ErrConflict},
		{"null start_date", func(tx models.RecordTx) error {
			return tx.InsertAd(ctx, &models.Ad{AdID: "A2", Status: models.StatusActive, PageName: models.StringPtr("P")})
		}, ErrConstraint},
		{"null page_name", func(tx models.RecordTx) error {
			return tx.InsertAd(ctx, &models.Ad{AdID: "A2", Status: models.StatusActive, StartDate: day("2024-01-01")})
		}, ErrConstraint},
		{"bad status", func(tx models.RecordTx) error {
			return tx.InsertAd(ctx, &models.Ad{AdID: "A2", Status: "paused", StartDate: day("2024-01-01"), PageName: models.StringPtr("P")})
		}, ErrConstraint},
		{"duplicate version number", func(tx models.RecordTx) error {
			return tx.InsertVersion(ctx, &models.AdVersion{AdRowID: rowID, VersionNumber: 1})
		}, ErrConflict},
		{"orphan version", func(tx models.RecordTx) error {
			return tx.InsertVersion(ctx, &models.AdVersion{AdRowID: "nope", VersionNumber: 1})
		}, ErrConstraint},
		{"duplicate platform", func(tx models.RecordTx) error {
			return tx.InsertPlatform(ctx, &models.AdPlatform{AdRowID: rowID, Platform: "Facebook"})
		}, ErrConflict},
		{"update missing row", func(tx models.RecordTx) error {
			return tx.UpdateAd(ctx, models.Ad{ID: "nope"})
		}, models.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := m.Begin(ctx)
			require.NoError(t, err)
			defer func() { _ = tx.Rollback() }()
			err = tt.op(tx)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMemory_ReplaceChildren(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	rowID := seedAd(t, m, "A1", models.StatusActive, "2024-01-01", "P", time.Now(), []string{"Facebook", "Instagram"}, 3)

	tx, err := m.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteVersions(ctx, rowID))
	require.NoError(t, tx.DeletePlatforms(ctx, rowID))
	require.NoError(t, tx.InsertVersion(ctx, &models.AdVersion{AdRowID: rowID, VersionNumber: 1}))
	require.NoError(t, tx.Commit())

	ad, err := m.GetAd(ctx, rowID)
	require.NoError(t, err)
	assert.Len(t, ad.Versions, 1)
	assert.Empty(t, ad.Platforms)
}

func TestMemory_Reads(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seedAd(t, m, "A1", models.StatusActive, "2024-01-01", "Acme Shoes", base, []string{"Facebook", "Instagram"}, 2)
	seedAd(t, m, "A2", models.StatusInactive, "2024-01-01", "Globex", base.Add(time.Hour), []string{"Facebook"}, 1)
	seedAd(t, m, "A3", models.StatusActive, "2024-02-10", "ACME Hats", base.Add(2*time.Hour), []string{"Messenger"}, 1)

	page, err := m.ListAds(ctx, models.AdFilter{}, models.Pagination{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Data, 2)
	assert.Equal(t, "A3", page.Data[0].AdID, "newest first")
	assert.Equal(t, "A2", page.Data[1].AdID)

	page, err = m.ListAds(ctx, models.AdFilter{}, models.Pagination{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	page, err = m.ListAds(ctx, models.AdFilter{PageName: "acme"}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, models.DefaultPageLimit, page.Limit)

	n, err := m.CountAds(ctx, models.AdFilter{Platform: "Facebook", Status: models.StatusActive})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = m.CountAds(ctx, models.AdFilter{StartDate: day("2024-02-01")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ad, err := m.GetAd(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, ad.Versions, 2)
	assert.Equal(t, 1, ad.Versions[0].VersionNumber)
	require.Len(t, ad.Platforms, 2)
	assert.Equal(t, "Facebook", ad.Platforms[0].Platform)

	stats, err := models.CollectStats(ctx, m, models.AdFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, []models.DateCount{
		{Date: "2024-01-01", Count: 2, Active: 1, Inactive: 1},
		{Date: "2024-02-10", Count: 1, Active: 1},
	}, stats.ByDate)
	assert.Equal(t, []models.PlatformCount{
		{Platform: "Facebook", Count: 2},
		{Platform: "Instagram", Count: 1},
		{Platform: "Messenger", Count: 1},
	}, stats.ByPlatform)
}
