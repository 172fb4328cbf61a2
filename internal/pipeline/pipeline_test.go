package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/artifact"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/db"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/extract"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reconcile"
)

// Two captured pages: the second repeats A1 with different cards and adds A2.
const capturedResponses = `[
  {"url": "https://www.facebook.com/api/graphql/", "data": {"data": {"ad_library_main": {"search_results_connection": {"edges": [
    {"node": {"collated_results": [
      {"ad_archive_id": "A1", "is_active": true, "publisher_platform": ["FACEBOOK", "INSTAGRAM"], "start_date": 1709251200,
       "snapshot": {"page_name": "Acme", "page_profile_uri": "https://www.facebook.com/acme", "cards": [
         {"body": "Watch this", "video_hd_url": "https://video.test/hd.mp4", "resized_image_url": "https://img.test/poster.jpg"},
         {"body": "Or this", "resized_image_url": "https://img.test/r.jpg"}
       ]}}
    ]}}
  ]}}}},
  {"url": "https://www.facebook.com/api/graphql/", "data": {"data": {"ad_library_main": {"search_results_connection": {"edges": [
    {"node": {"collated_results": [
      {"ad_archive_id": "A1", "is_active": false, "start_date": 1709251200,
       "snapshot": {"page_name": "Acme", "cards": [{"body": "different", "original_image_url": "https://img.test/o.jpg"}]}},
      {"ad_archive_id": "A2", "is_active": false, "publisher_platform": ["MESSENGER"], "start_date": 1709337600, "end_date": 1709424000,
       "snapshot": {"page_name": "Globex", "cards": [{"title": "Sale"}]}}
    ]}}
  ]}}}},
  {"url": "https://www.facebook.com/api/graphql/", "data": {"errors": [{"message": "rate limited"}]}}
]`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newPipeline(t *testing.T, store *db.Memory) *Pipeline {
	logger := zaptest.NewLogger(t)
	return &Pipeline{
		Parser:    extract.NewParser(logger, nil),
		Engine:    reconcile.NewEngine(store, reconcile.WithLogger(logger)),
		Artifacts: artifact.NewStore(nil),
		Logger:    logger,
		Now:       func() time.Time { return time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC) },
	}
}

func TestParse_FirstObservationAndArtifact(t *testing.T) {
	in := writeFile(t, "responses.json", capturedResponses)
	out := filepath.Join(t.TempDir(), "ads.json")
	p := newPipeline(t, db.NewMemory())

	a, err := p.Parse(context.Background(), in, out, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, a.TotalAds)
	assert.Equal(t, "2024-03-03 08:00:00", a.ScrapedAt)

	a1 := a.Ads[0]
	assert.Equal(t, "A1", a1.AdID)
	assert.Equal(t, models.StatusActive, a1.Status)
	assert.Equal(t, []string{"Facebook", "Instagram"}, a1.Platforms)
	require.Len(t, a1.Versions, 2)
	assert.Equal(t, models.AssetVideo, a1.Versions[0].AssetType)
	assert.Nil(t, a1.Versions[0].ImageURL)
	assert.Equal(t, models.AssetImage, a1.Versions[1].AssetType)
	assert.Equal(t, models.StringPtr("2024-03-01"), a1.StartDate)

	saved, err := p.Artifacts.LoadCanonical(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, a, saved)
}

func TestRun_EndToEndIsIdempotent(t *testing.T) {
	in := writeFile(t, "responses.json", capturedResponses)
	store := db.NewMemory()
	p := newPipeline(t, store)
	ctx := context.Background()

	first, err := p.Run(ctx, in, "", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Failed)

	second, err := p.Run(ctx, in, "", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Updated)
	assert.Equal(t, 0, second.Inserted)

	ads, versions, platforms := store.Counts()
	assert.Equal(t, []int{2, 3, 3}, []int{ads, versions, platforms})

	a2, err := store.GetAd(ctx, "A2")
	require.NoError(t, err)
	require.NotNil(t, a2.EndDate)
	assert.Equal(t, "2024-03-03", a2.EndDate.Format(models.DateLayout))
}

func TestRun_BoundLimitsImport(t *testing.T) {
	in := writeFile(t, "responses.json", capturedResponses)
	store := db.NewMemory()

	sum, err := newPipeline(t, store).Run(context.Background(), in, "", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Total)

	_, err = store.GetAd(context.Background(), "A2")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestImportFile_InvalidArtifactWritesNothing(t *testing.T) {
	store := db.NewMemory()
	p := newPipeline(t, store)

	bad := writeFile(t, "ads.json", `{"total_ads": 1, "ads": [{"ad_id": 7}]}`)
	_, err := p.ImportFile(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, IsInputError(err))

	_, err = p.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.False(t, IsInputError(err))

	ads, _, _ := store.Counts()
	assert.Equal(t, 0, ads)
}

func TestParse_MalformedEntriesDoNotStopTheRest(t *testing.T) {
	valid := capturedResponses[1 : len(capturedResponses)-1]
	for name, bad := range map[string]string{
		"string":      `"junk"`,
		"number":      `42`,
		"numeric url": `{"url": 5, "data": {}}`,
		"data scalar": `{"url": "u", "data": "oops"}`,
	} {
		t.Run(name, func(t *testing.T) {
			in := writeFile(t, "responses.json", "["+bad+","+valid+"]")
			a, err := newPipeline(t, db.NewMemory()).Parse(context.Background(), in, "", 50)
			require.NoError(t, err)
			require.Equal(t, 2, a.TotalAds)
			assert.Equal(t, "A1", a.Ads[0].AdID)
			assert.Equal(t, "A2", a.Ads[1].AdID)
		})
	}
}

func TestImportFile_IncompleteAdsFailIndividually(t *testing.T) {
	store := db.NewMemory()
	p := newPipeline(t, store)

	in := writeFile(t, "ads.json", `{"total_ads": 4, "ads": [
		{"ad_id": "A1", "status": "active", "start_date": "2024-03-01", "page_name": "Acme", "versions": [{"title": "t"}]},
		{"ad_id": "A2", "status": "inactive", "start_date": "2024-03-02", "page_name": "Globex"},
		{"status": "active", "start_date": "2024-03-01", "page_name": "Nobody", "versions": []},
		{"ad_id": "A4", "start_date": "2024-03-01", "page_name": "Initech", "versions": []}
	]}`)
	sum, err := p.ImportFile(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Inserted)
	assert.Equal(t, 2, sum.Failed)
	require.Len(t, sum.Failures, 2)
	assert.Equal(t, reconcile.ErrMissingAdID.Error(), sum.Failures[0].Error)
	assert.Equal(t, "A4", sum.Failures[1].AdID)
	assert.Contains(t, sum.Failures[1].Error, reconcile.ErrUnknownStatus.Error())

	a2, err := store.GetAd(context.Background(), "A2")
	require.NoError(t, err)
	assert.Empty(t, a2.Versions)
}

func TestImport_RespectsLock(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()
	rs := &db.RedisStore{Client: redis.NewClient(&redis.Options{Addr: s.Addr()}), Ctx: context.Background()}
	defer rs.Close()

	store := db.NewMemory()
	p := newPipeline(t, store)
	p.Lock = rs
	p.LockTTL = time.Minute
	ctx := context.Background()

	held, err := rs.AcquireImportLock(ctx, time.Minute)
	require.NoError(t, err)

	a := models.NewArtifact([]models.CanonicalAd{{
		AdID: "A1", Status: models.StatusActive,
		StartDate: models.StringPtr("2024-01-01"), PageName: models.StringPtr("P"),
		Versions: []models.CreativeVersion{{}},
	}}, time.Now())

	_, err = p.Import(ctx, a)
	assert.True(t, errors.Is(err, db.ErrLockHeld))

	require.NoError(t, held.Release(ctx))
	sum, err := p.Import(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)

	// released after the run
	_, err = rs.AcquireImportLock(ctx, time.Minute)
	assert.NoError(t, err)
}
