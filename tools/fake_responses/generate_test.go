package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/artifact"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/extract"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
)

func TestGenerate_ParsesToUniqueAds(t *testing.T) {
	responses := Generate(rand.New(rand.NewSource(42)), Options{
		Ads:           40,
		PerPage:       7,
		DuplicateRate: 0.3,
		Malformed:     true,
	})
	require.NotEmpty(t, responses)

	data, err := artifact.MarshalResponses(responses)
	require.NoError(t, err)
	decoded, err := artifact.DecodeResponses(data)
	require.NoError(t, err)
	require.Len(t, decoded, len(responses))

	metrics := observability.NewRecordingRegistry()
	ads := extract.NewParser(zaptest.NewLogger(t), metrics).ParseResponses(decoded, 1000)
	assert.Len(t, ads, 40)

	ids := make(map[string]bool, len(ads))
	for _, ad := range ads {
		assert.False(t, ids[ad.AdID], "duplicate %s", ad.AdID)
		ids[ad.AdID] = true
		assert.NotNil(t, ad.StartDate)
		assert.NotEmpty(t, ad.Versions)
		assert.NotEmpty(t, ad.Platforms)
	}
	assert.Equal(t, 40, metrics.Count("extracted"))
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := Options{Ads: 15, PerPage: 4, DuplicateRate: 0.5, Malformed: true}
	a, err := artifact.MarshalResponses(Generate(rand.New(rand.NewSource(7)), opts))
	require.NoError(t, err)
	b, err := artifact.MarshalResponses(Generate(rand.New(rand.NewSource(7)), opts))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
