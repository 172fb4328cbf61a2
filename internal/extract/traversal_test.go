package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
)

// response builds a captured response holding one edge per group of
// collated results.
func response(t *testing.T, groups ...[]string) models.RawResponse {
	t.Helper()
	edges := make([]string, 0, len(groups))
	for _, g := range groups {
		edges = append(edges, fmt.Sprintf(`{"node":{"collated_results":[%s]}}`, strings.Join(g, ",")))
	}
	body := fmt.Sprintf(`{"url":"https://www.facebook.com/api/graphql/","data":{"data":{"ad_library_main":{"search_results_connection":{"edges":[%s]}}}}}`,
		strings.Join(edges, ","))
	var resp models.RawResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	return resp
}

func result(id string, cards ...string) string {
	if len(cards) == 0 {
		cards = []string{`{"body":"b"}`}
	}
	return fmt.Sprintf(`{"ad_archive_id":%q,"is_active":true,"snapshot":{"page_name":"P","cards":[%s]}}`,
		id, strings.Join(cards, ","))
}

func ids(ads []models.CanonicalAd) []string {
	out := make([]string, len(ads))
	for i, a := range ads {
		out[i] = a.AdID
	}
	return out
}

func TestParseResponses_FirstObservationWins(t *testing.T) {
	r1 := response(t, []string{
		result("A1",
			`{"body":"first","video_hd_url":"hd.mp4","resized_image_url":"x.jpg"}`,
			`{"body":"second","resized_image_url":"r.jpg"}`),
	})
	r2 := response(t, []string{
		result("A1", `{"body":"later","original_image_url":"o.jpg"}`),
	})

	metrics := observability.NewRecordingRegistry()
	p := NewParser(zaptest.NewLogger(t), metrics)
	ads := p.ParseResponses([]models.RawResponse{r1, r2}, 50)

	require.Len(t, ads, 1)
	ad := ads[0]
	assert.Equal(t, "A1", ad.AdID)
	assert.Equal(t, models.StatusActive, ad.Status)
	require.Len(t, ad.Versions, 2)
	assert.Equal(t, models.AssetVideo, ad.Versions[0].AssetType)
	assert.Nil(t, ad.Versions[0].ImageURL)
	assert.Equal(t, models.AssetImage, ad.Versions[1].AssetType)
	assert.Equal(t, models.StringPtr("first"), ad.Versions[0].AdCopy)

	assert.Equal(t, 1, metrics.Count("extracted"))
	assert.Equal(t, 1, metrics.Count("duplicates"))
}

func TestParseResponses_BoundKeepsTraversalOrder(t *testing.T) {
	r1 := response(t, []string{result("9"), result("5")}, []string{result("7")})
	r2 := response(t, []string{result("1"), result("2")})
	p := NewParser(nil, nil)

	assert.Equal(t, []string{"9", "5", "7"}, ids(p.ParseResponses([]models.RawResponse{r1, r2}, 3)))
	assert.Equal(t, []string{"9"}, ids(p.ParseResponses([]models.RawResponse{r1, r2}, 1)))
	assert.Equal(t, []string{"9", "5", "7", "1", "2"}, ids(p.ParseResponses([]models.RawResponse{r1, r2}, 50)))
	assert.Empty(t, p.ParseResponses([]models.RawResponse{r1, r2}, 0))
}

func TestParseResponses_DuplicatesDoNotConsumeBound(t *testing.T) {
	r := response(t, []string{result("a"), result("a"), result("b")})
	ads := NewParser(nil, nil).ParseResponses([]models.RawResponse{r}, 2)
	assert.Equal(t, []string{"a", "b"}, ids(ads))
}

func TestParseResponses_MalformedIsolated(t *testing.T) {
	var broken, noEdges, scalarData models.RawResponse
	require.NoError(t, json.Unmarshal([]byte(`{"url":"u","data":{"data":{"ad_library_main":null}}}`), &broken))
	require.NoError(t, json.Unmarshal([]byte(`{"url":"u","data":{"data":{"ad_library_main":{"search_results_connection":{"edges":"oops"}}}}}`), &noEdges))
	require.NoError(t, json.Unmarshal([]byte(`{"url":"u","data":"not json"}`), &scalarData))

	good := response(t,
		[]string{`{"ad_archive_id":"x"}`, result("ok1"), `"junk"`},
		[]string{},
	)
	var edgeWithoutNode models.RawResponse
	require.NoError(t, json.Unmarshal([]byte(`{"url":"u","data":{"data":{"ad_library_main":{"search_results_connection":{"edges":[{"cursor":"c"},{"node":{"collated_results":[`+result("ok2")+`]}}]}}}}}`), &edgeWithoutNode))

	metrics := observability.NewRecordingRegistry()
	ads := NewParser(zaptest.NewLogger(t), metrics).ParseResponses(
		[]models.RawResponse{broken, good, noEdges, scalarData, {}, edgeWithoutNode}, 50)

	assert.Equal(t, []string{"ok1", "ok2"}, ids(ads))
	assert.Equal(t, 1, metrics.Count("rejected:no_cards"))
	assert.Equal(t, 1, metrics.Count("rejected:missing_ad_id"))
}

func TestParseResponses_Deterministic(t *testing.T) {
	responses := []models.RawResponse{
		response(t, []string{result("3"), result("1")}),
		response(t, []string{result("1"), result("2"), result("3")}),
	}
	p := NewParser(nil, nil)
	first := p.ParseResponses(responses, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.ParseResponses(responses, 10))
	}
	assert.Equal(t, []string{"3", "1", "2"}, ids(first))
}
