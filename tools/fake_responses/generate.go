package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/rawdoc"
)

const graphqlURL = "https://www.facebook.com/api/graphql/"

// Options controls the shape of the generated capture.
type Options struct {
	Ads           int     // unique ads across all pages
	PerPage       int     // collated results per response
	DuplicateRate float64 // chance that a slot repeats an earlier ad
	Malformed     bool    // add error pages and results that must be skipped
	Since         time.Time
}

var pageNames = []string{"Acme Shoes", "Prime Fitness", "Bright Dental", "Next Bank", "Super Pets", "Fast Coffee"}
var bodies = []string{"Limited time offer", "Free shipping this week", "Book your visit today", "New arrivals are here", "Join thousands of happy customers"}
var ctas = [][2]string{{"Shop now", "SHOP_NOW"}, {"Learn more", "LEARN_MORE"}, {"Sign up", "SIGN_UP"}, {"Book now", "BOOK_TRAVEL"}}
var platformCodes = []string{"FACEBOOK", "INSTAGRAM", "MESSENGER", "AUDIENCE_NETWORK", "THREADS"}

// Generate builds a capture of raw GraphQL responses. Ad IDs are numeric
// strings so the fixtures look like real archive identifiers.
func Generate(r *rand.Rand, o Options) []models.RawResponse {
	if o.PerPage < 1 {
		o.PerPage = 10
	}
	if o.Since.IsZero() {
		o.Since = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	var (
		out     []models.RawResponse
		seen    []map[string]any
		results []any
		next    int
	)
	flush := func() {
		if len(results) == 0 {
			return
		}
		out = append(out, page(results))
		results = nil
	}

	for next < o.Ads {
		if len(seen) > 0 && r.Float64() < o.DuplicateRate {
			// a later observation of an earlier ad, with different cards
			dup := cloneResult(seen[r.Intn(len(seen))])
			dup["snapshot"].(map[string]any)["cards"] = cards(r, 1)
			results = append(results, dup)
		} else {
			res := fakeResult(r, o.Since, next)
			seen = append(seen, res)
			results = append(results, res)
			next++
		}
		if o.Malformed && r.Intn(8) == 0 {
			results = append(results, malformedResult(r))
		}
		if len(results) >= o.PerPage {
			flush()
			if o.Malformed && r.Intn(4) == 0 {
				out = append(out, models.RawResponse{
					URL:  graphqlURL,
					Data: rawdoc.New(map[string]any{"errors": []any{map[string]any{"message": "Rate limit exceeded"}}}),
				})
			}
		}
	}
	flush()
	return out
}

func page(results []any) models.RawResponse {
	return models.RawResponse{
		URL: graphqlURL,
		Data: rawdoc.New(map[string]any{
			"data": map[string]any{
				"ad_library_main": map[string]any{
					"search_results_connection": map[string]any{
						"edges": []any{
							map[string]any{"node": map[string]any{"collated_results": results}},
						},
					},
				},
			},
		}),
	}
}

func fakeResult(r *rand.Rand, since time.Time, n int) map[string]any {
	start := since.AddDate(0, 0, r.Intn(120))
	res := map[string]any{
		"ad_archive_id":      fmt.Sprintf("%d", 1200000000000000+int64(n)*7919),
		"is_active":          r.Intn(3) != 0,
		"publisher_platform": platforms(r),
		"start_date":         start.Unix(),
		"snapshot": map[string]any{
			"page_name":        pageNames[r.Intn(len(pageNames))],
			"page_profile_uri": fmt.Sprintf("https://www.facebook.com/page%d", r.Intn(1000)),
			"cards":            cards(r, 1+r.Intn(3)),
		},
	}
	if r.Intn(2) == 0 {
		res["end_date"] = start.AddDate(0, 0, 1+r.Intn(30)).Unix()
	}
	return res
}

func platforms(r *rand.Rand) []any {
	n := 1 + r.Intn(3)
	out := make([]any, 0, n)
	for _, i := range r.Perm(len(platformCodes))[:n] {
		out = append(out, platformCodes[i])
	}
	return out
}

func cards(r *rand.Rand, n int) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		cta := ctas[r.Intn(len(ctas))]
		card := map[string]any{
			"body":     bodies[r.Intn(len(bodies))],
			"title":    fmt.Sprintf("Offer %d", r.Intn(100)),
			"link_url": fmt.Sprintf("https://shop.example.com/p/%d", r.Intn(10000)),
			"cta_text": cta[0],
			"cta_type": cta[1],
		}
		switch r.Intn(3) {
		case 0:
			card["video_hd_url"] = fmt.Sprintf("https://video.example.com/%d_hd.mp4", r.Intn(10000))
			card["video_preview_image_url"] = fmt.Sprintf("https://img.example.com/%d.jpg", r.Intn(10000))
		case 1:
			card["resized_image_url"] = fmt.Sprintf("https://img.example.com/%d_600.jpg", r.Intn(10000))
			card["original_image_url"] = fmt.Sprintf("https://img.example.com/%d.jpg", r.Intn(10000))
		}
		out = append(out, card)
	}
	return out
}

// malformedResult lacks either an id or any cards and must be rejected.
func malformedResult(r *rand.Rand) map[string]any {
	if r.Intn(2) == 0 {
		return map[string]any{"is_active": true, "snapshot": map[string]any{"cards": cards(r, 1)}}
	}
	return map[string]any{"ad_archive_id": "", "snapshot": map[string]any{"cards": []any{}}}
}

func cloneResult(res map[string]any) map[string]any {
	out := make(map[string]any, len(res))
	for k, v := range res {
		out[k] = v
	}
	snap := res["snapshot"].(map[string]any)
	s := make(map[string]any, len(snap))
	for k, v := range snap {
		s[k] = v
	}
	out["snapshot"] = s
	return out
}
