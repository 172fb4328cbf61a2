// Package extract turns captured Ad Library GraphQL responses into canonical
// ad records.
package extract

import (
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/rawdoc"
)

// searchResultsPath leads from a response body to the edge list.
var searchResultsPath = []string{"data", "ad_library_main", "search_results_connection", "edges"}

// Parser walks raw responses and collects deduplicated canonical ads.
type Parser struct {
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewParser returns a Parser. A nil logger or registry is replaced with a no-op.
func NewParser(logger *zap.Logger, metrics observability.MetricsRegistry) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Parser{logger: logger, metrics: metrics}
}

// CollatedResults returns the collated result nodes of one response in
// document order. Missing structure at any level yields fewer or no nodes.
func CollatedResults(resp models.RawResponse) []rawdoc.Node {
	var out []rawdoc.Node
	for _, edge := range resp.Data.Path(searchResultsPath...).Items() {
		out = append(out, edge.Path("node", "collated_results").Items()...)
	}
	return out
}

// ParseResponses normalizes every collated result in order, keeps the first
// observation of each ad_id and stops as soon as maxAds ads are accepted.
// A non-positive maxAds accepts nothing.
func (p *Parser) ParseResponses(responses []models.RawResponse, maxAds int) []models.CanonicalAd {
	ads := make([]models.CanonicalAd, 0)
	if maxAds <= 0 {
		return ads
	}
	seen := make(map[string]struct{})

	for i, resp := range responses {
		for _, result := range CollatedResults(resp) {
			ad, err := NormalizeResult(result)
			if err != nil {
				p.metrics.IncrementResultsRejected(RejectReason(err))
				p.logger.Debug("skipping collated result",
					zap.Int("response", i),
					zap.Error(err))
				continue
			}
			if _, dup := seen[ad.AdID]; dup {
				p.metrics.IncrementDuplicateAds()
				continue
			}
			seen[ad.AdID] = struct{}{}
			ads = append(ads, ad)
			p.metrics.IncrementAdsExtracted()

			if len(ads) >= maxAds {
				p.logger.Info("ad limit reached",
					zap.Int("max_ads", maxAds),
					zap.Int("response", i))
				return ads
			}
		}
	}

	p.logger.Info("parsed responses",
		zap.Int("responses", len(responses)),
		zap.Int("ads", len(ads)))
	return ads
}
