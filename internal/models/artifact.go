package models

import (
	"time"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/rawdoc"
)

// ScrapedAtLayout is the timestamp layout used for Artifact.ScrapedAt.
const ScrapedAtLayout = "2006-01-02 15:04:05"

// RawResponse is one captured GraphQL response as written by the capture
// step: the request URL and the decoded response body.
type RawResponse struct {
	URL  string      `json:"url"`
	Data rawdoc.Node `json:"data"`
}

// Artifact is the canonical output of a parse run and the input of an import.
type Artifact struct {
	TotalAds  int           `json:"total_ads"`
	ScrapedAt string        `json:"scraped_at"`
	Ads       []CanonicalAd `json:"ads"`
}

// NewArtifact wraps ads into an Artifact stamped with now.
func NewArtifact(ads []CanonicalAd, now time.Time) Artifact {
	if ads == nil {
		ads = []CanonicalAd{}
	}
	return Artifact{
		TotalAds:  len(ads),
		ScrapedAt: now.Format(ScrapedAtLayout),
		Ads:       ads,
	}
}
