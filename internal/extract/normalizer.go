package extract

import (
	"errors"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/rawdoc"
)

// Rejection reasons for collated results. They are expected with real
// traffic and never stop a run.
var (
	ErrMissingAdID = errors.New("missing ad_archive_id")
	ErrNoCards     = errors.New("missing or empty snapshot cards")
)

// RejectReason returns the metric label for a rejection error.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingAdID):
		return "missing_ad_id"
	case errors.Is(err, ErrNoCards):
		return "no_cards"
	default:
		return "other"
	}
}

// NormalizeResult builds a CanonicalAd from one collated result node. Status,
// dates, platforms and page identity come from the node once; each snapshot
// card becomes one version, in card order.
func NormalizeResult(result rawdoc.Node) (models.CanonicalAd, error) {
	if !result.Get("ad_archive_id").Truthy() {
		return models.CanonicalAd{}, ErrMissingAdID
	}
	adID, ok := result.Get("ad_archive_id").Text()
	if !ok {
		return models.CanonicalAd{}, ErrMissingAdID
	}

	snapshot := result.Get("snapshot")
	versions := make([]models.CreativeVersion, 0, snapshot.Get("cards").Len())
	for _, card := range snapshot.Get("cards").Items() {
		if !card.IsObject() {
			continue
		}
		versions = append(versions, parseCard(card))
	}
	if len(versions) == 0 {
		return models.CanonicalAd{}, ErrNoCards
	}

	status := models.StatusInactive
	if result.Get("is_active").Truthy() {
		status = models.StatusActive
	}

	return models.CanonicalAd{
		AdID:           adID,
		Status:         status,
		Platforms:      NormalizePlatforms(result.Get("publisher_platform")),
		StartDate:      TimestampToDate(result.Get("start_date")),
		EndDate:        TimestampToDate(result.Get("end_date")),
		PageName:       optText(snapshot.Get("page_name")),
		PageProfileURI: optText(snapshot.Get("page_profile_uri")),
		Versions:       versions,
		VersionCount:   len(versions),
	}, nil
}

// parseCard extracts one creative version. A card without a body key gets
// an empty ad copy; an explicit null body stays null.
func parseCard(card rawdoc.Node) models.CreativeVersion {
	asset := SelectCreativeAsset(card)

	var adCopy *string
	if body, ok := card.Lookup("body"); ok {
		adCopy = optText(body)
	} else {
		adCopy = models.StringPtr("")
	}

	return models.CreativeVersion{
		AdCopy:          adCopy,
		Title:           optText(card.Get("title")),
		ImageURL:        asset.ImageURL,
		VideoURL:        asset.VideoURL,
		AssetType:       asset.Type,
		LinkURL:         optText(card.Get("link_url")),
		LinkDescription: optText(card.Get("link_description")),
		CTAText:         optText(card.Get("cta_text")),
		CTAType:         optText(card.Get("cta_type")),
		Caption:         optText(card.Get("caption")),
	}
}
