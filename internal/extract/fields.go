package extract

import (
	"strings"
	"time"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/rawdoc"
)

// Unix second bounds of years 0001 through 9999.
const (
	minUnixSeconds = -62135596800
	maxUnixSeconds = 253402300799
)

// platformNames maps Ad Library publisher platform codes to display names.
var platformNames = map[string]string{
	"FACEBOOK":         "Facebook",
	"INSTAGRAM":        "Instagram",
	"MESSENGER":        "Messenger",
	"WHATSAPP":         "WhatsApp",
	"AUDIENCE_NETWORK": "Audience Network",
}

// Asset is the media chosen for a creative card.
type Asset struct {
	ImageURL *string
	VideoURL *string
	Type     models.AssetType
}

// assetFields lists card fields in precedence order.
var assetFields = []struct {
	key string
	typ models.AssetType
}{
	{"video_hd_url", models.AssetVideo},
	{"video_sd_url", models.AssetVideo},
	{"resized_image_url", models.AssetImage},
	{"original_image_url", models.AssetImage},
}

// TimestampToDate converts epoch seconds to a UTC calendar date. Absent or
// zero input yields nil; a value that cannot be converted is returned as
// its own text.
func TimestampToDate(n rawdoc.Node) *string {
	if !n.Truthy() {
		return nil
	}
	if n.IsNumber() {
		if secs, ok := n.Int64(); ok && secs >= minUnixSeconds && secs <= maxUnixSeconds {
			d := time.Unix(secs, 0).UTC().Format(models.DateLayout)
			return &d
		}
	}
	if s, ok := n.Text(); ok {
		return &s
	}
	return nil
}

// NormalizePlatform maps a platform code to its display name. Unknown codes
// pass through unchanged; empty codes report false.
func NormalizePlatform(code string) (string, bool) {
	if code == "" {
		return "", false
	}
	if name, ok := platformNames[strings.ToUpper(code)]; ok {
		return name, true
	}
	return code, true
}

// NormalizePlatforms maps a list of platform codes, dropping empty and
// non-text entries and repeated names.
func NormalizePlatforms(n rawdoc.Node) []string {
	items := n.Items()
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		code, ok := item.Str()
		if !ok {
			continue
		}
		name, ok := NormalizePlatform(code)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// SelectCreativeAsset picks the card's asset: HD video, SD video, resized
// image, original image, first non-empty wins.
func SelectCreativeAsset(card rawdoc.Node) Asset {
	for _, f := range assetFields {
		url, ok := card.Get(f.key).Str()
		if !ok || url == "" {
			continue
		}
		if f.typ == models.AssetVideo {
			return Asset{VideoURL: &url, Type: f.typ}
		}
		return Asset{ImageURL: &url, Type: f.typ}
	}
	return Asset{}
}

// optText returns the node's text, or nil when absent or not a scalar.
func optText(n rawdoc.Node) *string {
	s, ok := n.Text()
	if !ok {
		return nil
	}
	return &s
}
