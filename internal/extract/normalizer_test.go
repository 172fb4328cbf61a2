package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

func TestNormalizeResult_Full(t *testing.T) {
	result := mustParse(t, `{
		"ad_archive_id": "123",
		"is_active": true,
		"publisher_platform": ["FACEBOOK","INSTAGRAM"],
		"start_date": 1700000000,
		"end_date": null,
		"snapshot": {
			"page_name": "Acme",
			"page_profile_uri": "https://facebook.com/acme",
			"cards": [
				{"body":"Buy now","title":"T1","link_url":"https://acme.test","cta_text":"Shop","cta_type":"SHOP_NOW","video_hd_url":"v.mp4","resized_image_url":"i.jpg"},
				{"title":"T2","original_image_url":"o.jpg","caption":"acme.test"},
				{"body":null}
			]
		}
	}`)

	ad, err := NormalizeResult(result)
	require.NoError(t, err)

	assert.Equal(t, "123", ad.AdID)
	assert.Equal(t, models.StatusActive, ad.Status)
	assert.Equal(t, []string{"Facebook", "Instagram"}, ad.Platforms)
	assert.Equal(t, models.StringPtr("2023-11-14"), ad.StartDate)
	assert.Nil(t, ad.EndDate)
	assert.Equal(t, models.StringPtr("Acme"), ad.PageName)
	assert.Equal(t, models.StringPtr("https://facebook.com/acme"), ad.PageProfileURI)
	require.Len(t, ad.Versions, 3)
	assert.Equal(t, 3, ad.VersionCount)

	v1 := ad.Versions[0]
	assert.Equal(t, models.StringPtr("Buy now"), v1.AdCopy)
	assert.Equal(t, models.AssetVideo, v1.AssetType)
	assert.Equal(t, models.StringPtr("v.mp4"), v1.VideoURL)
	assert.Nil(t, v1.ImageURL)
	assert.Equal(t, models.StringPtr("SHOP_NOW"), v1.CTAType)

	v2 := ad.Versions[1]
	assert.Equal(t, models.StringPtr(""), v2.AdCopy, "absent body defaults to empty copy")
	assert.Equal(t, models.AssetImage, v2.AssetType)
	assert.Equal(t, models.StringPtr("o.jpg"), v2.ImageURL)
	assert.Equal(t, models.StringPtr("acme.test"), v2.Caption)

	assert.Nil(t, ad.Versions[2].AdCopy, "explicit null body stays null")
	assert.Equal(t, models.AssetNone, ad.Versions[2].AssetType)
}

func TestNormalizeResult_NumericIDAndInactive(t *testing.T) {
	ad, err := NormalizeResult(mustParse(t, `{"ad_archive_id": 987654321987654321, "snapshot": {"cards": [{}]}}`))
	require.NoError(t, err)
	assert.Equal(t, "987654321987654321", ad.AdID)
	assert.Equal(t, models.StatusInactive, ad.Status)
	assert.Empty(t, ad.Platforms)
	assert.Nil(t, ad.PageName)
}

func TestNormalizeResult_ScalarCardsSkipped(t *testing.T) {
	result := mustParse(t, `{"ad_archive_id":"9","snapshot":{"cards":["x",{"title":"A"},null,[1],{"title":"B"}]}}`)

	ad, err := NormalizeResult(result)
	require.NoError(t, err)
	require.Len(t, ad.Versions, 2)
	assert.Equal(t, models.StringPtr("A"), ad.Versions[0].Title)
	assert.Equal(t, models.StringPtr("B"), ad.Versions[1].Title)
	assert.Equal(t, 2, ad.VersionCount)
}

func TestNormalizeResult_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"missing id", `{"snapshot":{"cards":[{}]}}`, ErrMissingAdID},
		{"empty id", `{"ad_archive_id":"","snapshot":{"cards":[{}]}}`, ErrMissingAdID},
		{"zero id", `{"ad_archive_id":0,"snapshot":{"cards":[{}]}}`, ErrMissingAdID},
		{"object id", `{"ad_archive_id":{"x":1},"snapshot":{"cards":[{}]}}`, ErrMissingAdID},
		{"no snapshot", `{"ad_archive_id":"1"}`, ErrNoCards},
		{"empty cards", `{"ad_archive_id":"1","snapshot":{"cards":[]}}`, ErrNoCards},
		{"cards not a list", `{"ad_archive_id":"1","snapshot":{"cards":{"a":1}}}`, ErrNoCards},
		{"only scalar cards", `{"ad_archive_id":"1","snapshot":{"cards":[1,"x",null]}}`, ErrNoCards},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeResult(mustParse(t, tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "missing_ad_id", RejectReason(ErrMissingAdID))
	assert.Equal(t, "no_cards", RejectReason(ErrNoCards))
	assert.Equal(t, "other", RejectReason(assert.AnError))
}
