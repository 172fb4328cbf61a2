package models

import (
	"encoding/json"
	"strings"
)

// DateLayout is the ISO calendar date layout used for ad start and end dates.
const DateLayout = "2006-01-02"

// AdStatus is the delivery state reported by the Ad Library for an ad.
type AdStatus string

const (
	StatusActive   AdStatus = "active"
	StatusInactive AdStatus = "inactive"
)

// ParseAdStatus maps a case-insensitive status string to an AdStatus.
// The second return value is false for anything other than active/inactive.
func ParseAdStatus(s string) (AdStatus, bool) {
	switch AdStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, true
	case StatusInactive:
		return StatusInactive, true
	}
	return "", false
}

// DBValue is the enum label stored in the ads.status column.
func (s AdStatus) DBValue() string {
	return strings.ToUpper(string(s))
}

// AssetType describes the media carried by a creative version. The zero
// value means no asset was found on the card.
type AssetType string

const (
	AssetNone  AssetType = ""
	AssetImage AssetType = "image"
	AssetVideo AssetType = "video"
)

// ParseAssetType maps a case-insensitive asset tag to an AssetType.
// Unrecognised tags yield AssetNone and false.
func ParseAssetType(s string) (AssetType, bool) {
	switch AssetType(strings.ToLower(strings.TrimSpace(s))) {
	case AssetImage:
		return AssetImage, true
	case AssetVideo:
		return AssetVideo, true
	}
	return AssetNone, false
}

// MarshalJSON writes null for AssetNone.
func (a AssetType) MarshalJSON() ([]byte, error) {
	if a == AssetNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts null or a known tag; unknown tags decode to AssetNone.
func (a *AssetType) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		*a = AssetNone
		return nil
	}
	if s == nil {
		*a = AssetNone
		return nil
	}
	*a, _ = ParseAssetType(*s)
	return nil
}

// CreativeVersion is one card of an ad: its copy, asset and call to action.
type CreativeVersion struct {
	AdCopy          *string   `json:"ad_copy"`
	Title           *string   `json:"title"`
	ImageURL        *string   `json:"image_url"`
	VideoURL        *string   `json:"video_url"`
	AssetType       AssetType `json:"asset_type"`
	LinkURL         *string   `json:"link_url"`
	LinkDescription *string   `json:"link_description"`
	CTAText         *string   `json:"cta_text"`
	CTAType         *string   `json:"cta_type"`
	Caption         *string   `json:"caption"`
}

// CanonicalAd is the normalized form of one Ad Library result. Ad-level
// fields are shared by every version.
type CanonicalAd struct {
	AdID           string            `json:"ad_id"`
	Status         AdStatus          `json:"status"`
	Platforms      []string          `json:"platforms"`
	StartDate      *string           `json:"start_date"`
	EndDate        *string           `json:"end_date"`
	PageName       *string           `json:"page_name"`
	PageProfileURI *string           `json:"page_profile_uri"`
	Versions       []CreativeVersion `json:"versions"`
	VersionCount   int               `json:"version_count"`
}

// DistinctPlatforms returns the platform names with duplicates and empty
// entries removed, keeping first-seen order.
func (a CanonicalAd) DistinctPlatforms() []string {
	seen := make(map[string]struct{}, len(a.Platforms))
	out := make([]string, 0, len(a.Platforms))
	for _, p := range a.Platforms {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// StringPtr returns a pointer to s. Handy for building optional fields.
func StringPtr(s string) *string {
	return &s
}
