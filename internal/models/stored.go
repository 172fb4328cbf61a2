package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an entity is not found in a store.
var ErrNotFound = errors.New("entity not found")

// Ad is a persisted row of the ads table. ID is the internal row key; AdID is
// the Ad Library archive identifier and is unique across the table.
type Ad struct {
	ID             string     `json:"id"`
	AdID           string     `json:"ad_id"`
	Status         AdStatus   `json:"status"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	PageName       *string    `json:"page_name"`
	PageProfileURI *string    `json:"page_profile_uri"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Versions and Platforms are populated by read queries only.
	Versions  []AdVersion  `json:"versions,omitempty"`
	Platforms []AdPlatform `json:"platforms,omitempty"`
}

// AdVersion is a persisted creative version. VersionNumber is 1-based and
// unique within the owning ad.
type AdVersion struct {
	ID              string    `json:"id"`
	AdRowID         string    `json:"ad_id"`
	VersionNumber   int       `json:"version_number"`
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
	CreatedAt       time.Time `json:"created_at"`
}

// AdPlatform is a persisted platform membership of an ad.
type AdPlatform struct {
	ID        string    `json:"id"`
	AdRowID   string    `json:"ad_id"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAdVersion builds the row for the version at 1-based position number.
func NewAdVersion(adRowID string, number int, v CreativeVersion) AdVersion {
	return AdVersion{
		AdRowID:         adRowID,
		VersionNumber:   number,
		AdCopy:          v.AdCopy,
		Title:           v.Title,
		ImageURL:        v.ImageURL,
		VideoURL:        v.VideoURL,
		AssetType:       v.AssetType,
		LinkURL:         v.LinkURL,
		LinkDescription: v.LinkDescription,
		CTAText:         v.CTAText,
		CTAType:         v.CTAType,
		Caption:         v.Caption,
	}
}
