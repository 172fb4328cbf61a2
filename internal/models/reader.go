package models

import (
	"context"
	"fmt"
)

// AdReader is the read side of an ad store used by the API and agent tools.
type AdReader interface {
	ListAds(ctx context.Context, f AdFilter, p Pagination) (AdPage, error)
	// GetAd accepts either the row id or the external ad_id and loads
	// versions and platforms. It returns ErrNotFound when neither matches.
	GetAd(ctx context.Context, id string) (*Ad, error)
	CountAds(ctx context.Context, f AdFilter) (int, error)
	AdsByDate(ctx context.Context, f AdFilter) ([]DateCount, error)
	PlatformStats(ctx context.Context, f AdFilter) ([]PlatformCount, error)
}

// CollectStats gathers the dashboard aggregates for f. The status filter
// is overridden for the active and inactive counts.
func CollectStats(ctx context.Context, r AdReader, f AdFilter) (AdStats, error) {
	var stats AdStats
	var err error

	if stats.Total, err = r.CountAds(ctx, f); err != nil {
		return AdStats{}, fmt.Errorf("count ads: %w", err)
	}
	active, inactive := f, f
	active.Status, inactive.Status = StatusActive, StatusInactive
	if stats.Active, err = r.CountAds(ctx, active); err != nil {
		return AdStats{}, fmt.Errorf("count active ads: %w", err)
	}
	if stats.Inactive, err = r.CountAds(ctx, inactive); err != nil {
		return AdStats{}, fmt.Errorf("count inactive ads: %w", err)
	}
	if stats.ByDate, err = r.AdsByDate(ctx, f); err != nil {
		return AdStats{}, fmt.Errorf("ads by date: %w", err)
	}
	if stats.ByPlatform, err = r.PlatformStats(ctx, f); err != nil {
		return AdStats{}, fmt.Errorf("platform stats: %w", err)
	}
	return stats, nil
}
