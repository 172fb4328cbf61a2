package models

import "time"

// Default and maximum page sizes for ad listings.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// AdFilter narrows ad listings and statistics. Zero values mean no filter.
type AdFilter struct {
	Status    AdStatus
	Platform  string
	StartDate *time.Time // start_date >= StartDate
	EndDate   *time.Time // end_date <= EndDate
	PageName  string     // case-insensitive substring
}

// Pagination selects a 1-based page of results.
type Pagination struct {
	Page  int
	Limit int
}

// Normalize fills defaults and clamps the limit.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset is the number of rows skipped before the page starts.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// AdPage is one page of ads plus totals.
type AdPage struct {
	Data       []Ad `json:"data"`
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
}

// NewAdPage computes TotalPages for the given page parameters.
func NewAdPage(ads []Ad, total int, p Pagination) AdPage {
	if ads == nil {
		ads = []Ad{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return AdPage{Data: ads, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// DateCount is the number of ads starting on a given day.
type DateCount struct {
	Date     string `json:"date"`
	Count    int    `json:"count"`
	Active   int    `json:"active"`
	Inactive int    `json:"inactive"`
}

// PlatformCount is the number of distinct ads running on a platform.
type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// AdStats aggregates counts for the dashboard.
type AdStats struct {
	Total      int             `json:"total"`
	Active     int             `json:"active"`
	Inactive   int             `json:"inactive"`
	ByDate     []DateCount     `json:"byDate"`
	ByPlatform []PlatformCount `json:"byPlatform"`
}
