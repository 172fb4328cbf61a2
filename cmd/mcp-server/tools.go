package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/api"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// AdFilterInput mirrors the filters of the HTTP read API.
type AdFilterInput struct {
	Status    string `json:"status,omitempty"`
	Platform  string `json:"platform,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	PageName  string `json:"page_name,omitempty"`
}

func (in AdFilterInput) values() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"status":     in.Status,
		"platform":   in.Platform,
		"start_date": in.StartDate,
		"end_date":   in.EndDate,
		"page_name":  in.PageName,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

type ListAdsInput struct {
	AdFilterInput
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

type GetAdInput struct {
	ID string `json:"id"`
}

type AdStatsInput struct {
	AdFilterInput
}

// AdsServer exposes the ads database to MCP clients.
type AdsServer struct {
	ads    models.AdReader
	logger *zap.Logger
}

// jsonResult renders v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal result: %w", err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}, nil, nil
}

// ListAds implements the list_ads tool.
func (s *AdsServer) ListAds(ctx context.Context, req *mcp.CallToolRequest, input ListAdsInput) (*mcp.CallToolResult, any, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := input.values()
	if input.Page > 0 {
		q.Set("page", strconv.Itoa(input.Page))
	}
	if input.Limit > 0 {
		q.Set("limit", strconv.Itoa(input.Limit))
	}
	f, err := api.ParseFilter(q)
	if err != nil {
		return nil, nil, err
	}
	p, err := api.ParsePagination(q)
	if err != nil {
		return nil, nil, err
	}

	page, err := s.ads.ListAds(ctx, f, p)
	if err != nil {
		s.logger.Error("list ads", zap.Error(err))
		return nil, nil, fmt.Errorf("list ads: %w", err)
	}
	s.logger.Debug("list_ads", zap.Int("total", page.Total), zap.Int("page", page.Page))
	return jsonResult(page)
}

// GetAd implements the get_ad tool.
func (s *AdsServer) GetAd(ctx context.Context, req *mcp.CallToolRequest, input GetAdInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return nil, nil, errors.New("id is required")
	}
	ad, err := s.ads.GetAd(ctx, input.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("ad %s not found", input.ID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get ad: %w", err)
	}
	return jsonResult(ad)
}

// AdStats implements the ad_stats tool.
func (s *AdsServer) AdStats(ctx context.Context, req *mcp.CallToolRequest, input AdStatsInput) (*mcp.CallToolResult, any, error) {
	f, err := api.ParseFilter(input.values())
	if err != nil {
		return nil, nil, err
	}
	stats, err := models.CollectStats(ctx, s.ads, f)
	if err != nil {
		return nil, nil, fmt.Errorf("collect stats: %w", err)
	}
	return jsonResult(stats)
}

var filterProperties = map[string]interface{}{
	"status": map[string]interface{}{
		"type":        "string",
		"enum":        []string{"active", "inactive"},
		"description": "Delivery status",
	},
	"platform": map[string]interface{}{
		"type":        "string",
		"description": "Publisher platform, e.g. Facebook or INSTAGRAM",
	},
	"start_date": map[string]interface{}{
		"type":        "string",
		"format":      "date",
		"description": "Only ads starting on or after this day (YYYY-MM-DD)",
	},
	"end_date": map[string]interface{}{
		"type":        "string",
		"format":      "date",
		"description": "Only ads ending on or before this day (YYYY-MM-DD)",
	},
	"page_name": map[string]interface{}{
		"type":        "string",
		"description": "Case-insensitive substring of the advertiser page name",
	},
}

func withProperties(extra map[string]interface{}) map[string]interface{} {
	props := make(map[string]interface{}, len(filterProperties)+len(extra))
	for k, v := range filterProperties {
		props[k] = v
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// register adds the ads tools to server.
func (s *AdsServer) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_ads",
		Description: "List stored Ad Library ads, newest first, with their creative versions and platforms",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": withProperties(map[string]interface{}{
				"page": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"description": "1-based page (optional, defaults to 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"maximum":     models.MaxPageLimit,
					"description": "Page size (optional, defaults to 50)",
				},
			}),
		},
	}, s.ListAds)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_ad",
		Description: "Fetch one ad by row id or Ad Library archive id",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Row id or ad_id",
				},
			},
			"required": []string{"id"},
		},
	}, s.GetAd)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ad_stats",
		Description: "Count ads by status, start date and platform",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": withProperties(nil),
		},
	}, s.AdStats)
}
