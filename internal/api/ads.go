package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/extract"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// fail writes an error response and records the request metrics for it.
func (s *Server) fail(w http.ResponseWriter, endpoint, method string, start time.Time, code int, msg string) {
	s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(code))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	http.Error(w, msg, code)
}

func (s *Server) ok(w http.ResponseWriter, endpoint, method string, start time.Time, v interface{}) {
	writeJSON(w, v)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

// ParseFilter reads an ad filter from query parameters:
//   - status: active or inactive
//   - platform: platform code or display name
//   - start_date, end_date: YYYY-MM-DD
//   - page_name: case-insensitive substring
func ParseFilter(q url.Values) (models.AdFilter, error) {
	var f models.AdFilter

	if v := q.Get("status"); v != "" {
		status, ok := models.ParseAdStatus(v)
		if !ok {
			return f, fmt.Errorf("invalid status %q", v)
		}
		f.Status = status
	}
	if v := q.Get("platform"); v != "" {
		f.Platform, _ = extract.NormalizePlatform(v)
	}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"start_date", &f.StartDate}, {"end_date", &f.EndDate}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(models.DateLayout, v)
		if err != nil {
			return f, fmt.Errorf("invalid %s %q", p.key, v)
		}
		*p.dst = &t
	}
	f.PageName = q.Get("page_name")
	return f, nil
}

// ParsePagination reads page and limit, applying defaults.
func ParsePagination(q url.Values) (models.Pagination, error) {
	var p models.Pagination
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("invalid page %q", v)
		}
		p.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("invalid limit %q", v)
		}
		p.Limit = n
	}
	return p.Normalize(), nil
}

// ListAdsHandler handles GET /api/ads. Ads are returned newest first with
// their versions and platforms.
//
// Query Parameters:
//   - status, platform, start_date, end_date, page_name: filters
//   - page: 1-based page (default: 1)
//   - limit: page size (default: 50, max: 500)
func (s *Server) ListAdsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/ads"
	method := r.Method

	q := r.URL.Query()
	f, err := ParseFilter(q)
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, err.Error())
		return
	}
	p, err := ParsePagination(q)
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.Ads.ListAds(r.Context(), f, p)
	if err != nil {
		s.Logger.Error("list ads", zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "failed to list ads")
		return
	}
	s.ok(w, endpoint, method, start, page)
}

// GetAdHandler handles GET /api/ads/{id}. The id may be the row id or the
// Ad Library archive id.
func (s *Server) GetAdHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/ads/{id}"
	method := r.Method

	id := mux.Vars(r)["id"]
	if id == "" {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, "id is required")
		return
	}

	ad, err := s.Ads.GetAd(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		s.fail(w, endpoint, method, start, http.StatusNotFound, "ad not found")
		return
	}
	if err != nil {
		s.Logger.Error("get ad", zap.String("id", id), zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "failed to get ad")
		return
	}
	s.ok(w, endpoint, method, start, ad)
}

// StatsHandler handles GET /api/ads/stats: totals, active and inactive
// counts plus breakdowns by start date and platform. Accepts the same
// filters as ListAdsHandler.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/ads/stats"
	method := r.Method

	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := models.CollectStats(r.Context(), s.Ads, f)
	if err != nil {
		s.Logger.Error("collect stats", zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.ok(w, endpoint, method, start, stats)
}

// StatsByDateHandler handles GET /api/ads/stats/by-date.
func (s *Server) StatsByDateHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/ads/stats/by-date"
	method := r.Method

	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, err.Error())
		return
	}

	byDate, err := s.Ads.AdsByDate(r.Context(), f)
	if err != nil {
		s.Logger.Error("ads by date", zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.ok(w, endpoint, method, start, byDate)
}

// StatsByPlatformHandler handles GET /api/ads/stats/platforms.
func (s *Server) StatsByPlatformHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/ads/stats/platforms"
	method := r.Method

	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, err.Error())
		return
	}

	byPlatform, err := s.Ads.PlatformStats(r.Context(), f)
	if err != nil {
		s.Logger.Error("platform stats", zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.ok(w, endpoint, method, start, byPlatform)
}
