package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/middleware"
)

// NewRouter registers the API routes. The stats routes are registered
// before /api/ads/{id} so they are not captured as ids.
func NewRouter(s *Server) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(s.Logger))

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/ads", s.ListAdsHandler).Methods("GET")
	a.HandleFunc("/ads/stats", s.StatsHandler).Methods("GET")
	a.HandleFunc("/ads/stats/by-date", s.StatsByDateHandler).Methods("GET")
	a.HandleFunc("/ads/stats/platforms", s.StatsByPlatformHandler).Methods("GET")
	a.HandleFunc("/ads/{id}", s.GetAdHandler).Methods("GET")
	a.HandleFunc("/imports", s.ImportHandler).Methods("POST")
	a.HandleFunc("/imports/report", s.ImportReportHandler).Methods("GET")

	return otelhttp.NewHandler(r, s.Config.ServiceName)
}
