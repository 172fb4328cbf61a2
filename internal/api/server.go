package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/config"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/pipeline"
)

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger       *zap.Logger
	Ads          models.AdReader
	Pipeline     *pipeline.Pipeline
	DB           Pinger
	ClickHouseDB *sql.DB
	Metrics      observability.MetricsRegistry
	Config       config.Config
}

// NewServer constructs a Server. db may be nil when the record store has no
// connectivity check.
func NewServer(logger *zap.Logger, ads models.AdReader, p *pipeline.Pipeline, db Pinger, ch *sql.DB, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:       logger,
		Ads:          ads,
		Pipeline:     p,
		DB:           db,
		ClickHouseDB: ch,
		Metrics:      metrics,
		Config:       cfg,
	}
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
