package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/artifact"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/db"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/middleware"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reporting"
)

// maxArtifactBytes caps the request body of an import.
const maxArtifactBytes = 32 << 20

// ImportHandler handles POST /api/imports. The body is a canonical artifact;
// its ads are reconciled into the record store and the run summary is
// returned. Per-ad failures are reported in the summary, not as an error
// status.
func (s *Server) ImportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/imports"
	method := r.Method

	if s.Pipeline == nil {
		s.Logger.Error("import pipeline unavailable")
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "import unavailable")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxArtifactBytes))
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusRequestEntityTooLarge, "artifact too large")
		return
	}
	a, err := artifact.DecodeCanonical(data)
	if err != nil {
		s.fail(w, endpoint, method, start, http.StatusBadRequest, err.Error())
		return
	}

	log := middleware.LoggerFromContext(r.Context(), s.Logger)
	summary, err := s.Pipeline.Import(r.Context(), a)
	if errors.Is(err, db.ErrLockHeld) {
		s.fail(w, endpoint, method, start, http.StatusConflict, "another import is running")
		return
	}
	if err != nil {
		log.Error("import artifact", zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "import failed")
		return
	}

	log.Info("import complete",
		zap.String("run_id", summary.RunID),
		zap.Int("inserted", summary.Inserted),
		zap.Int("updated", summary.Updated),
		zap.Int("failed", summary.Failed),
	)
	s.ok(w, endpoint, method, start, summary)
}

// ImportReportHandler handles GET /api/imports/report: import outcomes per
// day and the most frequently failing ads from the audit log.
//
// Query Parameters:
//   - days: Number of days to include in the report (default: 7, max: 365)
func (s *Server) ImportReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/api/imports/report"
	method := r.Method

	if s.ClickHouseDB == nil {
		s.Logger.Error("clickhouse unavailable")
		s.fail(w, endpoint, method, start, http.StatusServiceUnavailable, "audit log unavailable")
		return
	}

	days := 7
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsedDays, err := strconv.Atoi(daysParam)
		if err != nil || parsedDays <= 0 {
			s.fail(w, endpoint, method, start, http.StatusBadRequest, "invalid days parameter")
			return
		}
		if parsedDays > 365 {
			parsedDays = 365
		}
		days = parsedDays
	}

	report, err := reporting.GenerateImportReport(r.Context(), s.ClickHouseDB, days)
	if err != nil {
		s.Logger.Error("generate import report", zap.Int("days", days), zap.Error(err))
		s.fail(w, endpoint, method, start, http.StatusInternalServerError, "failed to generate report")
		return
	}
	s.ok(w, endpoint, method, start, report)
}
