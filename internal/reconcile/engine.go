// Package reconcile applies canonical ads to a record store: insert new ads,
// update existing ones and replace their versions and platforms, one
// transaction per ad.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/analytics"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/observability"
)

var (
	// ErrMissingAdID is recorded for canonical ads without an identifier.
	ErrMissingAdID = errors.New("ad_id is empty")
	// ErrUnknownStatus is recorded for ads whose status cannot be stored.
	ErrUnknownStatus = errors.New("unknown ad status")
)

// Notifier is told about every committed ad.
type Notifier interface {
	PublishAdChange(ctx context.Context, adID string, outcome models.ImportOutcome) error
}

// Auditor receives the per-ad outcomes of a run.
type Auditor interface {
	RecordImportEvents(ctx context.Context, events []models.ImportEvent) error
}

// Failure identifies an ad that could not be reconciled.
type Failure struct {
	AdID  string `json:"ad_id"`
	Error string `json:"error"`
}

// Summary is the result of one reconciliation run.
type Summary struct {
	RunID    string        `json:"run_id"`
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Failed   int           `json:"failed"`
	Total    int           `json:"total"`
	Failures []Failure     `json:"failures,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Engine reconciles canonical ads into a RecordStore.
type Engine struct {
	store    models.RecordStore
	logger   *zap.Logger
	metrics  observability.MetricsRegistry
	notifier Notifier
	auditor  Auditor
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithMetrics sets the metrics registry.
func WithMetrics(m observability.MetricsRegistry) Option { return func(e *Engine) { e.metrics = m } }

// WithNotifier publishes a change notification after each commit.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithAuditor writes the run's outcomes to an audit log.
func WithAuditor(a Auditor) Option { return func(e *Engine) { e.auditor = a } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine returns an Engine writing to store.
func NewEngine(store models.RecordStore, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		logger:  zap.NewNop(),
		metrics: observability.NewNoOpRegistry(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reconcile processes ads in order. A failing ad is rolled back and recorded;
// it never stops the run.
func (e *Engine) Reconcile(ctx context.Context, ads []models.CanonicalAd) Summary {
	start := e.now()
	sum := Summary{RunID: uuid.NewString(), Total: len(ads)}
	events := make([]models.ImportEvent, 0, len(ads))

	for _, ad := range ads {
		outcome, err := e.reconcileOne(ctx, ad)
		ev := models.ImportEvent{
			Timestamp: e.now().UTC(),
			RunID:     sum.RunID,
			AdID:      ad.AdID,
			Outcome:   outcome,
			Versions:  len(ad.Versions),
			Platforms: len(ad.DistinctPlatforms()),
		}
		if err != nil {
			ev.Outcome = models.OutcomeFailed
			ev.Error = err.Error()
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{AdID: ad.AdID, Error: err.Error()})
			e.logger.Warn("reconcile ad failed", zap.String("ad_id", ad.AdID), zap.Error(err))
		} else {
			switch outcome {
			case models.OutcomeInserted:
				sum.Inserted++
			case models.OutcomeUpdated:
				sum.Updated++
			}
			e.notify(ctx, ad.AdID, outcome)
		}
		e.metrics.IncrementReconcileOutcome(string(ev.Outcome))
		events = append(events, ev)
	}

	e.audit(ctx, events)

	sum.Duration = e.now().Sub(start)
	e.metrics.RecordReconcileDuration(sum.Duration)
	e.logger.Info("reconcile complete",
		zap.String("run_id", sum.RunID),
		zap.Int("inserted", sum.Inserted),
		zap.Int("updated", sum.Updated),
		zap.Int("failed", sum.Failed),
		zap.Int("total", sum.Total),
		zap.Duration("duration", sum.Duration))
	return sum
}

// reconcileOne writes one ad in its own transaction and reports the outcome
// only after a successful commit.
func (e *Engine) reconcileOne(ctx context.Context, ad models.CanonicalAd) (outcome models.ImportOutcome, err error) {
	if ad.AdID == "" {
		return "", ErrMissingAdID
	}
	status, ok := models.ParseAdStatus(string(ad.Status))
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, ad.Status)
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				e.logger.Error("rollback failed", zap.String("ad_id", ad.AdID), zap.Error(rbErr))
			}
		}
	}()

	now := e.now().UTC()
	row, err := tx.FindAdByAdID(ctx, ad.AdID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		row = &models.Ad{AdID: ad.AdID, CreatedAt: now}
		applyScalars(row, ad, status, now)
		if err = tx.InsertAd(ctx, row); err != nil {
			return "", fmt.Errorf("insert ad: %w", err)
		}
		outcome = models.OutcomeInserted
	case err != nil:
		return "", fmt.Errorf("find ad: %w", err)
	default:
		applyScalars(row, ad, status, now)
		if err = tx.UpdateAd(ctx, *row); err != nil {
			return "", fmt.Errorf("update ad: %w", err)
		}
		if err = tx.DeleteVersions(ctx, row.ID); err != nil {
			return "", fmt.Errorf("delete versions: %w", err)
		}
		if err = tx.DeletePlatforms(ctx, row.ID); err != nil {
			return "", fmt.Errorf("delete platforms: %w", err)
		}
		outcome = models.OutcomeUpdated
	}

	for _, name := range ad.DistinctPlatforms() {
		p := &models.AdPlatform{AdRowID: row.ID, Platform: name, CreatedAt: now}
		if err = tx.InsertPlatform(ctx, p); err != nil {
			return "", fmt.Errorf("insert platform %s: %w", name, err)
		}
	}
	for i, cv := range ad.Versions {
		v := models.NewAdVersion(row.ID, i+1, cv)
		v.CreatedAt = now
		if err = tx.InsertVersion(ctx, &v); err != nil {
			return "", fmt.Errorf("insert version %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return outcome, nil
}

func applyScalars(row *models.Ad, ad models.CanonicalAd, status models.AdStatus, now time.Time) {
	row.Status = status
	row.StartDate = parseDate(ad.StartDate)
	row.EndDate = parseDate(ad.EndDate)
	row.PageName = ad.PageName
	row.PageProfileURI = ad.PageProfileURI
	row.UpdatedAt = now
}

// parseDate reads an ISO calendar date. Anything else is treated as absent.
func parseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(models.DateLayout, *s)
	if err != nil {
		return nil
	}
	return &t
}

func (e *Engine) notify(ctx context.Context, adID string, outcome models.ImportOutcome) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.PublishAdChange(ctx, adID, outcome); err != nil {
		e.metrics.IncrementNotifyErrors()
		e.logger.Warn("publish ad change failed", zap.String("ad_id", adID), zap.Error(err))
	}
}

func (e *Engine) audit(ctx context.Context, events []models.ImportEvent) {
	if e.auditor == nil || len(events) == 0 {
		return
	}
	if err := e.auditor.RecordImportEvents(ctx, events); err != nil {
		if errors.Is(err, analytics.ErrUnavailable) {
			return
		}
		e.metrics.IncrementAuditErrors()
		e.logger.Warn("record import events failed", zap.Error(err))
	}
}
