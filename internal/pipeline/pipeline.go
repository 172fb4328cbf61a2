// Package pipeline wires extraction and reconciliation into runs: parse raw
// responses into a canonical artifact, import an artifact into the store, or
// both in one go.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/artifact"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/db"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/extract"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/reconcile"
)

// Locker guards a whole import against a concurrent importer.
type Locker interface {
	AcquireImportLock(ctx context.Context, ttl time.Duration) (*db.ImportLock, error)
}

// Pipeline groups the collaborators of a run.
type Pipeline struct {
	Parser    *extract.Parser
	Engine    *reconcile.Engine
	Artifacts *artifact.Store
	Logger    *zap.Logger

	// Lock is optional. LockTTL bounds how long a crashed run blocks others.
	Lock    Locker
	LockTTL time.Duration

	Now func() time.Time
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Parse extracts up to maxAds canonical ads from the responses at in. When
// out is not empty the artifact is written there.
func (p *Pipeline) Parse(ctx context.Context, in, out string, maxAds int) (models.Artifact, error) {
	responses, err := p.Artifacts.LoadResponses(ctx, in)
	if err != nil {
		return models.Artifact{}, fmt.Errorf("load responses: %w", err)
	}
	ads := p.Parser.ParseResponses(responses, maxAds)
	a := models.NewArtifact(ads, p.now())

	if out != "" {
		if err := p.Artifacts.SaveCanonical(ctx, out, a); err != nil {
			return models.Artifact{}, fmt.Errorf("save artifact: %w", err)
		}
		p.logger().Info("artifact written", zap.String("location", out), zap.Int("total_ads", a.TotalAds))
	}
	return a, nil
}

// Import reconciles the ads of a into the store while holding the import
// lock, if one is configured.
func (p *Pipeline) Import(ctx context.Context, a models.Artifact) (reconcile.Summary, error) {
	if p.Lock != nil {
		lock, err := p.Lock.AcquireImportLock(ctx, p.LockTTL)
		if err != nil {
			return reconcile.Summary{}, fmt.Errorf("import lock: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				p.logger().Warn("release import lock", zap.Error(err))
			}
		}()
	}
	return p.Engine.Reconcile(ctx, a.Ads), nil
}

// ImportFile loads and validates the canonical artifact at location, then
// imports it. An unreadable or invalid artifact stops the run before any
// ad is written.
func (p *Pipeline) ImportFile(ctx context.Context, location string) (reconcile.Summary, error) {
	a, err := p.Artifacts.LoadCanonical(ctx, location)
	if err != nil {
		return reconcile.Summary{}, fmt.Errorf("load artifact: %w", err)
	}
	return p.Import(ctx, a)
}

// Run parses the responses at in, optionally saves the artifact to out and
// imports the parsed ads.
func (p *Pipeline) Run(ctx context.Context, in, out string, maxAds int) (reconcile.Summary, error) {
	a, err := p.Parse(ctx, in, out, maxAds)
	if err != nil {
		return reconcile.Summary{}, err
	}
	return p.Import(ctx, a)
}

// IsInputError reports whether err came from unusable input rather than the
// environment.
func IsInputError(err error) bool {
	return errors.Is(err, artifact.ErrInvalidArtifact)
}
