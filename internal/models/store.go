package models

import "context"

// RecordStore opens per-ad units of work against persisted ads.
type RecordStore interface {
	Begin(ctx context.Context) (RecordTx, error)
}

// RecordTx is one atomic unit of work. Nothing written through it is visible
// to other readers until Commit; Rollback discards it. Rollback after Commit
// is a no-op.
type RecordTx interface {
	// FindAdByAdID returns ErrNotFound when no row carries adID.
	FindAdByAdID(ctx context.Context, adID string) (*Ad, error)
	// InsertAd assigns ad.ID when empty.
	InsertAd(ctx context.Context, ad *Ad) error
	UpdateAd(ctx context.Context, ad Ad) error
	DeleteVersions(ctx context.Context, adRowID string) error
	DeletePlatforms(ctx context.Context, adRowID string) error
	InsertPlatform(ctx context.Context, p *AdPlatform) error
	InsertVersion(ctx context.Context, v *AdVersion) error
	Commit() error
	Rollback() error
}
