package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// pgTx is a models.RecordTx over one Postgres transaction.
type pgTx struct {
	tx   *sql.Tx
	done bool
}

func (t *pgTx) FindAdByAdID(ctx context.Context, adID string) (*models.Ad, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ads a WHERE a.ad_id = $1 FOR UPDATE`, adID)
	ad, err := scanAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find ad %s: %w", adID, err)
	}
	return &ad, nil
}

func (t *pgTx) InsertAd(ctx context.Context, ad *models.Ad) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ads (id, ad_id, status, start_date, end_date, page_name, page_profile_uri, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		ad.ID, ad.AdID, ad.Status.DBValue(), nullDate(ad.StartDate), nullDate(ad.EndDate), ad.PageName, ad.PageProfileURI, ad.CreatedAt, ad.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ad %s: %w", ad.AdID, err)
	}
	return nil
}

func (t *pgTx) UpdateAd(ctx context.Context, ad models.Ad) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE ads SET status=$1, start_date=$2, end_date=$3, page_name=$4, page_profile_uri=$5, updated_at=$6 WHERE id=$7`,
		ad.Status.DBValue(), nullDate(ad.StartDate), nullDate(ad.EndDate), ad.PageName, ad.PageProfileURI, ad.UpdatedAt, ad.ID)
	if err != nil {
		return fmt.Errorf("update ad %s: %w", ad.AdID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteVersions(ctx context.Context, adRowID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM ad_versions WHERE ad_id=$1`, adRowID); err != nil {
		return fmt.Errorf("delete versions: %w", err)
	}
	return nil
}

func (t *pgTx) DeletePlatforms(ctx context.Context, adRowID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM ad_platforms WHERE ad_id=$1`, adRowID); err != nil {
		return fmt.Errorf("delete platforms: %w", err)
	}
	return nil
}

func (t *pgTx) InsertPlatform(ctx context.Context, p *models.AdPlatform) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO ad_platforms (id, ad_id, platform, created_at) VALUES ($1,$2,$3,$4)`,
		p.ID, p.AdRowID, p.Platform, p.CreatedAt); err != nil {
		return fmt.Errorf("insert platform: %w", err)
	}
	return nil
}

func (t *pgTx) InsertVersion(ctx context.Context, v *models.AdVersion) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO ad_versions (id, ad_id, version_number, ad_copy, title, image_url, video_url, asset_type, link_url, link_description, cta_text, cta_type, caption, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		v.ID, v.AdRowID, v.VersionNumber, v.AdCopy, v.Title, v.ImageURL, v.VideoURL, assetDBValue(v.AssetType),
		v.LinkURL, v.LinkDescription, v.CTAText, v.CTAType, v.Caption, v.CreatedAt); err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

func (t *pgTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	return t.tx.Commit()
}

func (t *pgTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback()
}
