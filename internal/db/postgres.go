package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// Postgres wraps a postgres DB connection.
type Postgres struct {
	DB *sql.DB
}

var (
	_ models.RecordStore = (*Postgres)(nil)
	_ models.AdReader    = (*Postgres)(nil)
)

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS ads (
    id UUID PRIMARY KEY,
    ad_id TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL CHECK (status IN ('ACTIVE', 'INACTIVE')),
    start_date DATE NOT NULL,
    end_date DATE NULL,
    page_name TEXT NOT NULL,
    page_profile_uri TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ad_versions (
    id UUID PRIMARY KEY,
    ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
    version_number INT NOT NULL,
    ad_copy TEXT,
    title TEXT,
    image_url TEXT,
    video_url TEXT,
    asset_type TEXT CHECK (asset_type IN ('IMAGE', 'VIDEO')),
    link_url TEXT,
    link_description TEXT,
    cta_text TEXT,
    cta_type TEXT,
    caption TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (ad_id, version_number)
);

CREATE TABLE IF NOT EXISTS ad_platforms (
    id UUID PRIMARY KEY,
    ad_id UUID NOT NULL REFERENCES ads(id) ON DELETE CASCADE,
    platform TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (ad_id, platform)
);

CREATE INDEX IF NOT EXISTS idx_ads_status ON ads (status);
CREATE INDEX IF NOT EXISTS idx_ads_start_date ON ads (start_date);
CREATE INDEX IF NOT EXISTS idx_ads_created_at ON ads (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ad_versions_ad_id ON ad_versions (ad_id);
CREATE INDEX IF NOT EXISTS idx_ad_platforms_ad_id ON ad_platforms (ad_id);
CREATE INDEX IF NOT EXISTS idx_ad_platforms_platform ON ad_platforms (platform);
`

const adColumns = `a.id, a.ad_id, a.status, a.start_date, a.end_date, a.page_name, a.page_profile_uri, a.created_at, a.updated_at`

// InitPostgres connects to Postgres with connection pooling configuration.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: db}
	if err := p.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

// EnsureSchema creates the required tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Begin starts a transaction for one ad.
func (p *Postgres) Begin(ctx context.Context) (models.RecordTx, error) {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAd(s rowScanner) (models.Ad, error) {
	var ad models.Ad
	var status string
	var start time.Time
	var end sql.NullTime
	var pageName, profile sql.NullString
	if err := s.Scan(&ad.ID, &ad.AdID, &status, &start, &end, &pageName, &profile, &ad.CreatedAt, &ad.UpdatedAt); err != nil {
		return models.Ad{}, err
	}
	ad.Status, _ = models.ParseAdStatus(status)
	ad.StartDate = &start
	if end.Valid {
		ad.EndDate = &end.Time
	}
	ad.PageName = nullStringPtr(pageName)
	ad.PageProfileURI = nullStringPtr(profile)
	return ad, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// nullDate converts an optional date to a driver value.
func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func assetDBValue(a models.AssetType) sql.NullString {
	if a == models.AssetNone {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.ToUpper(string(a)), Valid: true}
}

// adWhere builds the WHERE clause shared by listing and aggregate queries.
// Placeholders are numbered from 1.
func adWhere(f models.AdFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("a.status = $%d", f.Status.DBValue())
	}
	if f.Platform != "" {
		add("EXISTS (SELECT 1 FROM ad_platforms ap WHERE ap.ad_id = a.id AND ap.platform = $%d)", f.Platform)
	}
	if f.StartDate != nil {
		add("a.start_date >= $%d", *f.StartDate)
	}
	if f.EndDate != nil {
		add("a.end_date <= $%d", *f.EndDate)
	}
	if f.PageName != "" {
		add("a.page_name ILIKE $%d", "%"+f.PageName+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// CountAds returns the number of ads matching f.
func (p *Postgres) CountAds(ctx context.Context, f models.AdFilter) (int, error) {
	where, args := adWhere(f)
	var n int
	if err := p.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM ads a`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ads: %w", err)
	}
	return n, nil
}

// ListAds returns one page of ads, newest first, with their children.
func (p *Postgres) ListAds(ctx context.Context, f models.AdFilter, pg models.Pagination) (models.AdPage, error) {
	pg = pg.Normalize()
	total, err := p.CountAds(ctx, f)
	if err != nil {
		return models.AdPage{}, err
	}

	where, args := adWhere(f)
	query := fmt.Sprintf(`SELECT %s FROM ads a%s ORDER BY a.created_at DESC, a.ad_id ASC LIMIT $%d OFFSET $%d`,
		adColumns, where, len(args)+1, len(args)+2)
	args = append(args, pg.Limit, pg.Offset())

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return models.AdPage{}, fmt.Errorf("query ads: %w", err)
	}
	var ads []models.Ad
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			_ = rows.Close()
			return models.AdPage{}, fmt.Errorf("scan ad: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return models.AdPage{}, fmt.Errorf("rows error: %w", err)
	}
	_ = rows.Close()

	for i := range ads {
		if err := p.loadChildren(ctx, &ads[i]); err != nil {
			return models.AdPage{}, err
		}
	}
	return models.NewAdPage(ads, total, pg), nil
}

// GetAd looks an ad up by row id or ad_id.
func (p *Postgres) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	row := p.DB.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ads a WHERE a.id::text = $1 OR a.ad_id = $1 LIMIT 1`, id)
	ad, err := scanAd(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ad: %w", err)
	}
	if err := p.loadChildren(ctx, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

func (p *Postgres) loadChildren(ctx context.Context, ad *models.Ad) error {
	vs, err := p.versionsFor(ctx, ad.ID)
	if err != nil {
		return err
	}
	ps, err := p.platformsFor(ctx, ad.ID)
	if err != nil {
		return err
	}
	ad.Versions, ad.Platforms = vs, ps
	return nil
}

func (p *Postgres) versionsFor(ctx context.Context, adRowID string) ([]models.AdVersion, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, ad_id, version_number, ad_copy, title, image_url, video_url, asset_type, link_url, link_description, cta_text, cta_type, caption, created_at FROM ad_versions WHERE ad_id = $1 ORDER BY version_number ASC`, adRowID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.AdVersion
	for rows.Next() {
		var v models.AdVersion
		var adCopy, title, image, video, asset, link, desc, ctaText, ctaType, caption sql.NullString
		if err := rows.Scan(&v.ID, &v.AdRowID, &v.VersionNumber, &adCopy, &title, &image, &video, &asset, &link, &desc, &ctaText, &ctaType, &caption, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.AdCopy = nullStringPtr(adCopy)
		v.Title = nullStringPtr(title)
		v.ImageURL = nullStringPtr(image)
		v.VideoURL = nullStringPtr(video)
		v.AssetType, _ = models.ParseAssetType(asset.String)
		v.LinkURL = nullStringPtr(link)
		v.LinkDescription = nullStringPtr(desc)
		v.CTAText = nullStringPtr(ctaText)
		v.CTAType = nullStringPtr(ctaType)
		v.Caption = nullStringPtr(caption)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (p *Postgres) platformsFor(ctx context.Context, adRowID string) ([]models.AdPlatform, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id, ad_id, platform, created_at FROM ad_platforms WHERE ad_id = $1 ORDER BY platform ASC`, adRowID)
	if err != nil {
		return nil, fmt.Errorf("query platforms: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []models.AdPlatform
	for rows.Next() {
		var pl models.AdPlatform
		if err := rows.Scan(&pl.ID, &pl.AdRowID, &pl.Platform, &pl.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		out = append(out, pl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// AdsByDate counts matching ads per start date, oldest first.
func (p *Postgres) AdsByDate(ctx context.Context, f models.AdFilter) ([]models.DateCount, error) {
	where, args := adWhere(f)
	query := `SELECT DATE(a.start_date) AS date,
       COUNT(*) AS count,
       COUNT(*) FILTER (WHERE a.status = 'ACTIVE') AS active,
       COUNT(*) FILTER (WHERE a.status = 'INACTIVE') AS inactive
FROM ads a` + where + `
GROUP BY DATE(a.start_date)
ORDER BY date ASC`

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ads by date: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []models.DateCount{}
	for rows.Next() {
		var dc models.DateCount
		var date time.Time
		if err := rows.Scan(&date, &dc.Count, &dc.Active, &dc.Inactive); err != nil {
			return nil, fmt.Errorf("scan ads by date: %w", err)
		}
		dc.Date = date.Format(models.DateLayout)
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

// PlatformStats counts distinct matching ads per platform, largest first.
func (p *Postgres) PlatformStats(ctx context.Context, f models.AdFilter) ([]models.PlatformCount, error) {
	where, args := adWhere(f)
	query := `SELECT ap.platform, COUNT(DISTINCT ap.ad_id) AS count
FROM ad_platforms ap
INNER JOIN ads a ON ap.ad_id = a.id` + where + `
GROUP BY ap.platform
ORDER BY count DESC, ap.platform ASC`

	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query platform stats: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []models.PlatformCount{}
	for rows.Next() {
		var pc models.PlatformCount
		if err := rows.Scan(&pc.Platform, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan platform stats: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}
