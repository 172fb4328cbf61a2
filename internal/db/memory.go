package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/DanyTrakhtenberg/Ads-Scraping-and-Dashboard-Exercise/internal/models"
)

// Errors returned by the in-memory store for rows Postgres would reject.
var (
	ErrConflict   = errors.New("unique constraint violation")
	ErrConstraint = errors.New("constraint violation")
)

// memState is one consistent snapshot of the tables.
type memState struct {
	ads       map[string]models.Ad // by row id
	byAdID    map[string]string    // ad_id -> row id
	versions  map[string][]models.AdVersion
	platforms map[string][]models.AdPlatform
}

func newMemState() memState {
	return memState{
		ads:       make(map[string]models.Ad),
		byAdID:    make(map[string]string),
		versions:  make(map[string][]models.AdVersion),
		platforms: make(map[string][]models.AdPlatform),
	}
}

func (s memState) clone() memState {
	c := newMemState()
	for k, v := range s.ads {
		c.ads[k] = v
	}
	for k, v := range s.byAdID {
		c.byAdID[k] = v
	}
	for k, v := range s.versions {
		c.versions[k] = append([]models.AdVersion(nil), v...)
	}
	for k, v := range s.platforms {
		c.platforms[k] = append([]models.AdPlatform(nil), v...)
	}
	return c
}

// Memory is a RecordStore and AdReader kept in process memory. It enforces
// the same keys and NOT NULL columns as the Postgres schema. Transactions
// are serialized: Begin blocks until the previous one ends.
type Memory struct {
	writer sync.Mutex
	mu     sync.RWMutex
	state  memState
}

var (
	_ models.RecordStore = (*Memory)(nil)
	_ models.AdReader    = (*Memory)(nil)
)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

// Begin starts a transaction working on a private copy of the tables.
func (m *Memory) Begin(ctx context.Context) (models.RecordTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	m.writer.Lock()
	m.mu.RLock()
	st := m.state.clone()
	m.mu.RUnlock()
	return &memTx{m: m, st: st}, nil
}

// Counts returns the number of ad, version and platform rows.
func (m *Memory) Counts() (ads, versions, platforms int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, vs := range m.state.versions {
		versions += len(vs)
	}
	for _, ps := range m.state.platforms {
		platforms += len(ps)
	}
	return len(m.state.ads), versions, platforms
}

type memTx struct {
	m    *Memory
	st   memState
	done bool
}

func (t *memTx) FindAdByAdID(ctx context.Context, adID string) (*models.Ad, error) {
	id, ok := t.st.byAdID[adID]
	if !ok {
		return nil, models.ErrNotFound
	}
	ad := t.st.ads[id]
	return &ad, nil
}

func checkAdColumns(ad models.Ad) error {
	switch {
	case ad.AdID == "":
		return fmt.Errorf("%w: ad_id is null", ErrConstraint)
	case ad.StartDate == nil:
		return fmt.Errorf("%w: start_date is null", ErrConstraint)
	case ad.PageName == nil:
		return fmt.Errorf("%w: page_name is null", ErrConstraint)
	}
	if _, ok := models.ParseAdStatus(string(ad.Status)); !ok {
		return fmt.Errorf("%w: invalid status %q", ErrConstraint, ad.Status)
	}
	return nil
}

func (t *memTx) InsertAd(ctx context.Context, ad *models.Ad) error {
	if err := checkAdColumns(*ad); err != nil {
		return fmt.Errorf("insert ad %s: %w", ad.AdID, err)
	}
	if _, dup := t.st.byAdID[ad.AdID]; dup {
		return fmt.Errorf("insert ad %s: %w", ad.AdID, ErrConflict)
	}
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	stored := *ad
	stored.Versions, stored.Platforms = nil, nil
	t.st.ads[ad.ID] = stored
	t.st.byAdID[ad.AdID] = ad.ID
	return nil
}

func (t *memTx) UpdateAd(ctx context.Context, ad models.Ad) error {
	cur, ok := t.st.ads[ad.ID]
	if !ok {
		return models.ErrNotFound
	}
	if err := checkAdColumns(ad); err != nil {
		return fmt.Errorf("update ad %s: %w", ad.AdID, err)
	}
	cur.Status = ad.Status
	cur.StartDate = ad.StartDate
	cur.EndDate = ad.EndDate
	cur.PageName = ad.PageName
	cur.PageProfileURI = ad.PageProfileURI
	cur.UpdatedAt = ad.UpdatedAt
	t.st.ads[ad.ID] = cur
	return nil
}

func (t *memTx) DeleteVersions(ctx context.Context, adRowID string) error {
	delete(t.st.versions, adRowID)
	return nil
}

func (t *memTx) DeletePlatforms(ctx context.Context, adRowID string) error {
	delete(t.st.platforms, adRowID)
	return nil
}

func (t *memTx) InsertPlatform(ctx context.Context, p *models.AdPlatform) error {
	if _, ok := t.st.ads[p.AdRowID]; !ok {
		return fmt.Errorf("insert platform: %w: unknown ad %s", ErrConstraint, p.AdRowID)
	}
	if p.Platform == "" {
		return fmt.Errorf("insert platform: %w: platform is null", ErrConstraint)
	}
	for _, existing := range t.st.platforms[p.AdRowID] {
		if existing.Platform == p.Platform {
			return fmt.Errorf("insert platform %s: %w", p.Platform, ErrConflict)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	t.st.platforms[p.AdRowID] = append(t.st.platforms[p.AdRowID], *p)
	return nil
}

func (t *memTx) InsertVersion(ctx context.Context, v *models.AdVersion) error {
	if _, ok := t.st.ads[v.AdRowID]; !ok {
		return fmt.Errorf("insert version: %w: unknown ad %s", ErrConstraint, v.AdRowID)
	}
	for _, existing := range t.st.versions[v.AdRowID] {
		if existing.VersionNumber == v.VersionNumber {
			return fmt.Errorf("insert version %d: %w", v.VersionNumber, ErrConflict)
		}
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	t.st.versions[v.AdRowID] = append(t.st.versions[v.AdRowID], *v)
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("transaction already finished")
	}
	t.done = true
	t.m.mu.Lock()
	t.m.state = t.st
	t.m.mu.Unlock()
	t.m.writer.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.m.writer.Unlock()
	return nil
}

// matches applies f to one ad the way adWhere does in SQL.
func (s memState) matches(ad models.Ad, f models.AdFilter) bool {
	if f.Status != "" && ad.Status != f.Status {
		return false
	}
	if f.Platform != "" {
		found := false
		for _, p := range s.platforms[ad.ID] {
			if p.Platform == f.Platform {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.StartDate != nil && (ad.StartDate == nil || ad.StartDate.Before(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && (ad.EndDate == nil || ad.EndDate.After(*f.EndDate)) {
		return false
	}
	if f.PageName != "" {
		if ad.PageName == nil || !strings.Contains(strings.ToLower(*ad.PageName), strings.ToLower(f.PageName)) {
			return false
		}
	}
	return true
}

func (s memState) filtered(f models.AdFilter) []models.Ad {
	var out []models.Ad
	for _, ad := range s.ads {
		if s.matches(ad, f) {
			out = append(out, ad)
		}
	}
	return out
}

func (s memState) withChildren(ad models.Ad) models.Ad {
	vs := append([]models.AdVersion(nil), s.versions[ad.ID]...)
	sort.Slice(vs, func(i, j int) bool { return vs[i].VersionNumber < vs[j].VersionNumber })
	ps := append([]models.AdPlatform(nil), s.platforms[ad.ID]...)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Platform < ps[j].Platform })
	ad.Versions, ad.Platforms = vs, ps
	return ad
}

// ListAds returns one page of ads, newest first.
func (m *Memory) ListAds(ctx context.Context, f models.AdFilter, p models.Pagination) (models.AdPage, error) {
	p = p.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()

	ads := m.state.filtered(f)
	sort.Slice(ads, func(i, j int) bool {
		if !ads[i].CreatedAt.Equal(ads[j].CreatedAt) {
			return ads[i].CreatedAt.After(ads[j].CreatedAt)
		}
		return ads[i].AdID < ads[j].AdID
	})
	total := len(ads)

	start := p.Offset()
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	page := make([]models.Ad, 0, end-start)
	for _, ad := range ads[start:end] {
		page = append(page, m.state.withChildren(ad))
	}
	return models.NewAdPage(page, total, p), nil
}

// GetAd looks an ad up by row id or ad_id.
func (m *Memory) GetAd(ctx context.Context, id string) (*models.Ad, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ad, ok := m.state.ads[id]
	if !ok {
		rowID, found := m.state.byAdID[id]
		if !found {
			return nil, models.ErrNotFound
		}
		ad = m.state.ads[rowID]
	}
	full := m.state.withChildren(ad)
	return &full, nil
}

// CountAds returns the number of ads matching f.
func (m *Memory) CountAds(ctx context.Context, f models.AdFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.state.filtered(f)), nil
}

// AdsByDate counts matching ads per start date, oldest first.
func (m *Memory) AdsByDate(ctx context.Context, f models.AdFilter) ([]models.DateCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byDate := make(map[string]*models.DateCount)
	for _, ad := range m.state.filtered(f) {
		if ad.StartDate == nil {
			continue
		}
		d := ad.StartDate.Format(models.DateLayout)
		dc, ok := byDate[d]
		if !ok {
			dc = &models.DateCount{Date: d}
			byDate[d] = dc
		}
		dc.Count++
		if ad.Status == models.StatusActive {
			dc.Active++
		} else {
			dc.Inactive++
		}
	}
	out := make([]models.DateCount, 0, len(byDate))
	for _, dc := range byDate {
		out = append(out, *dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// PlatformStats counts distinct matching ads per platform, largest first.
func (m *Memory) PlatformStats(ctx context.Context, f models.AdFilter) ([]models.PlatformCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, ad := range m.state.filtered(f) {
		for _, p := range m.state.platforms[ad.ID] {
			counts[p.Platform]++
		}
	}
	out := make([]models.PlatformCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.PlatformCount{Platform: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Platform < out[j].Platform
	})
	return out, nil
}
