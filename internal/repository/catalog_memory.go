package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"marquee/internal/models"
)

type rowKey struct {
	mediaType models.MediaType
	id        int64
}

// MemoryCatalogStore keeps the mirror in process. It backs the server when no
// database is configured and stands in for postgres in tests.
type MemoryCatalogStore struct {
	mu   sync.RWMutex
	rows map[rowKey]CatalogRow
	now  func() time.Time
}

func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{
		rows: make(map[rowKey]CatalogRow),
		now:  time.Now,
	}
}

func (s *MemoryCatalogStore) Upsert(_ context.Context, item *models.CatalogItem) (UpsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := rowKey{item.MediaType, item.ID}
	blob := EncodeGenres(item.GenreIDs)

	existing, ok := s.rows[key]
	if !ok {
		row := CatalogRow{CatalogItem: *item, GenreBlob: blob}
		row.GenreIDs = nil
		row.Extra = nil
		row.Visible = true
		row.UpdatedAt = now
		s.rows[key] = row
		item.UpdatedAt = now
		return Created, nil
	}

	existing.Popularity = item.Popularity
	existing.VoteAverage = item.VoteAverage
	existing.PosterPath = item.PosterPath
	existing.BackdropPath = item.BackdropPath
	existing.GenreBlob = blob
	existing.UpdatedAt = now
	s.rows[key] = existing
	item.UpdatedAt = now
	return Updated, nil
}

func (s *MemoryCatalogStore) FindMany(_ context.Context, filter Filter, order OrderBy, limit int) ([]CatalogRow, error) {
	s.mu.RLock()
	out := make([]CatalogRow, 0, len(s.rows))
	for _, row := range s.rows {
		if matches(row, filter) {
			out = append(out, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch order {
		case OrderVoteAverage:
			if a.VoteAverage != b.VoteAverage {
				return a.VoteAverage > b.VoteAverage
			}
		case OrderReleaseDate:
			ad, bd := deref(a.ReleaseDate), deref(b.ReleaseDate)
			if ad != bd {
				// Missing dates sort last.
				if ad == "" || bd == "" {
					return bd == ""
				}
				return ad > bd
			}
		default:
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
		}
		return a.ID < b.ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryCatalogStore) Count(_ context.Context, filter Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, row := range s.rows {
		if matches(row, filter) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryCatalogStore) SetVisible(_ context.Context, m models.MediaType, id int64, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rowKey{m, id}
	row, ok := s.rows[key]
	if !ok {
		return ErrNotFound
	}
	row.Visible = visible
	s.rows[key] = row
	return nil
}

// PutRow stores a row verbatim, including an arbitrary genre blob.
func (s *MemoryCatalogStore) PutRow(row CatalogRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rowKey{row.MediaType, row.ID}] = row
}

// Get returns one row by key.
func (s *MemoryCatalogStore) Get(m models.MediaType, id int64) (CatalogRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[rowKey{m, id}]
	return row, ok
}

func matches(row CatalogRow, filter Filter) bool {
	if filter.MediaType != nil && row.MediaType != *filter.MediaType {
		return false
	}
	if filter.Visible != nil && row.Visible != *filter.Visible {
		return false
	}
	if filter.Year != nil {
		date := deref(row.ReleaseDate)
		if len(date) < 4 || date[:4] != strconv.Itoa(*filter.Year) {
			return false
		}
	}
	return true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
