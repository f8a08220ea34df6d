package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"marquee/internal/models"
)

var ErrNotFound = errors.New("catalog item not found")

type OrderBy string

const (
	OrderPopularity  OrderBy = "popularity"
	OrderVoteAverage OrderBy = "vote_average"
	OrderReleaseDate OrderBy = "release_date"
)

// Filter narrows a scan. A nil MediaType matches both partitions and a nil
// Visible matches hidden and visible rows.
type Filter struct {
	MediaType *models.MediaType
	Visible   *bool
	// Year matches the first four characters of the release date.
	Year *int
}

// VisibleOf is the filter every read path uses.
func VisibleOf(m models.MediaType) Filter {
	visible := true
	return Filter{MediaType: &m, Visible: &visible}
}

// UpsertResult tells a caller which branch of the upsert ran.
type UpsertResult int

const (
	Created UpsertResult = iota + 1
	Updated
)

// CatalogStore is the contract the resolver and ingestion pipeline need from
// the persistent mirror.
//
// Upsert keys on (ID, MediaType). A create writes every field and sets
// Visible; an update refreshes only popularity, vote average, poster,
// backdrop, genres and the update time, leaving Visible alone.
type CatalogStore interface {
	Upsert(ctx context.Context, item *models.CatalogItem) (UpsertResult, error)
	FindMany(ctx context.Context, filter Filter, order OrderBy, limit int) ([]CatalogRow, error)
	Count(ctx context.Context, filter Filter) (int, error)
	SetVisible(ctx context.Context, m models.MediaType, id int64, visible bool) error
}

// CatalogRow is a stored item with its genre set still in serialized form.
// GenreIDs on the embedded item is not populated by stores.
type CatalogRow struct {
	models.CatalogItem
	GenreBlob string
}

// Item decodes the genre blob. On a malformed blob the item is returned with
// an empty genre set alongside the error.
func (r CatalogRow) Item() (models.CatalogItem, error) {
	item := r.CatalogItem
	ids, err := DecodeGenres(r.GenreBlob)
	if err != nil {
		item.GenreIDs = []int{}
		return item, err
	}
	item.GenreIDs = ids
	return item, nil
}

// EncodeGenres serializes a genre set for the genre_ids column. The result is
// always a JSON array of unique non-negative integers in ascending order.
func EncodeGenres(ids []int) string {
	seen := make(map[int]bool, len(ids))
	clean := make([]int, 0, len(ids))
	for _, id := range ids {
		if id < 0 || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
	}
	sort.Ints(clean)
	b, _ := json.Marshal(clean)
	return string(b)
}

// DecodeGenres parses a genre_ids blob.
func DecodeGenres(blob string) ([]int, error) {
	if blob == "" {
		return []int{}, nil
	}
	var ids []int
	if err := json.Unmarshal([]byte(blob), &ids); err != nil {
		return nil, fmt.Errorf("decode genre blob: %w", err)
	}
	if ids == nil {
		ids = []int{}
	}
	for _, id := range ids {
		if id < 0 {
			return nil, fmt.Errorf("decode genre blob: negative genre id %d", id)
		}
	}
	return ids, nil
}
