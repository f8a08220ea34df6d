package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marquee/internal/models"
)

func strptr(s string) *string { return &s }

func TestMemoryUpsertRefreshesOnlyVolatileFields(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore()

	first := &models.CatalogItem{
		ID: 603, MediaType: models.MediaMovie, Title: "The Matrix",
		Popularity: 10, VoteAverage: 8.1, PosterPath: strptr("/old.jpg"), GenreIDs: []int{28, 878},
	}
	res, err := store.Upsert(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, Created, res)

	require.NoError(t, store.SetVisible(ctx, models.MediaMovie, 603, false))

	second := &models.CatalogItem{
		ID: 603, MediaType: models.MediaMovie, Title: "Renamed Upstream",
		Popularity: 99, VoteAverage: 8.2, PosterPath: strptr("/new.jpg"), GenreIDs: []int{878},
	}
	res, err = store.Upsert(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	row, ok := store.Get(models.MediaMovie, 603)
	require.True(t, ok)
	assert.Equal(t, "The Matrix", row.Title)
	assert.False(t, row.Visible)
	assert.Equal(t, 99.0, row.Popularity)
	assert.Equal(t, "/new.jpg", *row.PosterPath)
	assert.Equal(t, "[878]", row.GenreBlob)

	n, err := store.Count(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryFindManyFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCatalogStore()

	for _, it := range []models.CatalogItem{
		{ID: 1, MediaType: models.MediaMovie, Title: "a", Popularity: 5, VoteAverage: 9, ReleaseDate: strptr("2020-01-01")},
		{ID: 2, MediaType: models.MediaMovie, Title: "b", Popularity: 50, VoteAverage: 6, ReleaseDate: strptr("2023-05-01")},
		{ID: 3, MediaType: models.MediaMovie, Title: "c", Popularity: 20, VoteAverage: 7},
		{ID: 4, MediaType: models.MediaShow, Title: "d", Popularity: 500},
	} {
		it := it
		_, err := store.Upsert(ctx, &it)
		require.NoError(t, err)
	}
	require.NoError(t, store.SetVisible(ctx, models.MediaMovie, 3, false))

	rows, err := store.FindMany(ctx, VisibleOf(models.MediaMovie), OrderPopularity, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids(rows))

	all := Filter{MediaType: VisibleOf(models.MediaMovie).MediaType}
	rows, err = store.FindMany(ctx, all, OrderVoteAverage, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids(rows))

	rows, err = store.FindMany(ctx, all, OrderReleaseDate, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 3}, ids(rows))

	year := 2020
	f := VisibleOf(models.MediaMovie)
	f.Year = &year
	n, err := store.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGenreBlobRoundTrip(t *testing.T) {
	assert.Equal(t, "[]", EncodeGenres(nil))
	assert.Equal(t, "[12,28]", EncodeGenres([]int{28, 12, 28, -1}))

	ids, err := DecodeGenres("[28,12]")
	require.NoError(t, err)
	assert.Equal(t, []int{28, 12}, ids)

	ids, err = DecodeGenres("null")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = DecodeGenres("28,12")
	assert.Error(t, err)
	_, err = DecodeGenres("[-3]")
	assert.Error(t, err)
}

func TestCatalogRowItemOnCorruptBlob(t *testing.T) {
	row := CatalogRow{CatalogItem: models.CatalogItem{ID: 9, Title: "x"}, GenreBlob: "{oops"}
	item, err := row.Item()
	assert.Error(t, err)
	assert.Equal(t, int64(9), item.ID)
	assert.Empty(t, item.GenreIDs)
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(Filter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	year := 1999
	f := VisibleOf(models.MediaShow)
	f.Year = &year
	where, args = buildWhere(f)
	assert.Equal(t, " WHERE media_type = $1 AND visible = $2 AND LEFT(release_date, 4) = $3", where)
	assert.Equal(t, []any{"show", true, "1999"}, args)
}

func ids(rows []CatalogRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
