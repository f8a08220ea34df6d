package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"marquee/internal/models"
	"marquee/internal/repository"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeFetcher struct {
	configured bool
	respond    func(q models.QuerySpec) ([]byte, error)

	mu      sync.Mutex
	queries []models.QuerySpec
}

func (f *fakeFetcher) Configured() bool { return f.configured }

func (f *fakeFetcher) FetchList(_ context.Context, q models.QuerySpec) ([]byte, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return f.respond(q)
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// pagesFor counts fetched pages whose query matches name-by-category+genre.
func (f *fakeFetcher) pagesFor(q models.QuerySpec) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, got := range f.queries {
		if RequestKey(withPage(got, 1)) == RequestKey(withPage(q, 1)) {
			n++
		}
	}
	return n
}

func withPage(q models.QuerySpec, page int) models.QuerySpec {
	q.Page = page
	return q
}

type countingStore struct {
	repository.CatalogStore
	finds   atomic.Int32
	findErr error
	failIDs map[int64]bool
}

func (c *countingStore) FindMany(ctx context.Context, f repository.Filter, o repository.OrderBy, limit int) ([]repository.CatalogRow, error) {
	c.finds.Add(1)
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.CatalogStore.FindMany(ctx, f, o, limit)
}

func (c *countingStore) Upsert(ctx context.Context, item *models.CatalogItem) (repository.UpsertResult, error) {
	if c.failIDs[item.ID] {
		return 0, fmt.Errorf("write refused for %d", item.ID)
	}
	return c.CatalogStore.Upsert(ctx, item)
}

type rawItem map[string]any

func movie(id int64, title string, genres ...int) rawItem {
	if genres == nil {
		genres = []int{}
	}
	return rawItem{"id": id, "title": title, "poster_path": nil, "popularity": float64(id), "genre_ids": genres}
}

func pageBody(page, totalPages int, items ...rawItem) []byte {
	if items == nil {
		items = []rawItem{}
	}
	b, _ := json.Marshal(map[string]any{
		"page":          page,
		"total_pages":   totalPages,
		"total_results": totalPages * 20,
		"results":       items,
	})
	return b
}

func intPtr(i int) *int { return &i }
