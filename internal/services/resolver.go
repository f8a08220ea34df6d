package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	"marquee/internal/models"
	"marquee/internal/repository"
	"marquee/internal/validation"
)

const (
	SourceUpstream = "upstream"
	SourceCache    = "cache"
	SourceMirror   = "mirror"
	SourceStatic   = "static"

	defaultPageSize = 20
)

// ListFetcher is the slice of the upstream client the resolver needs.
type ListFetcher interface {
	Configured() bool
	FetchList(ctx context.Context, q models.QuerySpec) ([]byte, error)
}

// ResponseCache holds validated upstream bodies keyed by request.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// TierResult is either Ok with an envelope or a fall-through with a reason.
type TierResult struct {
	Envelope models.ListEnvelope
	Reason   string
	Err      error
	ok       bool
}

func Ok(env models.ListEnvelope) TierResult {
	return TierResult{Envelope: env, ok: true}
}

func Fallthrough(reason string, err error) TierResult {
	return TierResult{Reason: reason, Err: err}
}

func (r TierResult) OK() bool {
	return r.ok
}

type tier struct {
	name    string
	resolve func(ctx context.Context, q models.QuerySpec) TierResult
}

type ResolverConfig struct {
	PageSize int
	Logger   *logrus.Logger
}

// Resolver answers listing queries from the provider, then the mirror, then
// the static set. It never returns an error.
type Resolver struct {
	upstream ListFetcher
	store    repository.CatalogStore
	genres   GenreIndex
	cache    ResponseCache
	pageSize int
	logger   *logrus.Logger
	tiers    []tier
}

// NewResolver wires the tiers. upstream, store and cache may each be nil, in
// which case that source is skipped. A nil genres index over a non-nil store
// defaults to a ScanGenreIndex.
func NewResolver(upstream ListFetcher, store repository.CatalogStore, genres GenreIndex, cache ResponseCache, config ResolverConfig) *Resolver {
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if genres == nil && store != nil {
		genres = NewScanGenreIndex(store, 0, config.Logger)
	}

	r := &Resolver{
		upstream: upstream,
		store:    store,
		genres:   genres,
		cache:    cache,
		pageSize: config.PageSize,
		logger:   config.Logger,
	}
	r.tiers = []tier{
		{SourceUpstream, r.fromUpstream},
		{SourceMirror, r.fromMirror},
		{SourceStatic, r.fromStatic},
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, q models.QuerySpec) models.ListEnvelope {
	q = q.Normalize()

	for _, t := range r.tiers {
		res := t.resolve(ctx, q)
		if res.OK() {
			r.logger.WithFields(logrus.Fields{
				"tier":       t.name,
				"source":     res.Envelope.Source,
				"media_type": q.MediaType,
				"category":   q.Category,
				"page":       q.Page,
				"results":    len(res.Envelope.Results),
			}).Debug("Resolved listing")
			return res.Envelope
		}

		entry := r.logger.WithFields(logrus.Fields{
			"tier":       t.name,
			"reason":     res.Reason,
			"media_type": q.MediaType,
			"category":   q.Category,
		})
		if res.Err != nil {
			entry = entry.WithError(res.Err)
		}
		entry.Info("Tier fell through")
	}

	return models.SinglePage(nil, SourceStatic)
}

// ResolveMany resolves independent queries concurrently. Results are returned
// in input order.
func (r *Resolver) ResolveMany(ctx context.Context, queries []models.QuerySpec) []models.ListEnvelope {
	return iter.Map(queries, func(q *models.QuerySpec) models.ListEnvelope {
		return r.Resolve(ctx, *q)
	})
}

func (r *Resolver) fromUpstream(ctx context.Context, q models.QuerySpec) TierResult {
	if r.upstream == nil || !r.upstream.Configured() {
		return Fallthrough("upstream not configured", nil)
	}

	key := RequestKey(q)
	if r.cache != nil {
		if body, hit := r.cache.Get(ctx, key); hit {
			if env, err := validation.ValidateList(body, q.MediaType); err == nil && len(env.Results) > 0 {
				env.Source = SourceCache
				return Ok(*env)
			}
		}
	}

	body, err := r.upstream.FetchList(ctx, q)
	if err != nil {
		return Fallthrough(classifyUpstream(err), err)
	}

	env, err := validation.ValidateList(body, q.MediaType)
	if err != nil {
		return Fallthrough("invalid payload", err)
	}
	if len(env.Results) == 0 {
		return Fallthrough("upstream empty", nil)
	}
	env.Source = SourceUpstream

	if r.cache != nil {
		r.cache.Set(ctx, key, body)
	}
	return Ok(*env)
}

// fromMirror always reports page 1 of 1. The mirror is not paginated the way
// the provider is, so "next page" requests during an outage return the same
// rows.
func (r *Resolver) fromMirror(ctx context.Context, q models.QuerySpec) TierResult {
	if r.store == nil {
		return Fallthrough("mirror not configured", nil)
	}

	var (
		items []models.CatalogItem
		err   error
	)
	if q.GenreID != nil {
		if r.genres == nil {
			return Fallthrough("genre index not configured", nil)
		}
		items, err = r.mirrorByGenre(ctx, q)
	} else {
		items, err = r.mirrorByCategory(ctx, q)
	}
	if err != nil {
		return Fallthrough("mirror read failed", err)
	}
	if len(items) == 0 {
		return Fallthrough("mirror empty", nil)
	}

	return Ok(models.SinglePage(items, SourceMirror))
}

func (r *Resolver) mirrorByGenre(ctx context.Context, q models.QuerySpec) ([]models.CatalogItem, error) {
	limit := r.pageSize
	if q.Year != nil {
		// Year is applied after the genre scan, so keep everything it found.
		limit = 0
	}
	items, err := r.genres.FilterByGenre(ctx, q.MediaType, *q.GenreID, limit)
	if err != nil || q.Year == nil {
		return items, err
	}

	prefix := fmt.Sprintf("%04d", *q.Year)
	out := items[:0]
	for _, it := range items {
		if it.ReleaseDate != nil && len(*it.ReleaseDate) >= 4 && (*it.ReleaseDate)[:4] == prefix {
			out = append(out, it)
			if len(out) == r.pageSize {
				break
			}
		}
	}
	return out, nil
}

func (r *Resolver) mirrorByCategory(ctx context.Context, q models.QuerySpec) ([]models.CatalogItem, error) {
	filter := repository.VisibleOf(q.MediaType)
	filter.Year = q.Year

	rows, err := r.store.FindMany(ctx, filter, orderFor(q.Category), r.pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]models.CatalogItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.Item()
		if err != nil {
			r.logger.WithFields(logrus.Fields{
				"id":         row.ID,
				"media_type": row.MediaType,
			}).WithError(err).Debug("Serving row without genres")
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Resolver) fromStatic(_ context.Context, q models.QuerySpec) TierResult {
	items := StaticFallback(q.MediaType, r.pageSize)
	if len(items) == 0 {
		return Fallthrough("static set empty", nil)
	}
	return Ok(models.SinglePage(items, SourceStatic))
}

func orderFor(c models.Category) repository.OrderBy {
	switch c {
	case models.CategoryTopRated:
		return repository.OrderVoteAverage
	case models.CategoryNowPlaying, models.CategoryUpcoming, models.CategoryOnTheAir, models.CategoryAiringToday:
		return repository.OrderReleaseDate
	default:
		return repository.OrderPopularity
	}
}

func classifyUpstream(err error) string {
	var se *StatusError
	switch {
	case errors.Is(err, ErrUpstreamAuth):
		return "provider rejected credential"
	case errors.Is(err, ErrUpstreamNotFound):
		return "provider has no such resource"
	case errors.As(err, &se):
		return fmt.Sprintf("provider returned status %d", se.Code)
	case IsTransport(err):
		return "transport failure"
	default:
		return "upstream request failed"
	}
}
