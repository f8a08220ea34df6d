package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"marquee/internal/models"
	"marquee/internal/repository"
	"marquee/internal/validation"
)

const (
	DefaultPageCap   = 50
	defaultPaceEvery = 5
	defaultPaceDelay = time.Second
)

// Endpoint is one logical provider feed walked page by page.
type Endpoint struct {
	Name  string
	Query models.QuerySpec
}

// WorkList enumerates every feed a full ingestion run walks: the trending
// feeds, the general lists and the media type by genre cross product.
func WorkList() []Endpoint {
	endpoints := []Endpoint{
		feed(models.MediaMovie, models.CategoryTrending),
		feed(models.MediaShow, models.CategoryTrending),

		feed(models.MediaMovie, models.CategoryPopular),
		feed(models.MediaMovie, models.CategoryTopRated),
		feed(models.MediaMovie, models.CategoryNowPlaying),
		feed(models.MediaMovie, models.CategoryUpcoming),
		feed(models.MediaMovie, models.CategoryDiscover),
		feed(models.MediaShow, models.CategoryPopular),
		feed(models.MediaShow, models.CategoryTopRated),
		feed(models.MediaShow, models.CategoryOnTheAir),
		feed(models.MediaShow, models.CategoryAiringToday),
		feed(models.MediaShow, models.CategoryDiscover),
	}

	for _, m := range []models.MediaType{models.MediaMovie, models.MediaShow} {
		for _, g := range models.GenresFor(m) {
			id := g.ID
			endpoints = append(endpoints, Endpoint{
				Name:  fmt.Sprintf("%s/genre/%d", m, id),
				Query: models.QuerySpec{MediaType: m, Category: models.CategoryDiscover, GenreID: &id},
			})
		}
	}
	return endpoints
}

func feed(m models.MediaType, c models.Category) Endpoint {
	return Endpoint{
		Name:  fmt.Sprintf("%s/%s", m, c),
		Query: models.QuerySpec{MediaType: m, Category: c},
	}
}

// ItemWriter is the write half of the mirror store.
type ItemWriter interface {
	Upsert(ctx context.Context, item *models.CatalogItem) (repository.UpsertResult, error)
}

type RunResult struct {
	ItemsWritten     int           `json:"itemsWritten"`
	Created          int           `json:"created"`
	Updated          int           `json:"updated"`
	Skipped          int           `json:"skipped"`
	Failed           int           `json:"failed"`
	PagesFetched     int           `json:"pagesFetched"`
	EndpointsAborted int           `json:"endpointsAborted"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
}

type PipelineConfig struct {
	Pacer Pacer
	// Endpoints defaults to WorkList().
	Endpoints []Endpoint
	Logger    *logrus.Logger
	// BreakerWait is the pause before retrying a page the upstream breaker
	// refused. It should match the breaker's open period.
	BreakerWait time.Duration
}

// Pipeline mirrors provider feeds into the catalog store. Endpoints, pages
// and items are processed strictly in sequence.
type Pipeline struct {
	upstream  ListFetcher
	store     ItemWriter
	pacer       Pacer
	endpoints   []Endpoint
	logger      *logrus.Logger
	breakerWait time.Duration

	running atomic.Bool
	mu      sync.RWMutex
	last    *RunResult
}

func NewPipeline(upstream ListFetcher, store ItemWriter, config PipelineConfig) *Pipeline {
	if config.Pacer == nil {
		config.Pacer = FixedPacer{Every: defaultPaceEvery, Delay: defaultPaceDelay}
	}
	if config.Endpoints == nil {
		config.Endpoints = WorkList()
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.BreakerWait <= 0 {
		config.BreakerWait = breakerOpenPeriod
	}
	return &Pipeline{
		upstream:    upstream,
		store:       store,
		pacer:       config.Pacer,
		endpoints:   config.Endpoints,
		logger:      config.Logger,
		breakerWait: config.BreakerWait,
	}
}

func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// LastRun returns the result of the most recent completed run.
func (p *Pipeline) LastRun() (RunResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return RunResult{}, false
	}
	return *p.last, true
}

// Run walks every endpoint up to pageCap pages. Failures are absorbed and
// show up only in the counts and logs; the only error is ErrRunInProgress.
// Cancelling ctx stops the run between pages. No write spans more than one
// item, so an interrupted run leaves the mirror consistent.
func (p *Pipeline) Run(ctx context.Context, pageCap int) (RunResult, error) {
	if !p.running.CompareAndSwap(false, true) {
		return RunResult{}, ErrRunInProgress
	}
	defer p.running.Store(false)

	if pageCap <= 0 {
		pageCap = DefaultPageCap
	}

	result := RunResult{StartedAt: time.Now()}
	p.logger.WithFields(logrus.Fields{
		"endpoints": len(p.endpoints),
		"page_cap":  pageCap,
	}).Info("Starting ingestion run")

	if p.upstream == nil || !p.upstream.Configured() {
		p.logger.Warn("Upstream credential not configured, nothing to ingest")
	} else {
		for _, ep := range p.endpoints {
			if ctx.Err() != nil {
				p.logger.WithError(ctx.Err()).Warn("Ingestion run interrupted")
				break
			}
			p.walkEndpoint(ctx, ep, pageCap, &result)
		}
	}

	result.Duration = time.Since(result.StartedAt)
	p.mu.Lock()
	last := result
	p.last = &last
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"items_written":     result.ItemsWritten,
		"created":           result.Created,
		"updated":           result.Updated,
		"skipped":           result.Skipped,
		"failed":            result.Failed,
		"pages":             result.PagesFetched,
		"endpoints_aborted": result.EndpointsAborted,
		"duration":          result.Duration.String(),
	}).Info("Ingestion run finished")

	return result, nil
}

func (p *Pipeline) walkEndpoint(ctx context.Context, ep Endpoint, pageCap int, result *RunResult) {
	log := p.logger.WithField("endpoint", ep.Name)
	written := 0
	pages := 0

	for page := 1; page <= pageCap; page++ {
		p.pacer.Pace(ctx, page)
		if ctx.Err() != nil {
			return
		}

		q := ep.Query
		q.Page = page
		body, err := p.fetchPage(ctx, q, log)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			result.EndpointsAborted++
			log.WithField("page", page).WithError(err).Warn(abortMessage(err))
			break
		}

		list, err := validation.DecodeList(body)
		if err != nil {
			result.EndpointsAborted++
			log.WithField("page", page).WithError(err).Warn("Malformed page, aborting endpoint")
			break
		}
		result.PagesFetched++
		pages++

		if len(list.Results) == 0 {
			break
		}

		for _, raw := range list.Results {
			item, err := validation.DecodeItem(raw, ep.Query.MediaType)
			if err != nil {
				result.Skipped++
				log.WithField("page", page).WithError(err).Debug("Skipping malformed item")
				continue
			}

			res, err := p.store.Upsert(ctx, &item)
			if err != nil {
				result.Failed++
				log.WithFields(logrus.Fields{
					"page": page,
					"id":   item.ID,
				}).WithError(err).Warn("Failed to upsert item")
				continue
			}

			result.ItemsWritten++
			written++
			if res == repository.Created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if page >= list.TotalPages {
			break
		}
	}

	log.WithFields(logrus.Fields{
		"pages":   pages,
		"written": written,
	}).Info("Endpoint ingested")
}

// fetchPage waits out an open breaker and retries, so an endpoint is only
// aborted by a failure that reached the provider. It gives up when ctx ends.
func (p *Pipeline) fetchPage(ctx context.Context, q models.QuerySpec, log *logrus.Entry) ([]byte, error) {
	for {
		body, err := p.upstream.FetchList(ctx, q)
		if err == nil || !BreakerOpen(err) {
			return body, err
		}

		log.WithFields(logrus.Fields{
			"page": q.Page,
			"wait": p.breakerWait.String(),
		}).Warn("Upstream breaker open, pausing ingestion")

		t := time.NewTimer(p.breakerWait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func abortMessage(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamAuth):
		return "Authentication failure, aborting endpoint"
	case IsTransport(err):
		return "Transport failure, aborting endpoint"
	default:
		return "Page fetch failed, aborting endpoint"
	}
}
