package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"marquee/internal/cache"
	"marquee/internal/config"
	"marquee/internal/database"
	"marquee/internal/logger"
	"marquee/internal/repository"
	"marquee/internal/services"
)

type Container struct {
	Config    *config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Logger    *logrus.Logger
	Store     repository.CatalogStore
	Upstream  *services.UpstreamClient
	Resolver  *services.Resolver
	Pipeline  *services.Pipeline
	Scheduler *services.Scheduler
}

func New(ctx context.Context) (*Container, error) {
	log := logger.Get()
	cfg := config.Load(log)
	logger.SetLevel(cfg.LogLevel)

	// Postgres when credentials exist, otherwise an in-process mirror
	var (
		db    *pgxpool.Pool
		store repository.CatalogStore
	)
	if database.Configured() {
		pool, err := database.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		db = pool
		store = repository.NewPostgresCatalogStore(pool)
	} else {
		log.Warn("Database not configured, using in-memory catalog mirror")
		store = repository.NewMemoryCatalogStore()
	}

	redisClient, err := cache.Connect(ctx, log)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	var responseCache services.ResponseCache
	if redisClient != nil {
		responseCache = cache.NewRedisResponseCache(redisClient, cfg.ResolverCacheTTL, log)
	}

	upstream := services.NewUpstreamClient(&services.ClientConfig{
		BaseURL:           cfg.TMDBBaseURL,
		APIKey:            cfg.TMDBAPIKey,
		Language:          cfg.TMDBLanguage,
		Timeout:           cfg.UpstreamTimeout,
		RequestsPerSecond: cfg.UpstreamRPS,
		MaxRetries:        cfg.UpstreamMaxRetries,
		Logger:            log,
	})
	if !upstream.Configured() {
		log.Warn("TMDB_API_KEY not set, listings will be served from the mirror")
	}

	genres := services.NewScanGenreIndex(store, cfg.GenreScanSize, log)
	resolver := services.NewResolver(upstream, store, genres, responseCache, services.ResolverConfig{
		PageSize: cfg.ResolverPageSize,
		Logger:   log,
	})

	pipeline := services.NewPipeline(upstream, store, services.PipelineConfig{
		Pacer:  services.FixedPacer{Every: cfg.IngestPaceEvery, Delay: cfg.IngestPaceDelay},
		Logger: log,
	})

	return &Container{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		Logger:    log,
		Store:     store,
		Upstream:  upstream,
		Resolver:  resolver,
		Pipeline:  pipeline,
		Scheduler: services.NewScheduler(pipeline, cfg.IngestInterval, cfg.IngestPageCap, cfg.IngestTimeout, log),
	}, nil
}

func (c *Container) Close() {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}
