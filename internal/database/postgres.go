package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"marquee/internal/config"
	"marquee/internal/logger"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	id BIGINT NOT NULL,
	media_type TEXT NOT NULL,
	title TEXT NOT NULL,
	overview TEXT,
	poster_path TEXT,
	backdrop_path TEXT,
	release_date TEXT,
	vote_average DOUBLE PRECISION NOT NULL DEFAULT 0,
	popularity DOUBLE PRECISION NOT NULL DEFAULT 0,
	genre_ids TEXT NOT NULL DEFAULT '[]',
	visible BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (id, media_type)
);

CREATE INDEX IF NOT EXISTS catalog_items_popularity_idx ON catalog_items (media_type, visible, popularity DESC);
CREATE INDEX IF NOT EXISTS catalog_items_vote_idx ON catalog_items (media_type, visible, vote_average DESC);
`

// Configured reports whether enough settings exist to attempt a connection.
func Configured() bool {
	_, _, _, password, _ := config.DatabaseConfig()
	return password != ""
}

func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	host, port, user, password, databaseName := config.DatabaseConfig()

	if host == "" || port == "" || user == "" || password == "" || databaseName == "" {
		return nil, fmt.Errorf("missing required database configuration")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, databaseName)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("Connection to database successful!")
	return pool, nil
}

// EnsureSchema creates the catalog table and its indexes if missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, catalogSchema); err != nil {
		return fmt.Errorf("failed to apply catalog schema: %w", err)
	}
	return nil
}
