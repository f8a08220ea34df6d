package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TMDB_API_KEY", "INGEST_PAGE_CAP", "INGEST_PACE_EVERY", "INGEST_PACE_DELAY", "GENRE_SCAN_SIZE", "INGEST_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg := Load(logrus.New())

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.TMDBAPIKey)
	assert.Equal(t, 50, cfg.IngestPageCap)
	assert.Equal(t, 5, cfg.IngestPaceEvery)
	assert.Equal(t, time.Second, cfg.IngestPaceDelay)
	assert.Equal(t, 500, cfg.GenreScanSize)
	assert.Zero(t, cfg.IngestInterval)
}

func TestLoadOverridesAndInvalidValues(t *testing.T) {
	t.Setenv("GENRE_SCAN_SIZE", "2000")
	t.Setenv("INGEST_PACE_DELAY", "250ms")
	t.Setenv("INGEST_PAGE_CAP", "lots")
	t.Setenv("UPSTREAM_RPS", "0.5")

	cfg := Load(logrus.New())

	assert.Equal(t, 2000, cfg.GenreScanSize)
	assert.Equal(t, 250*time.Millisecond, cfg.IngestPaceDelay)
	assert.Equal(t, 50, cfg.IngestPageCap)
	assert.InDelta(t, 0.5, cfg.UpstreamRPS, 1e-9)
}
