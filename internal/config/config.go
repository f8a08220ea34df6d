package config

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Port string

	TMDBAPIKey         string
	TMDBBaseURL        string
	TMDBLanguage       string
	UpstreamTimeout    time.Duration
	UpstreamRPS        float64
	UpstreamMaxRetries int

	ResolverCacheTTL time.Duration
	ResolverPageSize int
	GenreScanSize    int

	IngestPageCap   int
	IngestPaceEvery int
	IngestPaceDelay time.Duration
	IngestInterval  time.Duration
	IngestTimeout   time.Duration

	AdminToken string
	LogLevel   string
}

// Load reads the process environment. Malformed numeric or duration values
// fall back to their defaults and are reported through log.
func Load(log *logrus.Logger) *Config {
	return &Config{
		Port: GetEnv("PORT", "8080"),

		TMDBAPIKey:         GetEnv("TMDB_API_KEY", ""),
		TMDBBaseURL:        GetEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBLanguage:       GetEnv("TMDB_LANGUAGE", "en-US"),
		UpstreamTimeout:    getDuration(log, "UPSTREAM_TIMEOUT", 15*time.Second),
		UpstreamRPS:        getFloat(log, "UPSTREAM_RPS", 4),
		UpstreamMaxRetries: getInt(log, "UPSTREAM_MAX_RETRIES", 3),

		ResolverCacheTTL: getDuration(log, "RESOLVER_CACHE_TTL", 30*time.Minute),
		ResolverPageSize: getInt(log, "RESOLVER_PAGE_SIZE", 20),
		GenreScanSize:    getInt(log, "GENRE_SCAN_SIZE", 500),

		IngestPageCap:   getInt(log, "INGEST_PAGE_CAP", 50),
		IngestPaceEvery: getInt(log, "INGEST_PACE_EVERY", 5),
		IngestPaceDelay: getDuration(log, "INGEST_PACE_DELAY", time.Second),
		IngestInterval:  getDuration(log, "INGEST_INTERVAL", 0),
		IngestTimeout:   getDuration(log, "INGEST_TIMEOUT", 30*time.Minute),

		AdminToken: GetEnv("ADMIN_TOKEN", ""),
		LogLevel:   GetEnv("LOG_LEVEL", "info"),
	}
}

// DatabaseConfig returns host, port, user, password, database name
func DatabaseConfig() (string, string, string, string, string) {
	host := GetEnv("DB_HOST", "localhost")
	port := GetEnv("DB_PORT", "5432")
	user := GetEnv("DB_USER", "marquee")
	password := GetEnv("DB_PASSWORD", "")
	name := GetEnv("DB_NAME", "marquee")
	return host, port, user, password, name
}

// RedisConfig returns host, port, password
func RedisConfig() (string, string, string) {
	host := GetEnv("R_HOST", "")
	port := GetEnv("R_PORT", "6379")
	password := GetEnv("R_PASS", "")
	return host, port, password
}

// GetEnv retrieves values from environment files based on the key it matches,
// returns a string (value) if not empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(log *logrus.Logger, key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		warnInvalid(log, key, raw, err)
		return defaultValue
	}
	return v
}

func getFloat(log *logrus.Logger, key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		warnInvalid(log, key, raw, err)
		return defaultValue
	}
	return v
}

func getDuration(log *logrus.Logger, key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		warnInvalid(log, key, raw, err)
		return defaultValue
	}
	return v
}

func warnInvalid(log *logrus.Logger, key, raw string, err error) {
	if log == nil {
		return
	}
	log.WithFields(logrus.Fields{
		"key":   key,
		"value": raw,
	}).WithError(err).Warn("Invalid config value, using default")
}
