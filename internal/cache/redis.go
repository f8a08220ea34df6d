package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"marquee/internal/config"
)

const listCachePrefix = "catalog:list:"

// Connect returns nil, nil when no redis host is configured.
func Connect(ctx context.Context, log *logrus.Logger) (*redis.Client, error) {
	host, port, password := config.RedisConfig()
	if host == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info("Connection to Redis successful")
	return client, nil
}

// RedisResponseCache stores validated upstream list bodies.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewRedisResponseCache(client *redis.Client, ttl time.Duration, log *logrus.Logger) *RedisResponseCache {
	return &RedisResponseCache{client: client, ttl: ttl, logger: log}
}

func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, bool) {
	cached, err := c.client.Get(ctx, listCachePrefix+key).Bytes()
	if err == nil {
		return cached, true
	}
	if err != redis.Nil {
		c.logger.WithError(err).Warn("Failed to read from Redis")
	}
	return nil, false
}

func (c *RedisResponseCache) Set(ctx context.Context, key string, body []byte) {
	if err := c.client.Set(ctx, listCachePrefix+key, body, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to write list to cache")
		return
	}
	c.logger.WithField("key", key).Debug("List cached successfully")
}
