package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	rdb    *redis.Client
	logger *slog.Logger
}

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

func NewRedis(cfg RedisConfig, logger *slog.Logger) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Redis{rdb: rdb, logger: logger}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.logger.Warn("cache_get_failed", "key", key, "error", err)
		return nil, err
	}
	return b, nil
}

func (c *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, val, ttl).Err(); err != nil {
		c.logger.Warn("cache_set_failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (c *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache_del_failed", "keys", len(keys), "error", err)
		return err
	}
	return nil
}

func (c *Redis) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		c.logger.Warn("cache_keys_failed", "pattern", pattern, "error", err)
		return nil, err
	}
	return keys, nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}
