package api

import (
	"context"
	"crypto/sha1"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cstrack/cstrack-client/internal/config"
)

// Cache keeps the bodies of successful GETs in Redis, keyed by token and
// path so one user never sees another user's data. All methods are no-ops
// on a nil *Cache.
type Cache struct {
	cfg    config.CacheConfig
	rdb    *redis.Client
	logger *slog.Logger
}

// NewCache returns nil when caching is disabled or Redis is unavailable.
func NewCache(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) *Cache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{cfg: cfg, rdb: rdb, logger: logger}
}

func (c *Cache) key(token, path string) string {
	sum := sha1.Sum([]byte(token + "\n" + path))
	return fmt.Sprintf("%s:%x", c.cfg.Prefix, sum[:])
}

func (c *Cache) get(ctx context.Context, token, path string) ([]byte, bool) {
	if c == nil || !c.cfg.Cacheable(path) {
		return nil, false
	}
	body, err := c.rdb.Get(ctx, c.key(token, path)).Bytes()
	if err != nil {
		return nil, false
	}
	c.logger.Debug("cache hit", "path", path)
	return body, true
}

func (c *Cache) put(ctx context.Context, token, path string, body []byte) {
	if c == nil || !c.cfg.Cacheable(path) {
		return
	}
	if c.cfg.MaxBodyBytes > 0 && len(body) > c.cfg.MaxBodyBytes {
		return
	}
	if err := c.rdb.SetEx(ctx, c.key(token, path), body, c.cfg.TTL).Err(); err != nil {
		c.logger.Warn("cache write failed", "path", path, "err", err)
	}
}

// Invalidate drops the cached reads of paths made with token.
func (c *Cache) Invalidate(ctx context.Context, token string, paths ...string) {
	if c == nil {
		return
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, c.key(token, p))
	}
	if len(keys) > 0 {
		_ = c.rdb.Del(ctx, keys...).Err()
	}
}
