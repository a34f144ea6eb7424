package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/lattice-backend/internal/domain/study"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

const (
	defaultDedupTTL    = 24 * time.Hour
	defaultDedupPrefix = "dedup"
)

type DedupCacheConfig struct {
	Addr   string
	Prefix string
	TTL    time.Duration
}

type DedupCache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewDedupCache connects and pings; callers treat an error as "run without a
// cache".
func NewDedupCache(log *logger.Logger, cfg DedupCacheConfig) (*DedupCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newDedupCache(log, rdb, cfg), nil
}

func newDedupCache(log *logger.Logger, rdb goredis.UniversalClient, cfg DedupCacheConfig) *DedupCache {
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultDedupPrefix
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultDedupTTL
	}
	return &DedupCache{
		log:    log.With("service", "RedisDedupCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *DedupCache) key(entity, key string) string {
	return c.prefix + ":" + entity + ":" + key
}

func (c *DedupCache) Get(ctx context.Context, entity, key string) (types.DedupBinding, bool, error) {
	if c == nil || c.rdb == nil {
		return types.DedupBinding{}, false, nil
	}
	raw, err := c.rdb.Get(ctx, c.key(entity, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return types.DedupBinding{}, false, nil
	}
	if err != nil {
		return types.DedupBinding{}, false, err
	}
	var b types.DedupBinding
	if err := json.Unmarshal(raw, &b); err != nil {
		// Unreadable entries are treated as misses and overwritten later.
		c.log.Warn("dedup cache entry corrupt", "entity", entity, "error", err)
		return types.DedupBinding{}, false, nil
	}
	return b, true, nil
}

// Put never overwrites an existing binding.
func (c *DedupCache) Put(ctx context.Context, entity, key string, b types.DedupBinding) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.rdb.SetNX(ctx, c.key(entity, key), raw, c.ttl).Err()
}

func (c *DedupCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
