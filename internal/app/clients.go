package app

import (
	"github.com/yungbote/lattice-backend/internal/clients/redis"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

type Clients struct {
	// Nil when REDIS_ADDR is unset or unreachable.
	Dedup *redis.DedupCache
}

// wireClients never fails: every client here is an optional fast path.
func wireClients(log *logger.Logger, cfg Config) Clients {
	log.Info("Wiring clients...")
	var c Clients
	if cfg.RedisAddr != "" {
		cache, err := redis.NewDedupCache(log, redis.DedupCacheConfig{
			Addr: cfg.RedisAddr,
			TTL:  cfg.DedupCacheTTL,
		})
		if err != nil {
			log.Warn("dedup cache disabled", "error", err)
		} else {
			c.Dedup = cache
		}
	}
	return c
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Dedup != nil {
		_ = c.Dedup.Close()
	}
}
