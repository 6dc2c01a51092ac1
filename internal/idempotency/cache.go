package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sungwon/email-dispatch/internal/config"
)

const keyPrefix = "email-dispatch:idem:"

// Cache remembers message IDs for idempotency keys so a retried synchronous
// send replays the original response instead of sending the mail again.
// Backed by Redis; a nil Cache (no redis.addr configured) disables replay
// and every request is treated as new.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// New creates a Cache from config. Returns nil when no Redis address is
// configured, which callers must treat as "always miss".
func New(cfg config.RedisConfig, log zerolog.Logger) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl: cfg.TTL,
		log: log,
	}
}

// Lookup returns the message ID previously stored for the key, or "" on a
// miss. Redis errors degrade to a miss so the cache never blocks sending.
func (c *Cache) Lookup(ctx context.Context, key string) string {
	if c == nil || key == "" {
		return ""
	}
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Msg("idempotency lookup failed, treating as miss")
		}
		return ""
	}
	return val
}

// Store records the message ID for the key with the configured TTL.
func (c *Cache) Store(ctx context.Context, key, messageID string) {
	if c == nil || key == "" {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, messageID, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("idempotency store failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() {
	if c != nil {
		_ = c.client.Close()
	}
}
