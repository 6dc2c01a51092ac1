package idempotency

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sungwon/email-dispatch/internal/config"
)

func TestNew_DisabledWithoutAddr(t *testing.T) {
	if c := New(config.RedisConfig{}, zerolog.Nop()); c != nil {
		t.Error("expected nil cache when no address is configured")
	}
}

func TestNilCache_IsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if got := c.Lookup(ctx, "key"); got != "" {
		t.Errorf("expected miss on nil cache, got %q", got)
	}
	c.Store(ctx, "key", "msg-1")
	c.Close()
}

func TestLookup_EmptyKeyAlwaysMisses(t *testing.T) {
	c := New(config.RedisConfig{Addr: "localhost:6379"}, zerolog.Nop())
	defer c.Close()

	// An empty key never touches Redis, so no connection is needed.
	if got := c.Lookup(context.Background(), ""); got != "" {
		t.Errorf("expected miss for empty key, got %q", got)
	}
	c.Store(context.Background(), "", "msg-1")
}
