package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	log "github.com/Goden-Gun/fault-lib/pkg/logger"
)

const (
	// DefaultCounterPrefix is the Redis key prefix for per-code counters.
	DefaultCounterPrefix = "fault:count:"
	// DefaultCounterTTL keeps a day bucket around for a week.
	DefaultCounterTTL = 7 * 24 * time.Hour
)

// RedisCounter keeps one occurrence counter per error code per UTC day.
type RedisCounter struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisCounter returns nil when client is nil; Record on a nil counter is a no-op.
func NewRedisCounter(client redis.Cmdable, prefix string, ttl time.Duration) *RedisCounter {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = DefaultCounterPrefix
	}
	if ttl <= 0 {
		ttl = DefaultCounterTTL
	}
	return &RedisCounter{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCounter) Record(ctx context.Context, ev Event) {
	if c == nil || ev.Code == "" {
		return
	}
	day := ev.Timestamp
	if day.IsZero() {
		day = time.Now()
	}
	key := c.key(ev.Code, day)
	cmdCtx, cancel := detach(ctx)
	defer cancel()
	pipe := c.client.TxPipeline()
	pipe.Incr(cmdCtx, key)
	pipe.Expire(cmdCtx, key, c.ttl)
	if _, err := pipe.Exec(cmdCtx); err != nil {
		log.WithTrace(ctx).WithError(err).WithField("key", key).Warn("diagnostics: increment fault counter failed")
	}
}

// Prefix returns the key prefix in use.
func (c *RedisCounter) Prefix() string { return c.prefix }

// TTL returns how long a day bucket is kept.
func (c *RedisCounter) TTL() time.Duration { return c.ttl }

// Count returns how many times code was recorded on day (UTC).
func (c *RedisCounter) Count(ctx context.Context, code string, day time.Time) (int64, error) {
	if c == nil {
		return 0, fmt.Errorf("fault counter not configured")
	}
	n, err := c.client.Get(ctx, c.key(code, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (c *RedisCounter) key(code string, day time.Time) string {
	return c.prefix + code + ":" + day.UTC().Format("20060102")
}
