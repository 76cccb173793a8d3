package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Настройки троттлинга отправок (как в старом SMS-сервисе)
const (
	maxResendsPerWindow = 3
	resendWindow        = 10 * time.Minute
	maxForgotPerWindow  = 5
)

// Throttler counts hits per key in a fixed window.
type Throttler interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RedisCounter is the part of *redis.Client the throttler needs.
type RedisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

type RedisThrottler struct {
	client RedisCounter
	prefix string
}

func NewRedisThrottler(client RedisCounter, prefix string) *RedisThrottler {
	return &RedisThrottler{client: client, prefix: prefix}
}

// Allow counts with INCR and keeps a TTL on the window key. A key left
// without TTL (failed EXPIRE, crash between the two calls) gets one on the
// next hit, so a window never outlives its duration by more than one call.
func (t *RedisThrottler) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	redisKey := t.prefix + key
	count, err := t.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := t.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("set ttl on %s: %w", redisKey, err)
		}
		return true, nil
	}

	ttl, err := t.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("read ttl of %s: %w", redisKey, err)
	}
	if ttl == redisNoTTL {
		log.Warnf("[throttle] key=%s had no ttl, restoring window", redisKey)
		if err := t.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return false, fmt.Errorf("set ttl on %s: %w", redisKey, err)
		}
	}
	return count <= int64(limit), nil
}

// go-redis reports "key exists, no expiry" as -1.
const redisNoTTL = time.Duration(-1)

// MemoryThrottler is the single-process fallback when no Redis is configured.
type MemoryThrottler struct {
	mu   sync.Mutex
	hits map[string]*throttleWindow
	Now  func() time.Time
}

type throttleWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryThrottler() *MemoryThrottler {
	return &MemoryThrottler{hits: make(map[string]*throttleWindow), Now: time.Now}
}

func (t *MemoryThrottler) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.Now()
	w, ok := t.hits[key]
	if !ok || !now.Before(w.resetAt) {
		w = &throttleWindow{resetAt: now.Add(window)}
		t.hits[key] = w
	}
	w.count++
	return w.count <= limit, nil
}

// allow fails open: a broken limiter must not lock admins out.
func allow(ctx context.Context, t Throttler, key string, limit int, window time.Duration) error {
	if t == nil {
		return nil
	}
	ok, err := t.Allow(ctx, key, limit, window)
	if err != nil {
		log.Warnf("[throttle] key=%s err=%v", key, err)
		return nil
	}
	if !ok {
		return ErrThrottled
	}
	return nil
}
