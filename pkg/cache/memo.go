package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/discord_alt/pkg/logging"
)

// Memo is a read-through cache of JSON-encoded values. With a nil client every
// Get goes straight to the loader.
type Memo[T any] struct {
	rdb redis.Cmdable
}

func NewMemo[T any](rdb redis.Cmdable) *Memo[T] {
	return &Memo[T]{rdb: rdb}
}

type Loader[T any] func(ctx context.Context) (T, error)

// Get returns the cached value for key or calls load and stores its result for
// ttl. Redis failures are logged and never fail the call.
func (m *Memo[T]) Get(ctx context.Context, key string, ttl time.Duration, load Loader[T]) (T, error) {
	if m.enabled() {
		raw, err := m.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var v T
			decErr := json.Unmarshal(raw, &v)
			if decErr == nil {
				return v, nil
			}
			logging.FromContext(ctx).Warn("cache_decode_failed", "key", key, "error", decErr)
		case !errors.Is(err, redis.Nil):
			logging.FromContext(ctx).Warn("cache_get_failed", "key", key, "error", err)
		}
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}

	if m.enabled() {
		raw, err := json.Marshal(v)
		if err != nil {
			logging.FromContext(ctx).Warn("cache_encode_failed", "key", key, "error", err)
			return v, nil
		}
		if err := m.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
			logging.FromContext(ctx).Warn("cache_set_failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func (m *Memo[T]) Invalidate(ctx context.Context, keys ...string) {
	if !m.enabled() || len(keys) == 0 {
		return
	}
	if err := m.rdb.Del(ctx, keys...).Err(); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "keys", keys, "error", err)
	}
}

func (m *Memo[T]) enabled() bool {
	return m != nil && m.rdb != nil
}
