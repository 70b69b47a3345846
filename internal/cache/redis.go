package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// RedisStore is a Store shared by every replica through Redis. All keys are
// namespaced with prefix.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

var _ Store = (*RedisStore)(nil)

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrCacheFailure, key, err)
	}
	return b, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrCacheFailure, key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, pattern string) (int, error) {
	prefix, isPrefix := IsPrefixPattern(pattern)
	if !isPrefix {
		n, err := r.client.Del(ctx, r.prefix+pattern).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: del %s: %v", ErrCacheFailure, pattern, err)
		}
		return int(n), nil
	}

	match := escapeGlob(r.prefix+prefix) + "*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: scan %s: %v", ErrCacheFailure, pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("%w: del %s: %v", ErrCacheFailure, pattern, err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob makes s match itself literally in a Redis MATCH pattern.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
