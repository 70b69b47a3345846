package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrCacheFailure wraps every backend error. Callers going through Resilient
// never see it; it is logged and the operation degrades to a miss.
var ErrCacheFailure = errors.New("cache failure")

// Store is a shared key/value cache with per-entry expiry.
type Store interface {
	// Get returns the value and true on a hit. Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key until ttl elapses.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entries matching pattern and reports how many were
	// removed. A pattern ending in "*" matches every key with that prefix;
	// any other pattern matches one key exactly.
	Delete(ctx context.Context, pattern string) (int, error)
}

// IsPrefixPattern reports whether pattern is a prefix match, returning the prefix.
func IsPrefixPattern(pattern string) (string, bool) {
	if strings.HasSuffix(pattern, "*") {
		return strings.TrimSuffix(pattern, "*"), true
	}
	return pattern, false
}

// Matches reports whether key is selected by pattern.
func Matches(pattern, key string) bool {
	if prefix, ok := IsPrefixPattern(pattern); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}
