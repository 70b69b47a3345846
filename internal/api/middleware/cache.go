package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/cache"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
	"github.com/go-chi/chi/v5"
)

// FromCacheHeader is "true" on responses replayed from the cache and "false"
// on cacheable responses produced by the handler.
const FromCacheHeader = "X-From-Cache"

// DefaultTTL applies to models without their own entry.
const DefaultTTL = 5 * time.Minute

// DefaultTTLs returns the per-model response cache lifetimes.
func DefaultTTLs() map[string]time.Duration {
	return map[string]time.Duration{
		"employees":     10 * time.Minute,
		"profile":       10 * time.Minute,
		"tasks":         5 * time.Minute,
		"attendances":   30 * time.Minute,
		"notifications": time.Minute,
	}
}

// envelope is the cached form of a response. Body is replayed verbatim.
type envelope struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// ResponseCache caches successful GET responses per acting user.
type ResponseCache struct {
	store    cache.Store
	ttls     map[string]time.Duration
	fallback time.Duration
	logger   *slog.Logger
}

// NewResponseCache creates a ResponseCache. Models missing from ttls use
// DefaultTTL unless WithFallbackTTL says otherwise.
func NewResponseCache(store cache.Store, ttls map[string]time.Duration, log *slog.Logger) *ResponseCache {
	if log == nil {
		log = slog.Default()
	}
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	return &ResponseCache{
		store:    store,
		ttls:     ttls,
		fallback: DefaultTTL,
		logger:   log.With("component", "response_cache"),
	}
}

// WithFallbackTTL replaces DefaultTTL for models missing from the table.
func (c *ResponseCache) WithFallbackTTL(ttl time.Duration) *ResponseCache {
	if ttl > 0 {
		c.fallback = ttl
	}
	return c
}

// TTL returns the cache lifetime for model.
func (c *ResponseCache) TTL(model string) time.Duration {
	if ttl, ok := c.ttls[model]; ok && ttl > 0 {
		return ttl
	}
	return c.fallback
}

// Cache serves GET requests for model/action from the cache and stores 200
// responses on a miss. The record ID is read from the {id} path parameter.
func (c *ResponseCache) Cache(model, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			log := logger.FromContextOrDefault(ctx, c.logger)

			actorID, _ := shared.ActorID(ctx)
			key := cache.ResponseKey{
				Model:  model,
				Action: action,
				ID:     chi.URLParam(r, "id"),
				Query:  r.URL.Query(),
				UserID: actorID,
			}.String()

			if raw, ok, err := c.store.Get(ctx, key); err == nil && ok {
				var env envelope
				if err := json.Unmarshal(raw, &env); err == nil {
					if env.ContentType != "" {
						w.Header().Set("Content-Type", env.ContentType)
					}
					w.Header().Set(FromCacheHeader, "true")
					w.WriteHeader(env.Status)
					_, _ = w.Write(env.Body)
					return
				}
				log.Warn("discarding unreadable cache entry", "key", key)
			}

			w.Header().Set(FromCacheHeader, "false")
			rec := newRecorder(w, true)
			next.ServeHTTP(rec, r)
			if rec.status != http.StatusOK {
				return
			}

			raw, err := json.Marshal(envelope{
				Status:      rec.status,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			})
			if err != nil {
				log.Warn("failed to encode cache entry", "key", key, "error", err)
				return
			}
			if err := c.store.Set(ctx, key, raw, c.TTL(model)); err != nil {
				log.Warn("failed to store response", "key", key, "error", err)
			}
		})
	}
}

// Invalidate drops cached reads for model after a successful write. The
// record ID is read from the {id} path parameter; creates have none and drop
// only the broad patterns. Invalidation runs after the response is written
// and does not delay it.
func Invalidate(inv *cache.Invalidator, model string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			rec := newRecorder(w, false)
			next.ServeHTTP(rec, r)
			if rec.status >= 200 && rec.status < 300 {
				inv.InvalidateAsync(r.Context(), model, chi.URLParam(r, "id"))
			}
		})
	}
}

// recorder tracks the status written through it and optionally copies the
// body.
type recorder struct {
	http.ResponseWriter
	status  int
	wrote   bool
	capture bool
	body    bytes.Buffer
}

func newRecorder(w http.ResponseWriter, capture bool) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK, capture: capture}
}

func (r *recorder) WriteHeader(code int) {
	if r.wrote {
		return
	}
	r.status = code
	r.wrote = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if !r.wrote {
		r.WriteHeader(http.StatusOK)
	}
	if r.capture {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}
