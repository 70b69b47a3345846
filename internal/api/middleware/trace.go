package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/platform/logger"
)

// TraceIDHeader echoes the request's trace ID to the client.
const TraceIDHeader = "X-Trace-Id"

// TraceMiddleware adds a trace ID to the request context and a logger
// carrying it, so hooks and stores log with the same trace ID. base is used
// when nil is passed.
func TraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithContext(ctx, log)
			w.Header().Set(TraceIDHeader, traceID)

			start := time.Now()
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			rec := newRecorder(w, false)
			next.ServeHTTP(rec, r.WithContext(ctx))

			log.Debug("request finished",
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)))
		})
	}
}
