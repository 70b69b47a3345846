// Package logger sets up structured JSON logging on log/slog and carries
// request-scoped loggers through context.Context.
//
// HTTP middleware stores a logger enriched with the trace id in the request
// context; stores, hooks and queue handlers retrieve it with FromContext so
// every line written while serving one request shares that id.
package logger
