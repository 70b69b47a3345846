package main

import (
	"net/http"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api"
	apiMiddleware "github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// setupRouter mounts the authenticated API under /api next to the public
// health check.
func (app *application) setupRouter(deps api.RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	r.Mount("/api", api.NewRouter(deps))
	r.Get("/health", api.Health)

	return r
}
