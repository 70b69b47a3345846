package api

import (
	"net/http"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/middleware"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/cache"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/compute"
	"github.com/go-chi/chi/v5"
)

// Cached model names.
const (
	ModelTasks         = "tasks"
	ModelTickets       = "tickets"
	ModelComments      = "comments"
	ModelAttendances   = "attendances"
	ModelEmployees     = "employees"
	ModelProfile       = "profile"
	ModelNotifications = "notifications"
)

// InvalidationRules lists, per written model, the extra cache patterns a
// write makes stale. Task and ticket writes reach each other through the
// synchronizer and create notifications; employee writes change the stats
// and the profile view.
func InvalidationRules() map[string][]string {
	stats := []string{
		cache.ComputePattern(compute.KindDashboardStats),
		cache.ComputePattern(compute.KindEmployeeStats),
	}
	return map[string][]string{
		ModelTasks: append([]string{
			cache.ModelPattern(ModelTickets),
			cache.ModelPattern(ModelComments),
			cache.ModelPattern(ModelNotifications),
		}, stats...),
		ModelTickets: append([]string{
			cache.ModelPattern(ModelTasks),
			cache.ModelPattern(ModelNotifications),
		}, stats[0]),
		ModelComments: {
			cache.ModelPattern(ModelNotifications),
		},
		ModelAttendances: {
			cache.ComputePattern(compute.KindMonthlyReport),
		},
		ModelEmployees: append([]string{
			cache.ModelPattern(ModelProfile),
		}, stats...),
	}
}

// RouterDeps are the collaborators NewRouter mounts.
type RouterDeps struct {
	Records     RecordService
	Compute     Computer
	Auth        *middleware.AuthMiddleware
	Cache       *middleware.ResponseCache
	Invalidator *cache.Invalidator
}

// NewRouter returns the authenticated /api routes.
func NewRouter(d RouterDeps) chi.Router {
	records := NewRecordHandler(d.Records)
	computed := NewComputeHandler(d.Compute)

	r := chi.NewRouter()
	r.Use(d.Auth.Authenticate)

	crud := func(model string, create, get, update http.HandlerFunc) func(chi.Router) {
		return func(r chi.Router) {
			r.With(middleware.Invalidate(d.Invalidator, model)).Post("/", create)
			r.With(d.Cache.Cache(model, "get")).Get("/{id}", get)
			r.With(middleware.Invalidate(d.Invalidator, model)).Patch("/{id}", update)
		}
	}

	r.Route("/tasks", func(r chi.Router) {
		crud(ModelTasks, records.CreateTask, records.GetTask, records.UpdateTask)(r)
		r.With(d.Cache.Cache(ModelComments, "list")).Get("/{id}/comments", records.ListComments)
		r.With(middleware.Invalidate(d.Invalidator, ModelComments)).Post("/{id}/comments", records.AddComment)
	})
	r.Route("/tickets", crud(ModelTickets, records.CreateTicket, records.GetTicket, records.UpdateTicket))
	r.Route("/attendances", crud(ModelAttendances, records.CreateAttendance, records.GetAttendance, records.UpdateAttendance))
	r.Route("/employees", func(r chi.Router) {
		crud(ModelEmployees, records.CreateEmployee, records.GetEmployee, records.UpdateEmployee)(r)
		r.Get("/{id}/stats", computed.EmployeeStats)
	})

	r.With(d.Cache.Cache(ModelProfile, "get")).Get("/me", records.GetProfile)
	r.With(d.Cache.Cache(ModelNotifications, "list")).Get("/notifications", records.ListNotifications)
	r.Get("/stats/dashboard", computed.Dashboard)
	r.Get("/reports/monthly", computed.MonthlyReport)

	return r
}

// Health handles GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
