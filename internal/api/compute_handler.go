package api

import (
	"context"
	"net/http"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/api/shared"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/compute"
)

// Computer serves expensive aggregates from cache or queues their
// computation.
type Computer interface {
	Request(ctx context.Context, kind string, params map[string]string) (compute.Result, error)
}

// ComputeHandler exposes the computation cache.
type ComputeHandler struct {
	compute Computer
}

// NewComputeHandler creates a ComputeHandler.
func NewComputeHandler(c Computer) *ComputeHandler {
	return &ComputeHandler{compute: c}
}

// Dashboard handles GET /api/stats/dashboard.
func (h *ComputeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	h.respond(w, r, compute.KindDashboardStats, nil)
}

// MonthlyReport handles GET /api/reports/monthly?month=YYYY-MM.
func (h *ComputeHandler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}
	q := MonthlyReportQuery{Month: r.URL.Query().Get("month")}
	if err := shared.ValidateRequest(q); err != nil {
		HandleAPIError(w, r, err, "month must be formatted YYYY-MM")
		return
	}
	h.respond(w, r, compute.KindMonthlyReport, map[string]string{"month": q.Month})
}

// EmployeeStats handles GET /api/employees/{id}/stats.
func (h *ComputeHandler) EmployeeStats(w http.ResponseWriter, r *http.Request) {
	_, id, ok := handleActorAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	h.respond(w, r, compute.KindEmployeeStats, map[string]string{"employeeId": id.String()})
}

// respond writes 200 with the value when it is cached and 202 with the job
// handle otherwise.
func (h *ComputeHandler) respond(w http.ResponseWriter, r *http.Request, kind string, params map[string]string) {
	res, err := h.compute.Request(r.Context(), kind, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if res.Job != nil {
		shared.RespondWithJSON(w, r, http.StatusAccepted, jobAccepted(kind, *res.Job))
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, res.Value)
}
