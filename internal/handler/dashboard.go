package handler

import (
	"net/http"
	"strconv"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/service"
)

// DashboardHandler serves the dashboard widgets
type DashboardHandler struct {
	dash *service.Dashboard
}

func NewDashboardHandler(dash *service.Dashboard) *DashboardHandler {
	return &DashboardHandler{dash: dash}
}

// KPIs handles GET /dashboard/kpis
func (h *DashboardHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	k, err := h.dash.KPIs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, k)
}

// LowStockAlerts handles GET /dashboard/low-stock-alerts
func (h *DashboardHandler) LowStockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.dash.LowStockAlerts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, alerts)
}

// PriorityTasks handles GET /dashboard/priority-tasks
func (h *DashboardHandler) PriorityTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.dash.PriorityTasks(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, tasks)
}

// PredictionsHandler serves demand forecasts
type PredictionsHandler struct {
	forecaster *service.Forecaster
}

func NewPredictionsHandler(f *service.Forecaster) *PredictionsHandler {
	return &PredictionsHandler{forecaster: f}
}

// Demand handles GET /predictions/demand/{product_id}?forecast_days=N
func (h *PredictionsHandler) Demand(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	days := 0
	if v := r.URL.Query().Get("forecast_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			models.WriteError(w, http.StatusBadRequest, "forecast_days must be an integer")
			return
		}
		days = n
	}
	pred, err := h.forecaster.PredictDemand(r.Context(), id, days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, pred)
}
