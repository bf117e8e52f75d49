package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/stockwise/stockwise/internal/models"
)

// Version is reported by /health and `stockwise version`
var Version = "1.0.0"

// Pinger is implemented by dependencies that can report connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health with dependency checks
type HealthHandler struct {
	store         Pinger
	llmConfigured bool
}

func NewHealthHandler(store Pinger, llmConfigured bool) *HealthHandler {
	return &HealthHandler{store: store, llmConfigured: llmConfigured}
}

// Health reports 503 when the store is unreachable. A missing model key degrades
// only the chatbot and is reported without failing the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		checks["store"] = "unavailable: " + err.Error()
		overallStatus = "degraded"
	} else {
		checks["store"] = "ok"
	}

	if h.llmConfigured {
		checks["llm"] = "configured"
	} else {
		checks["llm"] = "missing api key"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: Version,
		Checks:  checks,
	})
}

// Root handles GET /
func Root(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to the Inventory Management API",
	})
}
