package handler

import (
	"net/http"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
	"github.com/stockwise/stockwise/internal/store"
)

// ReordersHandler handles POST /api/v1/reorders/reorder
type ReordersHandler struct {
	store store.Store
	audit *security.AuditLogger
}

func NewReordersHandler(s store.Store, audit *security.AuditLogger) *ReordersHandler {
	return &ReordersHandler{store: s, audit: audit}
}

func (h *ReordersHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req models.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	po, err := h.store.CreatePurchaseOrder(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "create", "purchase_order", po.ID)

	models.WriteJSON(w, http.StatusOK, models.ReorderResponse{
		Status:          "success",
		PurchaseOrderID: po.ID,
		SupplierID:      po.SupplierID,
	})
}
