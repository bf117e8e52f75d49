package handler

import (
	"net/http"

	"github.com/stockwise/stockwise/internal/middleware"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
	"github.com/stockwise/stockwise/internal/store"
)

// OrdersHandler handles sales orders under /api/v1/orders
type OrdersHandler struct {
	store store.Store
	audit *security.AuditLogger
}

func NewOrdersHandler(s store.Store, audit *security.AuditLogger) *OrdersHandler {
	return &OrdersHandler{store: s, audit: audit}
}

// List handles GET /orders, newest first
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r)
	if !ok {
		return
	}
	orders, err := h.store.ListOrders(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, orders)
}

// Details handles GET /orders/{id}
func (h *OrdersHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	d, err := h.store.GetOrderDetails(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, d)
}

// UpdateStatus handles PATCH /orders/{id} and returns the full order details
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.OrderUpdateStatus
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.store.UpdateOrderStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "update_status", "order", id)

	d, err := h.store.GetOrderDetails(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, d)
}

// RecordSale handles POST /orders/sales
func (h *OrdersHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var req models.SaleCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var userID *int64
	if u, ok := middleware.UserFromContext(r.Context()); ok {
		userID = &u.ID
	}
	order, err := h.store.CreateSale(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "create", "sale", order.ID)

	models.WriteJSON(w, http.StatusOK, models.SaleResponse{
		SaleID: order.ID,
		Status: "success",
		Detail: "Inventory levels updated successfully.",
	})
}
