package handler

import (
	"net/http"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
	"github.com/stockwise/stockwise/internal/store"
)

// CustomersHandler handles /api/v1/customers
type CustomersHandler struct {
	store store.Store
	audit *security.AuditLogger
}

func NewCustomersHandler(s store.Store, audit *security.AuditLogger) *CustomersHandler {
	return &CustomersHandler{store: s, audit: audit}
}

func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r)
	if !ok {
		return
	}
	customers, err := h.store.ListCustomers(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, customers)
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CustomerCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := h.store.CreateCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "create", "customer", c.ID)
	models.WriteJSON(w, http.StatusOK, c)
}
