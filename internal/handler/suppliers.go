package handler

import (
	"net/http"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
	"github.com/stockwise/stockwise/internal/store"
)

// SuppliersHandler handles /api/v1/suppliers
type SuppliersHandler struct {
	store store.Store
	audit *security.AuditLogger
}

func NewSuppliersHandler(s store.Store, audit *security.AuditLogger) *SuppliersHandler {
	return &SuppliersHandler{store: s, audit: audit}
}

func (h *SuppliersHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r)
	if !ok {
		return
	}
	suppliers, err := h.store.ListSuppliers(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, suppliers)
}

func (h *SuppliersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.SupplierCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s, err := h.store.CreateSupplier(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "create", "supplier", s.ID)
	models.WriteJSON(w, http.StatusOK, s)
}

func (h *SuppliersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.SupplierUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	s, err := h.store.UpdateSupplier(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "update", "supplier", s.ID)
	models.WriteJSON(w, http.StatusOK, s)
}

func (h *SuppliersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.store.DeleteSupplier(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "delete", "supplier", s.ID)
	models.WriteJSON(w, http.StatusOK, s)
}
