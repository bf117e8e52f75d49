package handler

import (
	"net/http"

	"github.com/stockwise/stockwise/internal/middleware"
	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/security"
	"github.com/stockwise/stockwise/internal/store"
)

// ProductsHandler handles /api/v1/products
type ProductsHandler struct {
	store store.Store
	audit *security.AuditLogger
}

func NewProductsHandler(s store.Store, audit *security.AuditLogger) *ProductsHandler {
	return &ProductsHandler{store: s, audit: audit}
}

func callerID(r *http.Request) int64 {
	u, _ := middleware.UserFromContext(r.Context())
	return u.ID
}

// List handles GET /products
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r)
	if !ok {
		return
	}
	products, err := h.store.ListProducts(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, products)
}

// Get handles GET /products/{id}
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, p)
}

// Create handles POST /products
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.ProductCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.store.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "create", "product", p.ID)
	models.WriteJSON(w, http.StatusOK, p)
}

// Update handles PATCH /products/{id}
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.ProductUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.store.UpdateProduct(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "update", "product", p.ID)
	models.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /products/{id} and returns the removed product
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.store.DeleteProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.audit.LogMutation(callerID(r), "delete", "product", p.ID)
	models.WriteJSON(w, http.StatusOK, p)
}
