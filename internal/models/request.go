package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrValidation marks a request that failed input validation
var ErrValidation = errors.New("validation failed")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Pagination for list endpoints
type Pagination struct {
	Skip  int
	Limit int
}

func (p *Pagination) SetDefaults() {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}
}

// ProductCreate for POST /api/v1/products
type ProductCreate struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Category     string  `json:"category"`
	Supplier     string  `json:"supplier"`
	CurrentStock int     `json:"currentStock"`
	ReorderPoint int     `json:"reorderPoint"`
	Price        float64 `json:"price"`
}

func (r *ProductCreate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name is required")
	}
	if strings.TrimSpace(r.SKU) == "" {
		return invalid("sku is required")
	}
	if r.CurrentStock < 0 || r.ReorderPoint < 0 {
		return invalid("currentStock and reorderPoint must be non-negative")
	}
	if r.Price < 0 {
		return invalid("price must be non-negative")
	}
	return nil
}

// ProductUpdate for PATCH /api/v1/products/{id}; nil fields are left unchanged
type ProductUpdate struct {
	Name         *string  `json:"name,omitempty"`
	SKU          *string  `json:"sku,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Supplier     *string  `json:"supplier,omitempty"`
	CurrentStock *int     `json:"currentStock,omitempty"`
	ReorderPoint *int     `json:"reorderPoint,omitempty"`
	Price        *float64 `json:"price,omitempty"`
}

func (r *ProductUpdate) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("name cannot be empty")
	}
	if r.SKU != nil && strings.TrimSpace(*r.SKU) == "" {
		return invalid("sku cannot be empty")
	}
	if (r.CurrentStock != nil && *r.CurrentStock < 0) || (r.ReorderPoint != nil && *r.ReorderPoint < 0) {
		return invalid("currentStock and reorderPoint must be non-negative")
	}
	if r.Price != nil && *r.Price < 0 {
		return invalid("price must be non-negative")
	}
	return nil
}

// Apply copies the set fields onto p
func (r *ProductUpdate) Apply(p *Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Supplier != nil {
		p.Supplier = *r.Supplier
	}
	if r.CurrentStock != nil {
		p.CurrentStock = *r.CurrentStock
	}
	if r.ReorderPoint != nil {
		p.ReorderPoint = *r.ReorderPoint
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
}

// SupplierCreate for POST /api/v1/suppliers
type SupplierCreate struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Category      string `json:"category"`
}

func (r *SupplierCreate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name is required")
	}
	return nil
}

// SupplierUpdate for PATCH /api/v1/suppliers/{id}
type SupplierUpdate struct {
	Name          *string `json:"name,omitempty"`
	ContactPerson *string `json:"contact_person,omitempty"`
	Email         *string `json:"email,omitempty"`
	ContactNumber *string `json:"contact_number,omitempty"`
	Category      *string `json:"category,omitempty"`
}

func (r *SupplierUpdate) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("name cannot be empty")
	}
	return nil
}

func (r *SupplierUpdate) Apply(s *Supplier) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.ContactPerson != nil {
		s.ContactPerson = *r.ContactPerson
	}
	if r.Email != nil {
		s.Email = *r.Email
	}
	if r.ContactNumber != nil {
		s.ContactNumber = *r.ContactNumber
	}
	if r.Category != nil {
		s.Category = *r.Category
	}
}

// CustomerCreate for POST /api/v1/customers
type CustomerCreate struct {
	Name    string  `json:"name"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (r *CustomerCreate) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name is required")
	}
	return nil
}

// ItemSold is one line of a sale
type ItemSold struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// SaleCreate for POST /api/v1/orders/sales
type SaleCreate struct {
	CustomerID *int64     `json:"customer_id,omitempty"`
	ItemsSold  []ItemSold `json:"items_sold"`
}

func (r *SaleCreate) Validate() error {
	if len(r.ItemsSold) == 0 {
		return invalid("items_sold must not be empty")
	}
	for i, it := range r.ItemsSold {
		if it.Quantity <= 0 {
			return invalid("items_sold[%d]: quantity must be positive", i)
		}
	}
	return nil
}

// OrderUpdateStatus for PATCH /api/v1/orders/{id}
type OrderUpdateStatus struct {
	Status string `json:"status"`
}

func (r *OrderUpdateStatus) Validate() error {
	if !ValidOrderStatus(r.Status) {
		return invalid("unknown order status %q", r.Status)
	}
	return nil
}

// ReorderRequest for POST /api/v1/reorders/reorder
type ReorderRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (r *ReorderRequest) Validate() error {
	if r.Quantity <= 0 {
		return invalid("quantity must be positive")
	}
	return nil
}

// ChatTurn is one history entry exchanged with the client
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest for POST /api/v1/chatbot
type ChatRequest struct {
	Content string     `json:"content"`
	History []ChatTurn `json:"history"`
}

func (r *ChatRequest) Validate(maxLen int) error {
	if strings.TrimSpace(r.Content) == "" {
		return invalid("content is required")
	}
	if n := utf8.RuneCountInString(r.Content); maxLen > 0 && n > maxLen {
		return invalid("content too long: %d chars (max %d)", n, maxLen)
	}
	for i, t := range r.History {
		if t.Role != "user" && t.Role != "assistant" {
			return invalid("history[%d]: role must be user or assistant, got %q", i, t.Role)
		}
	}
	return nil
}
