package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// SaleResponse is returned by POST /api/v1/orders/sales
type SaleResponse struct {
	SaleID int64  `json:"sale_id"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// ReorderResponse is returned by POST /api/v1/reorders/reorder
type ReorderResponse struct {
	Status          string `json:"status"`
	PurchaseOrderID int64  `json:"purchase_order_id"`
	SupplierID      int64  `json:"supplier_id"`
}

// ChatResponse is returned by POST /api/v1/chatbot
type ChatResponse struct {
	Response string     `json:"response"`
	History  []ChatTurn `json:"history"`
}
