package models

import "time"

// Order statuses accepted by PATCH /orders/{id}
const (
	OrderStatusPending   = "Pending"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

// PurchaseOrderStatusPending is the initial status of every purchase order
const PurchaseOrderStatusPending = "Pending"

// ValidOrderStatus reports whether s is one of the known order statuses
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// User is an authenticated caller
type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	APIKey string `json:"-"`
}

// Product is a stocked item
type Product struct {
	ID           int64   `json:"id" db:"id"`
	Name         string  `json:"name" db:"name"`
	SKU          string  `json:"sku" db:"sku"`
	Category     string  `json:"category" db:"category"`
	Supplier     string  `json:"supplier" db:"supplier"`
	CurrentStock int     `json:"currentStock" db:"current_stock"`
	ReorderPoint int     `json:"reorderPoint" db:"reorder_point"`
	Price        float64 `json:"price" db:"price"`
}

// LowStock reports whether the product is at or below its reorder point
func (p Product) LowStock() bool {
	return p.CurrentStock <= p.ReorderPoint
}

// Supplier provides products; products reference suppliers by name
type Supplier struct {
	ID            int64  `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	ContactPerson string `json:"contact_person" db:"contact_person"`
	Email         string `json:"email" db:"email"`
	ContactNumber string `json:"contact_number" db:"contact_number"`
	Category      string `json:"category" db:"category"`
}

// Customer places sales orders
type Customer struct {
	ID      int64   `json:"id" db:"id"`
	Name    string  `json:"name" db:"name"`
	Email   *string `json:"email" db:"email"`
	Phone   *string `json:"phone" db:"phone"`
	Address *string `json:"address" db:"address"`
}

// Order is a sales order header
type Order struct {
	ID         int64       `json:"id"`
	CustomerID *int64      `json:"customer_id,omitempty"`
	UserID     *int64      `json:"user_id,omitempty"`
	OrderDate  time.Time   `json:"order_date"`
	Status     string      `json:"status"`
	Items      []OrderItem `json:"items,omitempty"`
}

// OrderItem is one sales order line
type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"-"`
	Quantity    int     `json:"quantity"`
	PriceAtSale float64 `json:"price_at_sale"`
}

// OrderSummary is one row of the order list
type OrderSummary struct {
	ID           int64     `json:"id" db:"id"`
	CustomerName string    `json:"customer_name" db:"customer_name"`
	OrderDate    time.Time `json:"order_date" db:"order_date"`
	Total        float64   `json:"total" db:"total"`
	Status       string    `json:"status" db:"status"`
}

// OrderDetailProduct is the product reference nested in an order line
type OrderDetailProduct struct {
	Name string `json:"name"`
}

// OrderDetailItem is an order line with its product name
type OrderDetailItem struct {
	Quantity    int                `json:"quantity"`
	PriceAtSale float64            `json:"price_at_sale"`
	Product     OrderDetailProduct `json:"product"`
}

// OrderDetails is the full view of a single order
type OrderDetails struct {
	OrderSummary
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone"`
	CustomerAddress string            `json:"customer_address"`
	Items           []OrderDetailItem `json:"items"`
}

// PurchaseOrder is a replenishment order sent to a supplier
type PurchaseOrder struct {
	ID         int64               `json:"id"`
	SupplierID int64               `json:"supplier_id"`
	OrderDate  time.Time           `json:"order_date"`
	Status     string              `json:"status"`
	Items      []PurchaseOrderItem `json:"items"`
}

// PurchaseOrderItem is one purchase order line
type PurchaseOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// DashboardKPIs are the headline dashboard numbers
type DashboardKPIs struct {
	RevenueToday  float64 `json:"revenue_today"`
	OrdersToday   int     `json:"orders_today"`
	PendingOrders int     `json:"pending_orders"`
	LowStockItems int     `json:"low_stock_items"`
}

// LowStockAlert is a product at or below its reorder point
type LowStockAlert struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"currentStock"`
	ReorderPoint int    `json:"reorderPoint"`
}

// PriorityTask is a dashboard to-do entry
type PriorityTask struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	LinkTo      string `json:"link_to"`
}

// DailySales is the quantity of one product sold on one calendar day
type DailySales struct {
	Day      time.Time
	Quantity int
}

// DemandPrediction is the forecast total demand over a period
type DemandPrediction struct {
	ProductID          int64 `json:"product_id"`
	ForecastPeriodDays int   `json:"forecast_period_days"`
	PredictedDemand    int   `json:"predicted_demand"`
}
