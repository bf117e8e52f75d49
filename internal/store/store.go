// Package store persists the inventory: products, suppliers, customers, sales orders,
// purchase orders and the users that call the API.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockwise/stockwise/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Error carries a human-readable message and unwraps to one of the sentinels above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func notFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

func insufficientStock(name string, available, requested int) error {
	return &Error{
		Kind: ErrInsufficientStock,
		Msg:  fmt.Sprintf("Not enough stock for %s. Available: %d, Requested: %d", name, available, requested),
	}
}

// Reader is the read-only view handed to assistant tools.
type Reader interface {
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	MostRecentOrderByUser(ctx context.Context, userID int64) (*models.Order, error)
	DashboardKPIs(ctx context.Context, now time.Time) (*models.DashboardKPIs, error)
}

// Store is the full persistence surface used by the HTTP handlers.
type Store interface {
	Reader

	Ping(ctx context.Context) error
	Close()

	// Users
	UserByAPIKey(ctx context.Context, key string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	EnsureUser(ctx context.Context, email, apiKey string) (*models.User, error)

	// Products
	ListProducts(ctx context.Context, page models.Pagination) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductCreate) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in models.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*models.Product, error)

	// Suppliers
	ListSuppliers(ctx context.Context, page models.Pagination) ([]models.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*models.Supplier, error)
	GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error)
	CreateSupplier(ctx context.Context, in models.SupplierCreate) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, id int64, in models.SupplierUpdate) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) (*models.Supplier, error)

	// Customers
	ListCustomers(ctx context.Context, page models.Pagination) ([]models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	CreateCustomer(ctx context.Context, in models.CustomerCreate) (*models.Customer, error)

	// Sales orders
	ListOrders(ctx context.Context, page models.Pagination) ([]models.OrderSummary, error)
	GetOrderDetails(ctx context.Context, id int64) (*models.OrderDetails, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) error
	// CreateSale records an order and decrements stock atomically; userID may be nil.
	CreateSale(ctx context.Context, userID *int64, in models.SaleCreate) (*models.Order, error)

	// Purchase orders
	// CreatePurchaseOrder reorders a product from the supplier named on the product.
	CreatePurchaseOrder(ctx context.Context, productID int64, quantity int) (*models.PurchaseOrder, error)
	CountPendingPurchaseOrders(ctx context.Context) (int, error)

	// Dashboard and forecasting
	LowStockProducts(ctx context.Context, limit int) ([]models.Product, error)
	CountPendingOrdersBefore(ctx context.Context, before time.Time) (int, error)
	DailySales(ctx context.Context, productID int64) ([]models.DailySales, error)
}

// DayBounds returns the start of the calendar day containing t and the start of the next.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
