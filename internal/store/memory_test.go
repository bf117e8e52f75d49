package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/store"
)

func newSeeded(t *testing.T, now *time.Time) (*store.MemoryStore, *models.User) {
	t.Helper()
	s := store.NewMemoryStore(store.WithClock(func() time.Time { return *now }))
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, s, "dev@example.com", "dev-key"))
	u, err := s.UserByAPIKey(ctx, "dev-key")
	require.NoError(t, err)
	return s, u
}

func TestSeed_Idempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, _ := newSeeded(t, &now)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, s, "dev@example.com", "dev-key"))

	products, err := s.ListProducts(ctx, models.Pagination{})
	require.NoError(t, err)
	assert.Len(t, products, 3)

	suppliers, err := s.ListSuppliers(ctx, models.Pagination{})
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)
}

func TestCreateProduct_DuplicateSKU(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	_, err := s.CreateProduct(ctx, models.ProductCreate{Name: "A", SKU: "X-1"})
	require.NoError(t, err)

	_, err = s.CreateProduct(ctx, models.ProductCreate{Name: "B", SKU: "X-1"})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestGetProduct_NotFound(t *testing.T) {
	s := store.NewMemoryStore()
	_, err := s.GetProduct(context.Background(), 42)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, "Product not found", err.Error())
}

func TestCreateSale_DecrementsStock(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, u := newSeeded(t, &now)
	ctx := context.Background()

	widget, err := s.GetProductByName(ctx, "Test Widget")
	require.NoError(t, err)

	order, err := s.CreateSale(ctx, &u.ID, models.SaleCreate{
		ItemsSold: []models.ItemSold{{ProductID: widget.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, widget.Price, order.Items[0].PriceAtSale, 1e-9)

	after, err := s.GetProduct(ctx, widget.ID)
	require.NoError(t, err)
	assert.Equal(t, widget.CurrentStock-5, after.CurrentStock)

	last, err := s.MostRecentOrderByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, last.ID)
}

func TestCreateSale_AtomicOnFailure(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, u := newSeeded(t, &now)
	ctx := context.Background()

	widget, err := s.GetProductByName(ctx, "Test Widget")
	require.NoError(t, err)
	bracket, err := s.GetProductByName(ctx, "Steel Bracket")
	require.NoError(t, err)

	tests := []struct {
		name  string
		items []models.ItemSold
		want  error
	}{
		{
			name:  "second line short on stock",
			items: []models.ItemSold{{ProductID: widget.ID, Quantity: 1}, {ProductID: bracket.ID, Quantity: bracket.CurrentStock + 1}},
			want:  store.ErrInsufficientStock,
		},
		{
			name:  "repeated product exceeds stock in total",
			items: []models.ItemSold{{ProductID: bracket.ID, Quantity: bracket.CurrentStock}, {ProductID: bracket.ID, Quantity: 1}},
			want:  store.ErrInsufficientStock,
		},
		{
			name:  "unknown product",
			items: []models.ItemSold{{ProductID: widget.ID, Quantity: 1}, {ProductID: 9999, Quantity: 1}},
			want:  store.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateSale(ctx, &u.ID, models.SaleCreate{ItemsSold: tt.items})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			w, _ := s.GetProduct(ctx, widget.ID)
			b, _ := s.GetProduct(ctx, bracket.ID)
			assert.Equal(t, widget.CurrentStock, w.CurrentStock)
			assert.Equal(t, bracket.CurrentStock, b.CurrentStock)
		})
	}

	_, err = s.MostRecentOrderByUser(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsufficientStockMessage(t *testing.T) {
	now := time.Now()
	s, u := newSeeded(t, &now)
	ctx := context.Background()
	bracket, err := s.GetProductByName(ctx, "Steel Bracket")
	require.NoError(t, err)

	_, err = s.CreateSale(ctx, &u.ID, models.SaleCreate{
		ItemsSold: []models.ItemSold{{ProductID: bracket.ID, Quantity: 100}},
	})
	assert.EqualError(t, err, "Not enough stock for Steel Bracket. Available: 8, Requested: 100")
}

func TestOrderDetails_NAFallbacks(t *testing.T) {
	now := time.Now()
	s, u := newSeeded(t, &now)
	ctx := context.Background()
	widget, _ := s.GetProductByName(ctx, "Test Widget")

	order, err := s.CreateSale(ctx, &u.ID, models.SaleCreate{
		ItemsSold: []models.ItemSold{{ProductID: widget.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	d, err := s.GetOrderDetails(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "N/A", d.CustomerName)
	assert.Equal(t, "N/A", d.CustomerEmail)
	assert.InDelta(t, 2*widget.Price, d.Total, 1e-9)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Test Widget", d.Items[0].Product.Name)
}

func TestCreatePurchaseOrder(t *testing.T) {
	now := time.Now()
	s, _ := newSeeded(t, &now)
	ctx := context.Background()
	widget, _ := s.GetProductByName(ctx, "Test Widget")

	po, err := s.CreatePurchaseOrder(ctx, widget.ID, 50)
	require.NoError(t, err)
	acme, err := s.GetSupplierByName(ctx, "Acme Components")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, po.SupplierID)

	n, err := s.CountPendingPurchaseOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orphan, err := s.CreateProduct(ctx, models.ProductCreate{Name: "Orphan", SKU: "ORP-1", Supplier: "Nobody"})
	require.NoError(t, err)
	_, err = s.CreatePurchaseOrder(ctx, orphan.ID, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Contains(t, err.Error(), "Supplier 'Nobody' not found")
}

func TestDashboardKPIs(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s, u := newSeeded(t, &now)
	ctx := context.Background()
	widget, _ := s.GetProductByName(ctx, "Test Widget")

	yesterday := now.AddDate(0, 0, -1)
	clock := now
	now = yesterday
	_, err := s.CreateSale(ctx, &u.ID, models.SaleCreate{ItemsSold: []models.ItemSold{{ProductID: widget.ID, Quantity: 1}}})
	require.NoError(t, err)
	now = clock
	_, err = s.CreateSale(ctx, &u.ID, models.SaleCreate{ItemsSold: []models.ItemSold{{ProductID: widget.ID, Quantity: 3}}})
	require.NoError(t, err)

	k, err := s.DashboardKPIs(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, k.OrdersToday)
	assert.InDelta(t, 3*widget.Price, k.RevenueToday, 1e-9)
	assert.Equal(t, 2, k.PendingOrders)
	// Steel Bracket (8 <= 15) and Copy Paper (40 <= 40)
	assert.Equal(t, 2, k.LowStockItems)

	low, err := s.LowStockProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Steel Bracket", low[0].Name)

	sales, err := s.DailySales(ctx, widget.ID)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, 1, sales[0].Quantity)
	assert.Equal(t, 3, sales[1].Quantity)
}

func TestDeleteProduct_Referenced(t *testing.T) {
	now := time.Now()
	s, u := newSeeded(t, &now)
	ctx := context.Background()
	widget, _ := s.GetProductByName(ctx, "Test Widget")
	_, err := s.CreateSale(ctx, &u.ID, models.SaleCreate{ItemsSold: []models.ItemSold{{ProductID: widget.ID, Quantity: 1}}})
	require.NoError(t, err)

	_, err = s.DeleteProduct(ctx, widget.ID)
	assert.ErrorIs(t, err, store.ErrConflict)
}
