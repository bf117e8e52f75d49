package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stockwise/stockwise/internal/models"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// "memory" store driver for local development.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	nextID         int64
	users          map[int64]*models.User
	products       map[int64]*models.Product
	suppliers      map[int64]*models.Supplier
	customers      map[int64]*models.Customer
	orders         map[int64]*models.Order
	purchaseOrders map[int64]*models.PurchaseOrder
}

// MemoryOption configures a MemoryStore
type MemoryOption func(*MemoryStore)

// WithClock overrides the clock used to stamp new orders.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:            time.Now,
		users:          make(map[int64]*models.User),
		products:       make(map[int64]*models.Product),
		suppliers:      make(map[int64]*models.Supplier),
		customers:      make(map[int64]*models.Customer),
		orders:         make(map[int64]*models.Order),
		purchaseOrders: make(map[int64]*models.PurchaseOrder),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }
func (s *MemoryStore) Close()                         {}

// ─── Users ────────────────────────────────────────────────────────────────────

func (s *MemoryStore) UserByAPIKey(ctx context.Context, key string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key != "" {
		for _, u := range s.users {
			if u.APIKey == key {
				cp := *u
				return &cp, nil
			}
		}
	}
	return nil, notFound("user not found")
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, notFound("user %q not found", email)
}

func (s *MemoryStore) EnsureUser(ctx context.Context, email, apiKey string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			if apiKey != "" {
				u.APIKey = apiKey
			}
			cp := *u
			return &cp, nil
		}
	}
	u := &models.User{ID: s.id(), Email: email, APIKey: apiKey}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

// ─── Products ─────────────────────────────────────────────────────────────────

func (s *MemoryStore) ListProducts(ctx context.Context, page models.Pagination) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, notFound("Product not found")
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Product
	for _, p := range s.products {
		if p.Name == name && (found == nil || p.ID < found.ID) {
			found = p
		}
	}
	if found == nil {
		return nil, notFound("product %q not found", name)
	}
	cp := *found
	return &cp, nil
}

func (s *MemoryStore) skuTaken(sku string, except int64) bool {
	for _, p := range s.products {
		if p.SKU == sku && p.ID != except {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateProduct(ctx context.Context, in models.ProductCreate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skuTaken(in.SKU, 0) {
		return nil, conflict("sku %q already exists", in.SKU)
	}
	p := &models.Product{
		ID:           s.id(),
		Name:         in.Name,
		SKU:          in.SKU,
		Category:     in.Category,
		Supplier:     in.Supplier,
		CurrentStock: in.CurrentStock,
		ReorderPoint: in.ReorderPoint,
		Price:        in.Price,
	}
	s.products[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, id int64, in models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, notFound("Product not found")
	}
	if in.SKU != nil && s.skuTaken(*in.SKU, id) {
		return nil, conflict("sku %q already exists", *in.SKU)
	}
	in.Apply(p)
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, notFound("Product not found")
	}
	for _, o := range s.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return nil, conflict("product %d is referenced by orders", id)
			}
		}
	}
	for _, po := range s.purchaseOrders {
		for _, it := range po.Items {
			if it.ProductID == id {
				return nil, conflict("product %d is referenced by purchase orders", id)
			}
		}
	}
	delete(s.products, id)
	return p, nil
}

// ─── Suppliers ────────────────────────────────────────────────────────────────

func (s *MemoryStore) ListSuppliers(ctx context.Context, page models.Pagination) ([]models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Supplier, 0, len(s.suppliers))
	for _, v := range s.suppliers {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *MemoryStore) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.suppliers[id]
	if !ok {
		return nil, notFound("Supplier not found")
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.supplierByName(name)
}

func (s *MemoryStore) supplierByName(name string) (*models.Supplier, error) {
	var found *models.Supplier
	for _, v := range s.suppliers {
		if v.Name == name && (found == nil || v.ID < found.ID) {
			found = v
		}
	}
	if found == nil {
		return nil, notFound("Supplier '%s' not found in database.", name)
	}
	cp := *found
	return &cp, nil
}

func (s *MemoryStore) CreateSupplier(ctx context.Context, in models.SupplierCreate) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &models.Supplier{
		ID:            s.id(),
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		Email:         in.Email,
		ContactNumber: in.ContactNumber,
		Category:      in.Category,
	}
	s.suppliers[v.ID] = v
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) UpdateSupplier(ctx context.Context, id int64, in models.SupplierUpdate) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.suppliers[id]
	if !ok {
		return nil, notFound("Supplier not found")
	}
	in.Apply(v)
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) DeleteSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.suppliers[id]
	if !ok {
		return nil, notFound("Supplier not found")
	}
	for _, po := range s.purchaseOrders {
		if po.SupplierID == id {
			return nil, conflict("supplier %d is referenced by purchase orders", id)
		}
	}
	delete(s.suppliers, id)
	return v, nil
}

// ─── Customers ────────────────────────────────────────────────────────────────

func (s *MemoryStore) ListCustomers(ctx context.Context, page models.Pagination) ([]models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (s *MemoryStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, notFound("Customer not found")
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) CreateCustomer(ctx context.Context, in models.CustomerCreate) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &models.Customer{ID: s.id(), Name: in.Name, Email: in.Email, Phone: in.Phone, Address: in.Address}
	s.customers[c.ID] = c
	cp := *c
	return &cp, nil
}

// ─── Orders ───────────────────────────────────────────────────────────────────

func orderTotal(items []models.OrderItem) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Quantity) * it.PriceAtSale
	}
	return total
}

func (s *MemoryStore) summary(o *models.Order) models.OrderSummary {
	name := "N/A"
	if o.CustomerID != nil {
		if c, ok := s.customers[*o.CustomerID]; ok {
			name = c.Name
		}
	}
	return models.OrderSummary{
		ID:           o.ID,
		CustomerName: name,
		OrderDate:    o.OrderDate,
		Total:        orderTotal(o.Items),
		Status:       o.Status,
	}
}

func (s *MemoryStore) ListOrders(ctx context.Context, page models.Pagination) ([]models.OrderSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.OrderSummary, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, s.summary(o))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page), nil
}

func (s *MemoryStore) GetOrderDetails(ctx context.Context, id int64) (*models.OrderDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, notFound("Order not found")
	}
	d := &models.OrderDetails{
		OrderSummary:    s.summary(o),
		CustomerEmail:   "N/A",
		CustomerPhone:   "N/A",
		CustomerAddress: "N/A",
		Items:           make([]models.OrderDetailItem, 0, len(o.Items)),
	}
	if o.CustomerID != nil {
		if c, ok := s.customers[*o.CustomerID]; ok {
			d.CustomerEmail = orNA(c.Email)
			d.CustomerPhone = orNA(c.Phone)
			d.CustomerAddress = orNA(c.Address)
		}
	}
	for _, it := range o.Items {
		d.Items = append(d.Items, models.OrderDetailItem{
			Quantity:    it.Quantity,
			PriceAtSale: it.PriceAtSale,
			Product:     models.OrderDetailProduct{Name: it.ProductName},
		})
	}
	return d, nil
}

func (s *MemoryStore) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return notFound("Order not found")
	}
	o.Status = status
	return nil
}

func (s *MemoryStore) CreateSale(ctx context.Context, userID *int64, in models.SaleCreate) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in.CustomerID != nil {
		if _, ok := s.customers[*in.CustomerID]; !ok {
			return nil, notFound("Customer with id %d not found.", *in.CustomerID)
		}
	}

	// Check every line before touching stock so a failure leaves nothing applied.
	// Lines for the same product accumulate.
	want := make(map[int64]int)
	for _, it := range in.ItemsSold {
		p, ok := s.products[it.ProductID]
		if !ok {
			return nil, notFound("Product with id %d not found.", it.ProductID)
		}
		want[it.ProductID] += it.Quantity
		if p.CurrentStock < want[it.ProductID] {
			return nil, insufficientStock(p.Name, p.CurrentStock, want[it.ProductID])
		}
	}

	o := &models.Order{
		ID:         s.id(),
		CustomerID: in.CustomerID,
		UserID:     userID,
		OrderDate:  s.now(),
		Status:     models.OrderStatusPending,
	}
	for _, it := range in.ItemsSold {
		p := s.products[it.ProductID]
		p.CurrentStock -= it.Quantity
		o.Items = append(o.Items, models.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			PriceAtSale: p.Price,
		})
	}
	s.orders[o.ID] = o
	cp := *o
	cp.Items = append([]models.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (s *MemoryStore) MostRecentOrderByUser(ctx context.Context, userID int64) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Order
	for _, o := range s.orders {
		if o.UserID == nil || *o.UserID != userID {
			continue
		}
		if latest == nil || o.OrderDate.After(latest.OrderDate) ||
			(o.OrderDate.Equal(latest.OrderDate) && o.ID > latest.ID) {
			latest = o
		}
	}
	if latest == nil {
		return nil, notFound("no orders for user %d", userID)
	}
	cp := *latest
	cp.Items = append([]models.OrderItem(nil), latest.Items...)
	return &cp, nil
}

// ─── Purchase orders ──────────────────────────────────────────────────────────

func (s *MemoryStore) CreatePurchaseOrder(ctx context.Context, productID int64, quantity int) (*models.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, notFound("Product to reorder not found.")
	}
	sup, err := s.supplierByName(p.Supplier)
	if err != nil {
		return nil, err
	}
	po := &models.PurchaseOrder{
		ID:         s.id(),
		SupplierID: sup.ID,
		OrderDate:  s.now(),
		Status:     models.PurchaseOrderStatusPending,
		Items:      []models.PurchaseOrderItem{{ProductID: p.ID, Quantity: quantity}},
	}
	s.purchaseOrders[po.ID] = po
	cp := *po
	return &cp, nil
}

func (s *MemoryStore) CountPendingPurchaseOrders(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, po := range s.purchaseOrders {
		if po.Status == models.PurchaseOrderStatusPending {
			n++
		}
	}
	return n, nil
}

// ─── Dashboard ────────────────────────────────────────────────────────────────

func (s *MemoryStore) DashboardKPIs(ctx context.Context, now time.Time) (*models.DashboardKPIs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start, end := DayBounds(now)
	k := &models.DashboardKPIs{}
	for _, o := range s.orders {
		if !o.OrderDate.Before(start) && o.OrderDate.Before(end) {
			k.OrdersToday++
			k.RevenueToday += orderTotal(o.Items)
		}
		if o.Status == models.OrderStatusPending {
			k.PendingOrders++
		}
	}
	for _, p := range s.products {
		if p.LowStock() {
			k.LowStockItems++
		}
	}
	return k, nil
}

func (s *MemoryStore) LowStockProducts(ctx context.Context, limit int) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, p := range s.products {
		if p.LowStock() {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentStock != out[j].CurrentStock {
			return out[i].CurrentStock < out[j].CurrentStock
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountPendingOrdersBefore(ctx context.Context, before time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, o := range s.orders {
		if o.Status == models.OrderStatusPending && o.OrderDate.Before(before) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DailySales(ctx context.Context, productID int64) ([]models.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDay := make(map[time.Time]int)
	for _, o := range s.orders {
		day, _ := DayBounds(o.OrderDate)
		for _, it := range o.Items {
			if it.ProductID == productID {
				byDay[day] += it.Quantity
			}
		}
	}
	out := make([]models.DailySales, 0, len(byDay))
	for day, q := range byDay {
		out = append(out, models.DailySales{Day: day, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func paginate[T any](items []T, page models.Pagination) []T {
	page.SetDefaults()
	if page.Skip >= len(items) {
		return []T{}
	}
	items = items[page.Skip:]
	if len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}
