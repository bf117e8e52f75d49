package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stockwise/stockwise/internal/models"
)

const (
	productColumns  = `id, name, sku, category, supplier, current_stock, reorder_point, price`
	supplierColumns = `id, name, contact_person, email, contact_number, category`
	customerColumns = `id, name, email, phone, address`
)

// PostgresStore implements Store on a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore opens a pool and verifies connectivity
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *PostgresStore) Close()                         { s.pool.Close() }

// mapErr converts driver errors to store sentinels.
func mapErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return conflict("%s already exists (%s)", what, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return conflict("%s is referenced by other records", what)
		}
	}
	return err
}

// ─── Users ────────────────────────────────────────────────────────────────────

func (s *PostgresStore) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var key *string
	if err := row.Scan(&u.ID, &u.Email, &key); err != nil {
		return nil, err
	}
	if key != nil {
		u.APIKey = *key
	}
	return &u, nil
}

func (s *PostgresStore) UserByAPIKey(ctx context.Context, key string) (*models.User, error) {
	u, err := s.scanUser(s.pool.QueryRow(ctx, `SELECT id, email, api_key FROM users WHERE api_key = $1`, key))
	return u, mapErr(err, "user")
}

func (s *PostgresStore) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.scanUser(s.pool.QueryRow(ctx, `SELECT id, email, api_key FROM users WHERE email = $1`, email))
	return u, mapErr(err, "user")
}

func (s *PostgresStore) EnsureUser(ctx context.Context, email, apiKey string) (*models.User, error) {
	u, err := s.scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (email, api_key) VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (email) DO UPDATE SET api_key = COALESCE(EXCLUDED.api_key, users.api_key)
		RETURNING id, email, api_key`, email, apiKey))
	return u, mapErr(err, "user")
}

// ─── Products ─────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListProducts(ctx context.Context, page models.Pagination) ([]models.Product, error) {
	page.SetDefaults()
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id OFFSET $1 LIMIT $2`, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Product])
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Product])
	return p, mapErr(err, "Product")
}

func (s *PostgresStore) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE name = $1 ORDER BY id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("get product by name: %w", err)
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Product])
	return p, mapErr(err, "Product")
}

func (s *PostgresStore) CreateProduct(ctx context.Context, in models.ProductCreate) (*models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		INSERT INTO products (name, sku, category, supplier, current_stock, reorder_point, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		in.Name, in.SKU, in.Category, in.Supplier, in.CurrentStock, in.ReorderPoint, in.Price)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Product])
	return p, mapErr(err, "Product")
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, id int64, in models.ProductUpdate) (*models.Product, error) {
	var out *models.Product
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Product])
		if err != nil {
			return err
		}
		in.Apply(p)
		_, err = tx.Exec(ctx, `
			UPDATE products SET name = $2, sku = $3, category = $4, supplier = $5,
				current_stock = $6, reorder_point = $7, price = $8
			WHERE id = $1`,
			p.ID, p.Name, p.SKU, p.Category, p.Supplier, p.CurrentStock, p.ReorderPoint, p.Price)
		out = p
		return err
	})
	return out, mapErr(err, "Product")
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) (*models.Product, error) {
	rows, err := s.pool.Query(ctx, `DELETE FROM products WHERE id = $1 RETURNING `+productColumns, id)
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Product])
	return p, mapErr(err, "Product")
}

// ─── Suppliers ────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListSuppliers(ctx context.Context, page models.Pagination) ([]models.Supplier, error) {
	page.SetDefaults()
	rows, err := s.pool.Query(ctx,
		`SELECT `+supplierColumns+` FROM suppliers ORDER BY id OFFSET $1 LIMIT $2`, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Supplier])
}

func (s *PostgresStore) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Supplier])
	return v, mapErr(err, "Supplier")
}

func (s *PostgresStore) GetSupplierByName(ctx context.Context, name string) (*models.Supplier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE name = $1 ORDER BY id LIMIT 1`, name)
	if err != nil {
		return nil, fmt.Errorf("get supplier by name: %w", err)
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Supplier])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("Supplier '%s' not found in database.", name)
	}
	return v, mapErr(err, "Supplier")
}

func (s *PostgresStore) CreateSupplier(ctx context.Context, in models.SupplierCreate) (*models.Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		INSERT INTO suppliers (name, contact_person, email, contact_number, category)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+supplierColumns,
		in.Name, in.ContactPerson, in.Email, in.ContactNumber, in.Category)
	if err != nil {
		return nil, fmt.Errorf("create supplier: %w", err)
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Supplier])
	return v, mapErr(err, "Supplier")
}

func (s *PostgresStore) UpdateSupplier(ctx context.Context, id int64, in models.SupplierUpdate) (*models.Supplier, error) {
	var out *models.Supplier
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Supplier])
		if err != nil {
			return err
		}
		in.Apply(v)
		_, err = tx.Exec(ctx, `
			UPDATE suppliers SET name = $2, contact_person = $3, email = $4, contact_number = $5, category = $6
			WHERE id = $1`,
			v.ID, v.Name, v.ContactPerson, v.Email, v.ContactNumber, v.Category)
		out = v
		return err
	})
	return out, mapErr(err, "Supplier")
}

func (s *PostgresStore) DeleteSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	rows, err := s.pool.Query(ctx, `DELETE FROM suppliers WHERE id = $1 RETURNING `+supplierColumns, id)
	if err != nil {
		return nil, fmt.Errorf("delete supplier: %w", err)
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Supplier])
	return v, mapErr(err, "Supplier")
}

// ─── Customers ────────────────────────────────────────────────────────────────

func (s *PostgresStore) ListCustomers(ctx context.Context, page models.Pagination) ([]models.Customer, error) {
	page.SetDefaults()
	rows, err := s.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY id OFFSET $1 LIMIT $2`, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Customer])
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Customer])
	return c, mapErr(err, "Customer")
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, in models.CustomerCreate) (*models.Customer, error) {
	rows, err := s.pool.Query(ctx, `
		INSERT INTO customers (name, email, phone, address) VALUES ($1, $2, $3, $4)
		RETURNING `+customerColumns,
		in.Name, in.Email, in.Phone, in.Address)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[models.Customer])
	return c, mapErr(err, "Customer")
}

// ─── Orders ───────────────────────────────────────────────────────────────────

const orderSummarySelect = `
	SELECT o.id,
	       COALESCE(c.name, 'N/A') AS customer_name,
	       o.order_date,
	       COALESCE(SUM(i.quantity * i.price_at_sale), 0)::float8 AS total,
	       o.status
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id
	LEFT JOIN order_items i ON i.order_id = o.id`

func (s *PostgresStore) ListOrders(ctx context.Context, page models.Pagination) ([]models.OrderSummary, error) {
	page.SetDefaults()
	rows, err := s.pool.Query(ctx, orderSummarySelect+`
		GROUP BY o.id, c.name
		ORDER BY o.order_date DESC, o.id DESC
		OFFSET $1 LIMIT $2`, page.Skip, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.OrderSummary])
}

func (s *PostgresStore) GetOrderDetails(ctx context.Context, id int64) (*models.OrderDetails, error) {
	rows, err := s.pool.Query(ctx, orderSummarySelect+`
		WHERE o.id = $1
		GROUP BY o.id, c.name`, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	summary, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.OrderSummary])
	if err != nil {
		return nil, mapErr(err, "Order")
	}

	d := &models.OrderDetails{OrderSummary: summary}
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(NULLIF(c.email, ''), 'N/A'),
		       COALESCE(NULLIF(c.phone, ''), 'N/A'),
		       COALESCE(NULLIF(c.address, ''), 'N/A')
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`, id).Scan(&d.CustomerEmail, &d.CustomerPhone, &d.CustomerAddress)
	if err != nil {
		return nil, mapErr(err, "Order")
	}

	rows, err = s.pool.Query(ctx, `
		SELECT i.quantity, i.price_at_sale, p.name
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1 ORDER BY i.id`, id)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	d.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OrderDetailItem, error) {
		var it models.OrderDetailItem
		err := row.Scan(&it.Quantity, &it.PriceAtSale, &it.Product.Name)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order items: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id int64, status string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("Order not found")
	}
	return nil
}

func (s *PostgresStore) CreateSale(ctx context.Context, userID *int64, in models.SaleCreate) (*models.Order, error) {
	order := &models.Order{CustomerID: in.CustomerID, UserID: userID}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if in.CustomerID != nil {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, *in.CustomerID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return notFound("Customer with id %d not found.", *in.CustomerID)
			}
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO orders (customer_id, user_id, status) VALUES ($1, $2, $3)
			RETURNING id, order_date, status`,
			in.CustomerID, userID, models.OrderStatusPending).Scan(&order.ID, &order.OrderDate, &order.Status)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		// Lock every product up front in id order so concurrent sales over the
		// same products cannot deadlock.
		if _, err := tx.Exec(ctx,
			`SELECT id FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, lockOrder(in.ItemsSold)); err != nil {
			return fmt.Errorf("lock products: %w", err)
		}

		for _, it := range in.ItemsSold {
			var name string
			var stock int
			var price float64
			err := tx.QueryRow(ctx,
				`SELECT name, current_stock, price FROM products WHERE id = $1 FOR UPDATE`, it.ProductID).
				Scan(&name, &stock, &price)
			if errors.Is(err, pgx.ErrNoRows) {
				return notFound("Product with id %d not found.", it.ProductID)
			}
			if err != nil {
				return fmt.Errorf("lock product %d: %w", it.ProductID, err)
			}
			if stock < it.Quantity {
				return insufficientStock(name, stock, it.Quantity)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE products SET current_stock = current_stock - $2 WHERE id = $1`, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, price_at_sale)
				VALUES ($1, $2, $3, $4)`, order.ID, it.ProductID, it.Quantity, price); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   it.ProductID,
				ProductName: name,
				Quantity:    it.Quantity,
				PriceAtSale: price,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// lockOrder returns the distinct product ids of a sale in ascending order
func lockOrder(items []models.ItemSold) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (s *PostgresStore) MostRecentOrderByUser(ctx context.Context, userID int64) (*models.Order, error) {
	var o models.Order
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, user_id, order_date, status
		FROM orders WHERE user_id = $1
		ORDER BY order_date DESC, id DESC LIMIT 1`, userID).
		Scan(&o.ID, &o.CustomerID, &o.UserID, &o.OrderDate, &o.Status)
	if err != nil {
		return nil, mapErr(err, "order")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT i.product_id, p.name, i.quantity, i.price_at_sale
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1 ORDER BY i.id`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("last order items: %w", err)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OrderItem, error) {
		var it models.OrderItem
		err := row.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.PriceAtSale)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan last order items: %w", err)
	}
	return &o, nil
}

// ─── Purchase orders ──────────────────────────────────────────────────────────

func (s *PostgresStore) CreatePurchaseOrder(ctx context.Context, productID int64, quantity int) (*models.PurchaseOrder, error) {
	po := &models.PurchaseOrder{}
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var supplierName string
		err := tx.QueryRow(ctx, `SELECT supplier FROM products WHERE id = $1`, productID).Scan(&supplierName)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("Product to reorder not found.")
		}
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}

		err = tx.QueryRow(ctx, `SELECT id FROM suppliers WHERE name = $1 ORDER BY id LIMIT 1`, supplierName).Scan(&po.SupplierID)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("Supplier '%s' not found in database.", supplierName)
		}
		if err != nil {
			return fmt.Errorf("resolve supplier: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO purchase_orders (supplier_id, status) VALUES ($1, $2)
			RETURNING id, order_date, status`, po.SupplierID, models.PurchaseOrderStatusPending).
			Scan(&po.ID, &po.OrderDate, &po.Status)
		if err != nil {
			return fmt.Errorf("insert purchase order: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_order_items (purchase_order_id, product_id, quantity)
			VALUES ($1, $2, $3)`, po.ID, productID, quantity); err != nil {
			return fmt.Errorf("insert purchase order item: %w", err)
		}
		po.Items = []models.PurchaseOrderItem{{ProductID: productID, Quantity: quantity}}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *PostgresStore) CountPendingPurchaseOrders(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders WHERE status = $1`,
		models.PurchaseOrderStatusPending).Scan(&n)
	return n, err
}

// ─── Dashboard ────────────────────────────────────────────────────────────────

func (s *PostgresStore) DashboardKPIs(ctx context.Context, now time.Time) (*models.DashboardKPIs, error) {
	start, end := DayBounds(now)
	var k models.DashboardKPIs
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(i.quantity * i.price_at_sale), 0)::float8
			   FROM order_items i JOIN orders o ON o.id = i.order_id
			  WHERE o.order_date >= $1 AND o.order_date < $2),
			(SELECT COUNT(*) FROM orders WHERE order_date >= $1 AND order_date < $2),
			(SELECT COUNT(*) FROM orders WHERE status = $3),
			(SELECT COUNT(*) FROM products WHERE current_stock <= reorder_point)`,
		start, end, models.OrderStatusPending).
		Scan(&k.RevenueToday, &k.OrdersToday, &k.PendingOrders, &k.LowStockItems)
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}
	return &k, nil
}

func (s *PostgresStore) LowStockProducts(ctx context.Context, limit int) ([]models.Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE current_stock <= reorder_point
		ORDER BY current_stock ASC, id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Product])
}

func (s *PostgresStore) CountPendingOrdersBefore(ctx context.Context, before time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE status = $1 AND order_date < $2`,
		models.OrderStatusPending, before).Scan(&n)
	return n, err
}

func (s *PostgresStore) DailySales(ctx context.Context, productID int64) ([]models.DailySales, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date_trunc('day', o.order_date) AS day, SUM(i.quantity)::int AS quantity
		FROM order_items i JOIN orders o ON o.id = i.order_id
		WHERE i.product_id = $1
		GROUP BY 1 ORDER BY 1`, productID)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.DailySales, error) {
		var d models.DailySales
		err := row.Scan(&d.Day, &d.Quantity)
		return d, err
	})
}
