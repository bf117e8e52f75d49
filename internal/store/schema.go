package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// migrations are applied in order; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id      BIGSERIAL PRIMARY KEY,
		email   TEXT NOT NULL UNIQUE,
		api_key TEXT UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		sku           TEXT NOT NULL UNIQUE,
		category      TEXT NOT NULL DEFAULT '',
		supplier      TEXT NOT NULL DEFAULT '',
		current_stock INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
		reorder_point INTEGER NOT NULL DEFAULT 0,
		price         DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_name ON products (name)`,
	`CREATE TABLE IF NOT EXISTS suppliers (
		id             BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL,
		contact_person TEXT NOT NULL DEFAULT '',
		email          TEXT NOT NULL DEFAULT '',
		contact_number TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_suppliers_name ON suppliers (name)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id      BIGSERIAL PRIMARY KEY,
		name    TEXT NOT NULL,
		email   TEXT,
		phone   TEXT,
		address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          BIGSERIAL PRIMARY KEY,
		customer_id BIGINT REFERENCES customers (id),
		user_id     BIGINT REFERENCES users (id),
		order_date  TIMESTAMPTZ NOT NULL DEFAULT now(),
		status      TEXT NOT NULL DEFAULT 'Pending'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_date ON orders (user_id, order_date DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id            BIGSERIAL PRIMARY KEY,
		order_id      BIGINT NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		product_id    BIGINT NOT NULL REFERENCES products (id),
		quantity      INTEGER NOT NULL CHECK (quantity > 0),
		price_at_sale DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id          BIGSERIAL PRIMARY KEY,
		supplier_id BIGINT NOT NULL REFERENCES suppliers (id),
		order_date  TIMESTAMPTZ NOT NULL DEFAULT now(),
		status      TEXT NOT NULL DEFAULT 'Pending'
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_order_items (
		id                BIGSERIAL PRIMARY KEY,
		purchase_order_id BIGINT NOT NULL REFERENCES purchase_orders (id) ON DELETE CASCADE,
		product_id        BIGINT NOT NULL REFERENCES products (id),
		quantity          INTEGER NOT NULL CHECK (quantity > 0)
	)`,
}

// Migrate creates the schema if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	log.Info().Int("statements", len(migrations)).Msg("schema migrated")
	return nil
}
