package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/stockwise/stockwise/internal/models"
)

var seedSuppliers = []models.SupplierCreate{
	{Name: "Acme Components", ContactPerson: "Dana Reyes", Email: "orders@acme.example", ContactNumber: "+1-555-0100", Category: "Hardware"},
	{Name: "Northwind Supply", ContactPerson: "Lee Park", Email: "sales@northwind.example", ContactNumber: "+1-555-0142", Category: "Office"},
}

var seedProducts = []models.ProductCreate{
	{Name: "Test Widget", SKU: "WID-001", Category: "Hardware", Supplier: "Acme Components", CurrentStock: 120, ReorderPoint: 20, Price: 9.99},
	{Name: "Steel Bracket", SKU: "BRK-010", Category: "Hardware", Supplier: "Acme Components", CurrentStock: 8, ReorderPoint: 15, Price: 3.25},
	{Name: "Copy Paper A4", SKU: "PAP-A4", Category: "Office", Supplier: "Northwind Supply", CurrentStock: 40, ReorderPoint: 40, Price: 5.50},
}

// Seed loads a small demo dataset and ensures the user with devEmail exists.
// Suppliers and products that already exist (by name or SKU) are skipped.
func Seed(ctx context.Context, s Store, devEmail, devAPIKey string) error {
	if _, err := s.EnsureUser(ctx, devEmail, devAPIKey); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	for _, sup := range seedSuppliers {
		if _, err := s.GetSupplierByName(ctx, sup.Name); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("lookup supplier %q: %w", sup.Name, err)
		}
		if _, err := s.CreateSupplier(ctx, sup); err != nil {
			return fmt.Errorf("create supplier %q: %w", sup.Name, err)
		}
	}

	created := 0
	for _, p := range seedProducts {
		_, err := s.CreateProduct(ctx, p)
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrConflict):
			// already seeded
		default:
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
	}

	log.Info().
		Str("user", devEmail).
		Int("products_created", created).
		Msg("seed data loaded")
	return nil
}
