package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/stockwise/stockwise/internal/models"
	"golang.org/x/sync/singleflight"
)

const (
	lowStockAlertLimit = 5
	priorityTaskLimit  = 3

	kpiTimeout = 30 * time.Second
)

// DashboardSource is the subset of the store the dashboard aggregates over
type DashboardSource interface {
	DashboardKPIs(ctx context.Context, now time.Time) (*models.DashboardKPIs, error)
	LowStockProducts(ctx context.Context, limit int) ([]models.Product, error)
	CountPendingOrdersBefore(ctx context.Context, before time.Time) (int, error)
	CountPendingPurchaseOrders(ctx context.Context) (int, error)
}

// Dashboard composes the dashboard views. Concurrent KPI requests share one
// store round-trip; results are never cached past that.
type Dashboard struct {
	src DashboardSource
	now func() time.Time
	sf  singleflight.Group
}

func NewDashboard(src DashboardSource) *Dashboard {
	return &Dashboard{src: src, now: time.Now}
}

// WithClock overrides the clock; used by tests.
func (d *Dashboard) WithClock(now func() time.Time) *Dashboard {
	d.now = now
	return d
}

// KPIs returns the headline numbers for today. The shared computation is detached
// from any one caller, so a cancelled request does not fail the others waiting on it.
func (d *Dashboard) KPIs(ctx context.Context) (*models.DashboardKPIs, error) {
	now := d.now()
	key := now.Format("2006-01-02")
	ch := d.sf.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), kpiTimeout)
		defer cancel()
		return d.src.DashboardKPIs(sharedCtx, now)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("dashboard kpis: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("dashboard kpis: %w", res.Err)
		}
		if res.Shared {
			log.Debug().Str("day", key).Msg("kpi computation shared")
		}
		k := *res.Val.(*models.DashboardKPIs)
		return &k, nil
	}
}

// LowStockAlerts lists products at or below their reorder point, lowest stock first
func (d *Dashboard) LowStockAlerts(ctx context.Context) ([]models.LowStockAlert, error) {
	products, err := d.src.LowStockProducts(ctx, lowStockAlertLimit)
	if err != nil {
		return nil, err
	}
	alerts := make([]models.LowStockAlert, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, models.LowStockAlert{
			ID:           p.ID,
			Name:         p.Name,
			CurrentStock: p.CurrentStock,
			ReorderPoint: p.ReorderPoint,
		})
	}
	return alerts, nil
}

// PriorityTasks returns up to three to-do entries: stale pending orders, the most
// critical low-stock product and outstanding purchase orders.
func (d *Dashboard) PriorityTasks(ctx context.Context) ([]models.PriorityTask, error) {
	tasks := make([]models.PriorityTask, 0, priorityTaskLimit)

	stale, err := d.src.CountPendingOrdersBefore(ctx, d.now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	if stale > 0 {
		tasks = append(tasks, models.PriorityTask{
			Type:        "Pending Orders",
			Description: fmt.Sprintf("%d pending orders are over 24 hours old.", stale),
			LinkTo:      "/orders",
		})
	}

	critical, err := d.src.LowStockProducts(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(critical) > 0 {
		tasks = append(tasks, models.PriorityTask{
			Type:        "Low Stock",
			Description: fmt.Sprintf("%s is below reorder point.", critical[0].Name),
			LinkTo:      "/inventory",
		})
	}

	late, err := d.src.CountPendingPurchaseOrders(ctx)
	if err != nil {
		return nil, err
	}
	if late > 0 {
		tasks = append(tasks, models.PriorityTask{
			Type:        "Late Shipment",
			Description: fmt.Sprintf("%d supplier shipments are late.", late),
			LinkTo:      "/suppliers",
		})
	}

	if len(tasks) > priorityTaskLimit {
		tasks = tasks[:priorityTaskLimit]
	}
	return tasks, nil
}
