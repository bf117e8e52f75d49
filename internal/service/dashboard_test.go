package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/service"
	"github.com/stockwise/stockwise/internal/store"
)

func TestPriorityTasks(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := now.Add(-48 * time.Hour)
	s := store.NewMemoryStore(store.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	if err := store.Seed(ctx, s, "dev@example.com", ""); err != nil {
		t.Fatal(err)
	}
	widget, _ := s.GetProductByName(ctx, "Test Widget")
	if _, err := s.CreateSale(ctx, nil, models.SaleCreate{ItemsSold: []models.ItemSold{{ProductID: widget.ID, Quantity: 1}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePurchaseOrder(ctx, widget.ID, 10); err != nil {
		t.Fatal(err)
	}

	d := service.NewDashboard(s).WithClock(func() time.Time { return now })
	tasks, err := d.PriorityTasks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d: %+v", len(tasks), tasks)
	}
	want := []string{"Pending Orders", "Low Stock", "Late Shipment"}
	for i, w := range want {
		if tasks[i].Type != w {
			t.Errorf("task %d: type %q, want %q", i, tasks[i].Type, w)
		}
	}
	if tasks[1].Description != "Steel Bracket is below reorder point." {
		t.Errorf("unexpected low stock description: %q", tasks[1].Description)
	}
}

func TestLowStockAlerts(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()
	for i, stock := range []int{9, 1, 5, 50, 3, 2, 4} {
		_, err := s.CreateProduct(ctx, models.ProductCreate{
			Name: "P", SKU: string(rune('A' + i)), CurrentStock: stock, ReorderPoint: 10,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	alerts, err := service.NewDashboard(s).LowStockAlerts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 5 {
		t.Fatalf("expected 5 alerts, got %d", len(alerts))
	}
	for i := 1; i < len(alerts); i++ {
		if alerts[i-1].CurrentStock > alerts[i].CurrentStock {
			t.Errorf("alerts not sorted by stock: %+v", alerts)
		}
	}
}

type slowKPIs struct {
	store.Store
	calls   atomic.Int32
	release chan struct{}
}

func (s *slowKPIs) DashboardKPIs(ctx context.Context, now time.Time) (*models.DashboardKPIs, error) {
	s.calls.Add(1)
	<-s.release
	return &models.DashboardKPIs{OrdersToday: 7}, nil
}

func TestKPIs_SharedComputation(t *testing.T) {
	src := &slowKPIs{Store: store.NewMemoryStore(), release: make(chan struct{})}
	d := service.NewDashboard(src)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k, err := d.KPIs(context.Background())
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = k.OrdersToday
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if n := src.calls.Load(); n < 1 || n > int32(len(results)) {
		t.Errorf("unexpected call count %d", n)
	}
	for i, r := range results {
		if r != 7 {
			t.Errorf("result %d = %d, want 7", i, r)
		}
	}

	// Nothing is cached once the flight completes.
	src.release = make(chan struct{})
	close(src.release)
	before := src.calls.Load()
	if _, err := d.KPIs(context.Background()); err != nil {
		t.Fatal(err)
	}
	if src.calls.Load() != before+1 {
		t.Errorf("expected a fresh computation after the shared one finished")
	}
}

// cancellableKPIs fails with the context error if its ctx ends before release.
type cancellableKPIs struct {
	store.Store
	calls   atomic.Int32
	release chan struct{}
}

func (s *cancellableKPIs) DashboardKPIs(ctx context.Context, now time.Time) (*models.DashboardKPIs, error) {
	s.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.release:
		return &models.DashboardKPIs{OrdersToday: 3}, nil
	}
}

func TestKPIs_CancelledCallerDoesNotFailOthers(t *testing.T) {
	src := &cancellableKPIs{Store: store.NewMemoryStore(), release: make(chan struct{})}
	d := service.NewDashboard(src)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := d.KPIs(firstCtx)
		firstErr <- err
	}()
	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		k   *models.DashboardKPIs
		err error
	}
	second := make(chan result, 1)
	go func() {
		k, err := d.KPIs(context.Background())
		second <- result{k, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller: err = %v, want context.Canceled", err)
	}

	close(src.release)
	got := <-second
	if got.err != nil {
		t.Fatalf("waiting caller failed: %v", got.err)
	}
	if got.k.OrdersToday != 3 {
		t.Errorf("orders today = %d, want 3", got.k.OrdersToday)
	}
}
