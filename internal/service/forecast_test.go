package service_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stockwise/stockwise/internal/models"
	"github.com/stockwise/stockwise/internal/service"
	"github.com/stockwise/stockwise/internal/store"
)

type fakeSales struct {
	days []models.DailySales
}

func (f *fakeSales) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if id != 1 {
		return nil, store.ErrNotFound
	}
	return &models.Product{ID: 1, Name: "Test Widget"}, nil
}

func (f *fakeSales) DailySales(ctx context.Context, productID int64) ([]models.DailySales, error) {
	return f.days, nil
}

func day(n int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestLinearFit(t *testing.T) {
	tests := []struct {
		name             string
		xs, ys           []float64
		wantSlope, wantB float64
	}{
		{"perfect line", []float64{0, 1, 2, 3}, []float64{1, 3, 5, 7}, 2, 1},
		{"flat", []float64{0, 5}, []float64{4, 4}, 0, 4},
		{"single x", []float64{2, 2}, []float64{1, 3}, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, b := service.LinearFit(tt.xs, tt.ys)
			if math.Abs(m-tt.wantSlope) > 1e-9 || math.Abs(b-tt.wantB) > 1e-9 {
				t.Errorf("LinearFit = (%v, %v), want (%v, %v)", m, b, tt.wantSlope, tt.wantB)
			}
		})
	}
}

func TestForecastTotal_ClampsNegatives(t *testing.T) {
	// y = 10 - 2x, last x = 3: predictions 2, 0, -2, -4 -> 2
	if got := service.ForecastTotal(-2, 10, 3, 4); got != 2 {
		t.Errorf("ForecastTotal = %d, want 2", got)
	}
}

func TestPredictDemand(t *testing.T) {
	src := &fakeSales{days: []models.DailySales{
		{Day: day(0), Quantity: 1},
		{Day: day(1), Quantity: 2},
		{Day: day(3), Quantity: 4},
	}}
	f := service.NewForecaster(src)

	// y = x + 1, next 3 days are x = 4, 5, 6 -> 5 + 6 + 7
	got, err := f.PredictDemand(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.PredictedDemand != 18 {
		t.Errorf("PredictedDemand = %d, want 18", got.PredictedDemand)
	}
	if got.ForecastPeriodDays != 3 || got.ProductID != 1 {
		t.Errorf("unexpected prediction header: %+v", got)
	}
}

func TestPredictDemand_DefaultDays(t *testing.T) {
	src := &fakeSales{days: []models.DailySales{{Day: day(0), Quantity: 2}, {Day: day(1), Quantity: 2}}}
	got, err := service.NewForecaster(src).PredictDemand(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ForecastPeriodDays != service.DefaultForecastDays || got.PredictedDemand != 60 {
		t.Errorf("got %+v", got)
	}
}

func TestPredictDemand_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := service.NewForecaster(&fakeSales{}).PredictDemand(ctx, 1, 30)
	if !errors.Is(err, service.ErrInsufficientHistory) {
		t.Errorf("no sales: expected ErrInsufficientHistory, got %v", err)
	}

	one := &fakeSales{days: []models.DailySales{{Day: day(0), Quantity: 5}}}
	_, err = service.NewForecaster(one).PredictDemand(ctx, 1, 30)
	if !errors.Is(err, service.ErrInsufficientHistory) {
		t.Errorf("single day: expected ErrInsufficientHistory, got %v", err)
	}

	_, err = service.NewForecaster(one).PredictDemand(ctx, 1, 366)
	if !errors.Is(err, models.ErrValidation) {
		t.Errorf("too many days: expected ErrValidation, got %v", err)
	}

	_, err = service.NewForecaster(one).PredictDemand(ctx, 2, 30)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown product: expected ErrNotFound, got %v", err)
	}
}
