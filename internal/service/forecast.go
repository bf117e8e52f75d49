package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/stockwise/stockwise/internal/models"
)

const (
	DefaultForecastDays = 30
	MaxForecastDays     = 365
)

// ErrInsufficientHistory is returned when there are not enough distinct sale days to fit a trend
var ErrInsufficientHistory = errors.New("insufficient sales history")

// HistoryError carries the user-facing reason a forecast could not be made
type HistoryError struct{ Msg string }

func (e *HistoryError) Error() string { return e.Msg }
func (e *HistoryError) Unwrap() error { return ErrInsufficientHistory }

// SalesSource is the data the forecaster reads
type SalesSource interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	DailySales(ctx context.Context, productID int64) ([]models.DailySales, error)
}

// Forecaster predicts future product demand from a linear trend over daily sales
type Forecaster struct {
	src SalesSource
}

func NewForecaster(src SalesSource) *Forecaster {
	return &Forecaster{src: src}
}

// PredictDemand fits quantity-per-day against days since the first sale and sums
// the non-negative predictions for the next days days.
func (f *Forecaster) PredictDemand(ctx context.Context, productID int64, days int) (*models.DemandPrediction, error) {
	if days == 0 {
		days = DefaultForecastDays
	}
	if days < 1 || days > MaxForecastDays {
		return nil, fmt.Errorf("%w: forecast_days must be between 1 and %d", models.ErrValidation, MaxForecastDays)
	}

	if _, err := f.src.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	sales, err := f.src.DailySales(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load sales history: %w", err)
	}
	if len(sales) == 0 {
		return nil, &HistoryError{Msg: "Not enough historical sales data to generate a forecast."}
	}
	if len(sales) < 2 {
		return nil, &HistoryError{Msg: "Sales data exists, but on a single day. At least two different days are needed for a trend."}
	}

	first := sales[0].Day
	xs := make([]float64, len(sales))
	ys := make([]float64, len(sales))
	for i, d := range sales {
		xs[i] = math.Round(d.Day.Sub(first).Hours() / 24)
		ys[i] = float64(d.Quantity)
	}

	slope, intercept := LinearFit(xs, ys)
	total := ForecastTotal(slope, intercept, xs[len(xs)-1], days)

	log.Debug().
		Int64("product_id", productID).
		Int("history_days", len(sales)).
		Float64("slope", slope).
		Float64("intercept", intercept).
		Int("predicted", total).
		Msg("demand forecast")

	return &models.DemandPrediction{
		ProductID:          productID,
		ForecastPeriodDays: days,
		PredictedDemand:    total,
	}, nil
}

// LinearFit is an ordinary least-squares fit y = slope*x + intercept.
// With zero variance in x the slope is 0 and the intercept is the mean of y.
func LinearFit(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n == 0 {
		return 0, 0
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}
	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX
}

// ForecastTotal sums predictions for days lastX+1 .. lastX+days, clamping negatives to zero.
func ForecastTotal(slope, intercept, lastX float64, days int) int {
	var total float64
	for i := 1; i <= days; i++ {
		if y := slope*(lastX+float64(i)) + intercept; y > 0 {
			total += y
		}
	}
	return int(math.Round(total))
}
