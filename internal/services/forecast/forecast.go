// Package forecast defines the boundary to an external price forecaster.
// The analytics side supplies a {date, close} series and a horizon; the
// forecaster is an opaque collaborator whose point estimates and bands are
// passed through untouched.
package forecast

import (
	"context"
	"time"

	"marketpulse/internal/domain/asset"
	"marketpulse/pkg/errors"
)

// Point is one forecasted day with its uncertainty band.
type Point struct {
	Date  time.Time `json:"date"`
	YHat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// Forecaster produces a fitted-plus-future series from price history.
type Forecaster interface {
	Forecast(ctx context.Context, series []asset.PricePoint, horizonDays int) ([]Point, error)
}

// Request is the serialized input handed to an external forecaster.
type Request struct {
	Ticker  string             `json:"ticker"`
	Series  []asset.PricePoint `json:"series"`
	Horizon int                `json:"horizon_days"`
}

// BuildRequest extracts the forecaster input from a record.
func BuildRequest(record *asset.Record, horizonDays int) (*Request, error) {
	if horizonDays < 1 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "horizon must be positive, got %d", horizonDays)
	}
	if len(record.Rows) < 2 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "%s has too little history to forecast", record.Ticker)
	}

	return &Request{
		Ticker:  record.Ticker,
		Series:  record.PricePoints(),
		Horizon: horizonDays,
	}, nil
}
