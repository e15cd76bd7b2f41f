// Package analysis derives chart overlays and research views from persisted
// asset records: moving-average and band overlays, a sentiment bucket
// backtest and a latest-signal summary.
package analysis

import (
	"context"
	"time"

	"github.com/markcheno/go-talib"

	"marketpulse/internal/domain/asset"
	"marketpulse/pkg/logger"
)

const (
	smaPeriod   = 20
	rsiPeriod   = 14
	bbandPeriod = 20
	bbandWidth  = 2.0
)

// Indicators carries technical overlays aligned index-for-index with the
// record's rows. Slices for indicators that need more history than the
// record has are nil; warmup positions inside a computed slice are zero.
type Indicators struct {
	Ticker string      `json:"ticker"`
	Dates  []time.Time `json:"dates"`
	Close  []float64   `json:"close"`
	SMA20  []float64   `json:"sma_20,omitempty"`
	RSI14  []float64   `json:"rsi_14,omitempty"`
	BBUp   []float64   `json:"bb_upper,omitempty"`
	BBMid  []float64   `json:"bb_middle,omitempty"`
	BBLow  []float64   `json:"bb_lower,omitempty"`
}

// Service computes analysis views over the asset store.
type Service struct {
	store asset.Store
	log   *logger.Logger
}

// NewService creates a new analysis service
func NewService(store asset.Store) *Service {
	return &Service{
		store: store,
		log:   logger.Get().With("component", "analysis"),
	}
}

// Indicators computes the overlay set for one ticker.
func (s *Service) Indicators(ctx context.Context, ticker string) (*Indicators, error) {
	record, err := s.store.Load(ctx, ticker)
	if err != nil {
		return nil, err
	}

	closes := record.Closes()
	out := &Indicators{
		Ticker: record.Ticker,
		Dates:  make([]time.Time, len(record.Rows)),
		Close:  closes,
	}
	for i, row := range record.Rows {
		out.Dates[i] = row.Date
	}

	if len(closes) >= smaPeriod {
		out.SMA20 = talib.Sma(closes, smaPeriod)
	}
	if len(closes) > rsiPeriod {
		out.RSI14 = talib.Rsi(closes, rsiPeriod)
	}
	if len(closes) >= bbandPeriod {
		out.BBUp, out.BBMid, out.BBLow = talib.BBands(closes, bbandPeriod, bbandWidth, bbandWidth, talib.SMA)
	}

	return out, nil
}
