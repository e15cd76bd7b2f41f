package asset

import "time"

// PriceBar is one raw price row per (ticker, trading day).
// Source of truth for price history; immutable once loaded.
type PriceBar struct {
	Ticker   string
	Date     time.Time // day granularity, UTC midnight
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   float64
}

// Row is one processed row of a persisted asset table:
// the price fields plus the fused daily sentiment signal.
type Row struct {
	Date           time.Time `ch:"date" json:"date"`
	Open           float64   `ch:"open" json:"open"`
	High           float64   `ch:"high" json:"high"`
	Low            float64   `ch:"low" json:"low"`
	Close          float64   `ch:"close" json:"close"`
	AdjClose       float64   `ch:"adj_close" json:"adj_close"`
	Volume         float64   `ch:"volume" json:"volume"`
	DailySentiment float64   `ch:"daily_sentiment" json:"daily_sentiment"`
}

// Record is the fusion output for one ticker: rows strictly ascending by
// date, one per trading day present in the price source, with
// daily_sentiment defined on every row. Created wholesale by a pipeline run
// and read-only downstream.
type Record struct {
	Ticker string
	Rows   []Row
}

// Closes returns the close-price column.
func (r *Record) Closes() []float64 {
	closes := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		closes[i] = row.Close
	}
	return closes
}

// Returns computes simple daily returns: (close[t]-close[t-1])/close[t-1].
// The result has one fewer element than the record; fewer than 2 rows yield
// an empty slice.
func (r *Record) Returns() []float64 {
	if len(r.Rows) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(r.Rows)-1)
	for i := 1; i < len(r.Rows); i++ {
		prev := r.Rows[i-1].Close
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (r.Rows[i].Close-prev)/prev)
	}
	return returns
}

// PricePoint is the narrow {Date, Close} pair consumed by the external
// forecasting collaborator.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PricePoints extracts the forecaster input series.
func (r *Record) PricePoints() []PricePoint {
	points := make([]PricePoint, len(r.Rows))
	for i, row := range r.Rows {
		points[i] = PricePoint{Date: row.Date, Close: row.Close}
	}
	return points
}
