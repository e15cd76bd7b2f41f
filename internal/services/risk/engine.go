// Package risk derives distribution metrics from a persisted asset record:
// historical 95% value-at-risk, annualized volatility and a Sharpe ratio.
package risk

import (
	"math"

	"marketpulse/internal/adapters/config"
	"marketpulse/internal/domain/asset"
)

// Metrics is the risk summary for one asset. A record too short to compute
// returns yields the zero value, not an error.
type Metrics struct {
	VaR95      float64 `json:"var_95"`
	Volatility float64 `json:"volatility"`
	Sharpe     float64 `json:"sharpe_ratio"`
}

// Engine computes risk metrics under a fixed annualization convention.
type Engine struct {
	riskFreeRate float64
	tradingDays  int
}

// NewEngine creates a new risk engine
func NewEngine(cfg config.RiskConfig) *Engine {
	return &Engine{
		riskFreeRate: cfg.RiskFreeRate,
		tradingDays:  cfg.TradingDaysPerYear,
	}
}

// Compute derives the metrics using the configured risk-free rate.
func (e *Engine) Compute(record *asset.Record) Metrics {
	return e.ComputeWithRate(record, e.riskFreeRate)
}

// ComputeWithRate derives the metrics with an explicit annual risk-free
// rate. VaR95 is the 5th percentile of daily returns and keeps its sign: a
// negative value is a loss. Volatility is the sample standard deviation
// scaled by sqrt(trading days). Sharpe compares the annualized mean excess
// return against that volatility; a flat series has no meaningful Sharpe, so
// zero volatility yields 0 rather than a division blowup.
func (e *Engine) ComputeWithRate(record *asset.Record, riskFreeRate float64) Metrics {
	returns := record.Returns()
	if len(returns) == 0 {
		return Metrics{}
	}

	stddev := sampleStdDev(returns)
	volatility := stddev * math.Sqrt(float64(e.tradingDays))

	sharpe := 0.0
	if stddev > 0 {
		annualized := mean(returns) * float64(e.tradingDays)
		sharpe = (annualized - riskFreeRate) / volatility
	}

	return Metrics{
		VaR95:      percentile(returns, 5),
		Volatility: volatility,
		Sharpe:     sharpe,
	}
}
