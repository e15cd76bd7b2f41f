package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"marketpulse/internal/adapters/config"
	"marketpulse/internal/domain/asset"
)

func recordWithCloses(closes ...float64) *asset.Record {
	rows := make([]asset.Row, len(closes))
	base := time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		rows[i] = asset.Row{Date: base.AddDate(0, 0, i), Close: c}
	}
	return &asset.Record{Ticker: "TSLA", Rows: rows}
}

func testEngine() *Engine {
	return NewEngine(config.RiskConfig{RiskFreeRate: 0.02, TradingDaysPerYear: 252})
}

func TestCompute_ThreeRowScenario(t *testing.T) {
	// Closes 100, 110, 99 give returns +0.10 and -0.10 exactly.
	m := testEngine().Compute(recordWithCloses(100, 110, 99))

	wantVol := math.Sqrt(0.02) * math.Sqrt(252)
	assert.InDelta(t, wantVol, m.Volatility, 1e-9)

	// 5th percentile between -0.1 and 0.1 with linear interpolation
	assert.InDelta(t, -0.09, m.VaR95, 1e-9)

	// mean return is zero, so Sharpe is just the risk-free drag
	assert.InDelta(t, -0.02/wantVol, m.Sharpe, 1e-9)
}

func TestCompute_TooShortYieldsZeroValue(t *testing.T) {
	assert.Equal(t, Metrics{}, testEngine().Compute(recordWithCloses()))
	assert.Equal(t, Metrics{}, testEngine().Compute(recordWithCloses(100)))
}

func TestCompute_ConstantSeries(t *testing.T) {
	m := testEngine().Compute(recordWithCloses(100, 100, 100, 100))

	assert.Zero(t, m.VaR95)
	assert.Zero(t, m.Volatility)
	assert.Zero(t, m.Sharpe)
}

func TestCompute_VaRKeepsSign(t *testing.T) {
	// Steadily rising prices: every return is positive, so VaR95 is too.
	m := testEngine().Compute(recordWithCloses(100, 101, 102, 103, 104, 105))
	assert.Greater(t, m.VaR95, 0.0)

	// Steadily falling prices: VaR95 is a negative return, not a positive loss.
	m = testEngine().Compute(recordWithCloses(105, 104, 103, 102, 101, 100))
	assert.Less(t, m.VaR95, 0.0)
}

func TestComputeWithRate_OverridesRiskFree(t *testing.T) {
	record := recordWithCloses(100, 110, 99)
	engine := testEngine()

	zero := engine.ComputeWithRate(record, 0)
	assert.Zero(t, zero.Sharpe)

	high := engine.ComputeWithRate(record, 0.10)
	assert.Less(t, high.Sharpe, zero.Sharpe)
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.15, percentile(values, 5), 1e-9)
	assert.InDelta(t, 2.5, percentile(values, 50), 1e-9)
	assert.InDelta(t, 1, percentile(values, 0), 1e-9)
	assert.InDelta(t, 4, percentile(values, 100), 1e-9)
}

func TestPercentile_Empty(t *testing.T) {
	assert.Zero(t, percentile(nil, 5))
}

func TestSampleStdDev(t *testing.T) {
	assert.Zero(t, sampleStdDev([]float64{1}))
	assert.InDelta(t, math.Sqrt(0.02), sampleStdDev([]float64{0.1, -0.1}), 1e-9)
}
