package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/domain/asset"
	"marketpulse/internal/domain/social"
)

func day(n int) time.Time {
	return time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func barsFor(ticker string, n int) []asset.PriceBar {
	bars := make([]asset.PriceBar, n)
	for i := 0; i < n; i++ {
		bars[i] = asset.PriceBar{Ticker: ticker, Date: day(i), Close: 100 + float64(i)}
	}
	return bars
}

func TestAggregateDaily_MeanPerTickerDay(t *testing.T) {
	posts := []social.Post{
		{Ticker: "TSLA", Date: day(0), Score: 0.8},
		{Ticker: "TSLA", Date: day(0), Score: 0.2},
		{Ticker: "tsla", Date: day(1), Score: -0.4},
		{Ticker: "AAPL", Date: day(0), Score: 0.1},
	}

	daily := aggregateDaily(posts)

	require.Contains(t, daily, "TSLA")
	assert.InDelta(t, 0.5, daily["TSLA"][day(0)], 1e-9)
	assert.InDelta(t, -0.4, daily["TSLA"][day(1)], 1e-9)
	assert.InDelta(t, 0.1, daily["AAPL"][day(0)], 1e-9)
}

func TestFuse_DecayCarriesAtMostWindowRows(t *testing.T) {
	bars := barsFor("TSLA", 12)
	daily := map[time.Time]float64{day(0): 0.6}

	record := fuse("TSLA", bars, daily, 7)
	require.Len(t, record.Rows, 12)

	// Rows 1..7 carry the value unchanged, rows 8+ fall back to neutral.
	for i := 0; i <= 7; i++ {
		assert.InDelta(t, 0.6, record.Rows[i].DailySentiment, 1e-9, "row %d", i)
	}
	for i := 8; i < 12; i++ {
		assert.Zero(t, record.Rows[i].DailySentiment, "row %d", i)
	}
}

func TestFuse_NewObservationResetsWindow(t *testing.T) {
	bars := barsFor("TSLA", 10)
	daily := map[time.Time]float64{
		day(0): 0.6,
		day(5): -0.3,
	}

	record := fuse("TSLA", bars, daily, 7)

	for i := 1; i <= 4; i++ {
		assert.InDelta(t, 0.6, record.Rows[i].DailySentiment, 1e-9, "row %d", i)
	}
	for i := 5; i < 10; i++ {
		assert.InDelta(t, -0.3, record.Rows[i].DailySentiment, 1e-9, "row %d", i)
	}
}

func TestFuse_NoObservationsStaysNeutral(t *testing.T) {
	record := fuse("TSLA", barsFor("TSLA", 5), nil, 7)

	for i, row := range record.Rows {
		assert.Zero(t, row.DailySentiment, "row %d", i)
	}
}

func TestFuse_LeadingGapBeforeFirstObservationIsNeutral(t *testing.T) {
	bars := barsFor("TSLA", 6)
	daily := map[time.Time]float64{day(3): 0.9}

	record := fuse("TSLA", bars, daily, 7)

	for i := 0; i < 3; i++ {
		assert.Zero(t, record.Rows[i].DailySentiment, "row %d", i)
	}
	for i := 3; i < 6; i++ {
		assert.InDelta(t, 0.9, record.Rows[i].DailySentiment, 1e-9, "row %d", i)
	}
}

func TestFuse_SortsRowsAscendingByDate(t *testing.T) {
	bars := []asset.PriceBar{
		{Ticker: "TSLA", Date: day(2), Close: 102},
		{Ticker: "TSLA", Date: day(0), Close: 100},
		{Ticker: "TSLA", Date: day(1), Close: 101},
	}

	record := fuse("TSLA", bars, nil, 7)

	require.Len(t, record.Rows, 3)
	for i := 1; i < len(record.Rows); i++ {
		assert.True(t, record.Rows[i-1].Date.Before(record.Rows[i].Date))
	}
}

func TestFuse_TimestampedDatesStillJoin(t *testing.T) {
	// In-memory callers may hand over dates carrying a time of day; both
	// sides are truncated so the join still lands on whole days.
	posts := []social.Post{
		{Ticker: "TSLA", Date: day(0).Add(9*time.Hour + 15*time.Minute), Score: 0.8},
	}
	bars := []asset.PriceBar{
		{Ticker: "TSLA", Date: day(0).Add(16 * time.Hour), Close: 100},
		{Ticker: "TSLA", Date: day(1), Close: 110},
	}

	record := fuse("TSLA", bars, aggregateDaily(posts)["TSLA"], 7)

	require.Len(t, record.Rows, 2)
	assert.Equal(t, day(0), record.Rows[0].Date)
	assert.InDelta(t, 0.8, record.Rows[0].DailySentiment, 1e-9)
	assert.InDelta(t, 0.8, record.Rows[1].DailySentiment, 1e-9)
}

func TestFuse_SentimentWithoutPriceBarIsDropped(t *testing.T) {
	bars := barsFor("TSLA", 2)
	daily := map[time.Time]float64{
		day(1):  0.5,
		day(40): 0.9, // no bar on this day
	}

	record := fuse("TSLA", bars, daily, 7)

	require.Len(t, record.Rows, 2)
	assert.Zero(t, record.Rows[0].DailySentiment)
	assert.InDelta(t, 0.5, record.Rows[1].DailySentiment, 1e-9)
}
