package testsupport

import (
	"testing"
	"time"

	"marketpulse/internal/adapters/clickhouse"
	"marketpulse/internal/adapters/config"
	"marketpulse/internal/domain/asset"
)

// NewClickHouseClient connects to ClickHouse for tests and registers cleanup.
func NewClickHouseClient(t *testing.T, cfg config.ClickHouseConfig) *clickhouse.Client {
	t.Helper()

	client, err := clickhouse.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// RecordFixture builds asset records for tests.
type RecordFixture struct {
	ticker    string
	start     time.Time
	closes    []float64
	sentiment []float64
}

// NewRecordFixture creates a fixture with a default ticker and start date.
func NewRecordFixture() *RecordFixture {
	return &RecordFixture{
		ticker: "TSLA",
		start:  time.Date(2022, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

// WithTicker sets the ticker
func (f *RecordFixture) WithTicker(ticker string) *RecordFixture {
	f.ticker = ticker
	return f
}

// WithStart sets the first trading day
func (f *RecordFixture) WithStart(start time.Time) *RecordFixture {
	f.start = start
	return f
}

// WithCloses sets the close column; one row per value on consecutive days
func (f *RecordFixture) WithCloses(closes ...float64) *RecordFixture {
	f.closes = closes
	return f
}

// WithSentiment sets the daily sentiment column, aligned with closes
func (f *RecordFixture) WithSentiment(sentiment ...float64) *RecordFixture {
	f.sentiment = sentiment
	return f
}

// Build returns the constructed record
func (f *RecordFixture) Build() *asset.Record {
	rows := make([]asset.Row, len(f.closes))
	for i, c := range f.closes {
		rows[i] = asset.Row{
			Date:  f.start.AddDate(0, 0, i),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
		if i < len(f.sentiment) {
			rows[i].DailySentiment = f.sentiment[i]
		}
	}
	return &asset.Record{Ticker: f.ticker, Rows: rows}
}
