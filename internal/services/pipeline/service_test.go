package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketpulse/internal/adapters/config"
	"marketpulse/internal/domain/asset"
	"marketpulse/internal/domain/social"
	"marketpulse/internal/ingest"
	"marketpulse/internal/sentiment"
	"marketpulse/pkg/errors"
)

// memStore is an in-memory asset.Store for pipeline tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]*asset.Record
	failFor map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[string]*asset.Record),
		failFor: make(map[string]error),
	}
}

func (m *memStore) ListAvailable(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tickers := make([]string, 0, len(m.records))
	for t := range m.records {
		tickers = append(tickers, t)
	}
	return tickers, nil
}

func (m *memStore) Load(ctx context.Context, ticker string) (*asset.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[strings.ToUpper(ticker)]
	if !ok {
		return nil, errors.ErrTickerNotFound
	}
	return record, nil
}

func (m *memStore) Replace(ctx context.Context, record *asset.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[record.Ticker]; ok {
		return err
	}
	m.records[record.Ticker] = record
	return nil
}

// memLocker is a single-process Locker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) ReleaseLock(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		DecayWindowRows:  7,
		ScoreConcurrency: 4,
		RunLockTTL:       time.Minute,
	}
}

func neutralScorer() sentiment.Scorer {
	return sentiment.Func(func(ctx context.Context, text string) float64 { return 0 })
}

func TestRun_NoPostsYieldsNeutralSentiment(t *testing.T) {
	store := newMemStore()
	svc := NewService(Deps{Store: store, Scorer: neutralScorer()}, testConfig())

	result, err := svc.Run(context.Background(), Input{Prices: barsFor("TSLA", 5)})
	require.NoError(t, err)

	record := result.Records["TSLA"]
	require.NotNil(t, record)
	require.Len(t, record.Rows, 5)
	for _, row := range record.Rows {
		assert.Zero(t, row.DailySentiment)
	}
	assert.Equal(t, []string{"TSLA"}, result.Report.Processed)
	assert.False(t, result.Report.Partial())
}

func TestRun_ScoresPostsAndJoins(t *testing.T) {
	store := newMemStore()
	scorer := sentiment.Func(func(ctx context.Context, text string) float64 {
		if strings.Contains(text, "moon") {
			return 0.8
		}
		return -0.2
	})
	svc := NewService(Deps{Store: store, Scorer: scorer}, testConfig())

	posts := []social.Post{
		{Ticker: "TSLA", Date: day(0), Text: "to the moon"},
		{Ticker: "TSLA", Date: day(0), Text: "selling everything"},
	}

	result, err := svc.Run(context.Background(), Input{Prices: barsFor("TSLA", 3), Posts: posts})
	require.NoError(t, err)

	record := result.Records["TSLA"]
	require.NotNil(t, record)
	// mean of 0.8 and -0.2, carried forward across the two empty days
	for _, row := range record.Rows {
		assert.InDelta(t, 0.3, row.DailySentiment, 1e-9)
	}
	assert.Equal(t, 2, result.Report.PostsScored)
}

func TestRun_DefectiveTickerIsSkippedOthersSurvive(t *testing.T) {
	store := newMemStore()
	svc := NewService(Deps{Store: store, Scorer: neutralScorer()}, testConfig())

	prices := append(barsFor("TSLA", 3), barsFor("AAPL", 3)...)
	defects := []ingest.RowError{{Line: 12, Ticker: "AAPL", Err: errors.New(`non-numeric close "oops"`)}}

	result, err := svc.Run(context.Background(), Input{Prices: prices, PriceDefects: defects})
	require.NoError(t, err)

	assert.Equal(t, []string{"TSLA"}, result.Report.Processed)
	require.Len(t, result.Report.Skipped, 1)
	assert.Equal(t, "AAPL", result.Report.Skipped[0].Ticker)
	assert.Equal(t, "parse", result.Report.Skipped[0].Stage)
	assert.True(t, result.Report.Partial())
	assert.NotContains(t, result.Records, "AAPL")
}

func TestRun_PersistFailureIsIsolated(t *testing.T) {
	store := newMemStore()
	store.failFor["TSLA"] = errors.New("connection refused")
	svc := NewService(Deps{Store: store, Scorer: neutralScorer()}, testConfig())

	prices := append(barsFor("TSLA", 3), barsFor("AAPL", 3)...)

	result, err := svc.Run(context.Background(), Input{Prices: prices})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, result.Report.Processed)
	require.Len(t, result.Report.Skipped, 1)
	assert.Equal(t, "persist", result.Report.Skipped[0].Stage)
}

func TestRun_ConcurrentRunRejected(t *testing.T) {
	store := newMemStore()
	locker := newMemLocker()
	svc := NewService(Deps{Store: store, Scorer: neutralScorer(), Locker: locker}, testConfig())

	held, err := locker.AcquireLock(context.Background(), runLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = svc.Run(context.Background(), Input{Prices: barsFor("TSLA", 2)})
	assert.ErrorIs(t, err, errors.ErrPipelineRunning)

	require.NoError(t, locker.ReleaseLock(context.Background(), runLockKey))
	_, err = svc.Run(context.Background(), Input{Prices: barsFor("TSLA", 2)})
	assert.NoError(t, err)
}

func TestRun_IdempotentOnIdenticalInput(t *testing.T) {
	store := newMemStore()
	svc := NewService(Deps{Store: store, Scorer: neutralScorer()}, testConfig())

	input := Input{Prices: barsFor("TSLA", 4), Posts: []social.Post{{Ticker: "TSLA", Date: day(1), Text: "x"}}}

	first, err := svc.Run(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Records["TSLA"].Rows, second.Records["TSLA"].Rows)
}

func TestRun_RowsOrderedAscending(t *testing.T) {
	store := newMemStore()
	svc := NewService(Deps{Store: store, Scorer: neutralScorer()}, testConfig())

	// Feed bars in reverse order.
	bars := barsFor("TSLA", 5)
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	result, err := svc.Run(context.Background(), Input{Prices: bars})
	require.NoError(t, err)

	rows := result.Records["TSLA"].Rows
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i-1].Date.Before(rows[i].Date))
	}
}
