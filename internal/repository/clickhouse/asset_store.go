package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"marketpulse/internal/domain/asset"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ asset.Store = (*AssetStore)(nil)

const tableSuffix = "_processed"

// AssetStore implements asset.Store using ClickHouse: one MergeTree table
// per ticker, named `<ticker>_processed`, replaced wholesale on every
// pipeline run.
type AssetStore struct {
	conn driver.Conn
}

// NewAssetStore creates a new asset store
func NewAssetStore(conn driver.Conn) *AssetStore {
	return &AssetStore{conn: conn}
}

// tableName maps a ticker to its table. Tickers are stored uppercase;
// table identifiers are lowercase with non-alphanumerics folded to '_'.
func tableName(ticker string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, ticker)
	return clean + tableSuffix
}

// ListAvailable enumerates tickers with a persisted record.
func (s *AssetStore) ListAvailable(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "list", time.Since(start), err) }()

	var names []string
	err = s.conn.Select(ctx, &names, `
		SELECT name FROM system.tables
		WHERE database = currentDatabase() AND name LIKE '%`+tableSuffix+`'
		ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list asset tables")
	}

	tickers := make([]string, 0, len(names))
	for _, name := range names {
		tickers = append(tickers, strings.ToUpper(strings.TrimSuffix(name, tableSuffix)))
	}
	return tickers, nil
}

// Load returns the full record for a ticker, ordered ascending by date.
func (s *AssetStore) Load(ctx context.Context, ticker string) (_ *asset.Record, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "load", time.Since(start), err) }()

	table := tableName(ticker)

	exists, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check table for %s", ticker)
	}
	if !exists {
		return nil, errors.Wrapf(errors.ErrTickerNotFound, "%s", ticker)
	}

	var rows []asset.Row
	query := fmt.Sprintf(`
		SELECT date, open, high, low, close, adj_close, volume, daily_sentiment
		FROM %s
		ORDER BY date ASC`, table)

	if err := s.conn.Select(ctx, &rows, query); err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", ticker)
	}

	return &asset.Record{Ticker: strings.ToUpper(ticker), Rows: rows}, nil
}

// Replace persists a record wholesale. The prior table is dropped first so
// a re-run on identical inputs yields a value-identical table.
func (s *AssetStore) Replace(ctx context.Context, record *asset.Record) (err error) {
	if record == nil || record.Ticker == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "record must have a ticker")
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("clickhouse", "replace", time.Since(start), err) }()

	table := tableName(record.Ticker)

	if err := s.conn.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
		return errors.Wrapf(err, "failed to drop %s", table)
	}

	err = s.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE %s (
			date Date,
			open Float64,
			high Float64,
			low Float64,
			close Float64,
			adj_close Float64,
			volume Float64,
			daily_sentiment Float64
		) ENGINE = MergeTree()
		ORDER BY date`, table))
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", table)
	}

	if len(record.Rows) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf(`
		INSERT INTO %s (date, open, high, low, close, adj_close, volume, daily_sentiment)`, table))
	if err != nil {
		return errors.Wrap(err, "failed to prepare batch")
	}

	for _, row := range record.Rows {
		err := batch.Append(
			row.Date, row.Open, row.High, row.Low,
			row.Close, row.AdjClose, row.Volume, row.DailySentiment,
		)
		if err != nil {
			return errors.Wrap(err, "failed to append row")
		}
	}

	return batch.Send()
}

func (s *AssetStore) tableExists(ctx context.Context, table string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM system.tables
		WHERE database = currentDatabase() AND name = $1`, table).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
