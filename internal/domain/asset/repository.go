package asset

import "context"

// Store defines the interface for persisted asset records (ClickHouse).
// Each Load returns an independent snapshot; callers own the result.
type Store interface {
	// ListAvailable enumerates tickers with a persisted record.
	// An empty result is a valid "no data yet" state, not an error.
	ListAvailable(ctx context.Context) ([]string, error)

	// Load returns the full ordered record for a ticker.
	// Returns errors.ErrTickerNotFound if the ticker was never persisted.
	Load(ctx context.Context, ticker string) (*Record, error)

	// Replace persists a record wholesale, overwriting any prior version.
	Replace(ctx context.Context, record *Record) error
}
