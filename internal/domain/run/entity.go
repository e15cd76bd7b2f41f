package run

import (
	"time"

	"github.com/google/uuid"
)

// SkippedTicker records one per-ticker recoverable failure inside a run.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Stage  string `json:"stage"` // parse, fuse, persist
	Reason string `json:"reason"`
}

// Report is the partial-success summary of one pipeline run. Per-ticker
// failures never abort the batch; they are collected here instead.
type Report struct {
	ID          uuid.UUID `db:"id"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
	PriceRows   int       `db:"price_rows"`
	PostRows    int       `db:"post_rows"`
	PostsScored int       `db:"posts_scored"`
	Scorer      string    `db:"scorer"`

	Processed []string        `db:"-"`
	Skipped   []SkippedTicker `db:"-"`
}

// Partial reports whether the run completed with skipped tickers.
func (r *Report) Partial() bool {
	return len(r.Skipped) > 0
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
