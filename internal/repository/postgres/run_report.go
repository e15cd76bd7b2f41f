package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketpulse/internal/domain/run"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
)

// Compile-time check
var _ run.Repository = (*RunReportRepository)(nil)

// RunReportRepository implements run.Repository using sqlx
type RunReportRepository struct {
	db *sqlx.DB
}

// NewRunReportRepository creates a new run report repository
func NewRunReportRepository(db *sqlx.DB) *RunReportRepository {
	return &RunReportRepository{db: db}
}

// EnsureSchema creates the pipeline_runs table if it does not exist.
func (r *RunReportRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_runs (
			id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			price_rows INT NOT NULL,
			post_rows INT NOT NULL,
			posts_scored INT NOT NULL,
			scorer TEXT NOT NULL,
			processed TEXT[] NOT NULL DEFAULT '{}',
			skipped JSONB NOT NULL DEFAULT '[]'
		)`)
	return errors.Wrap(err, "failed to ensure pipeline_runs schema")
}

// Save inserts a run report
func (r *RunReportRepository) Save(ctx context.Context, report *run.Report) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "save_run", time.Since(start), err) }()

	skipped, err := json.Marshal(report.Skipped)
	if err != nil {
		return errors.Wrap(err, "failed to marshal skipped tickers")
	}

	query := `
		INSERT INTO pipeline_runs (
			id, started_at, finished_at,
			price_rows, post_rows, posts_scored, scorer,
			processed, skipped
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		report.ID, report.StartedAt, report.FinishedAt,
		report.PriceRows, report.PostRows, report.PostsScored, report.Scorer,
		pq.StringArray(report.Processed), skipped,
	)

	return err
}

// Latest retrieves the most recent run report
func (r *RunReportRepository) Latest(ctx context.Context) (_ *run.Report, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("postgres", "latest_run", time.Since(start), err) }()

	var row struct {
		run.Report
		Processed pq.StringArray `db:"processed"`
		Skipped   []byte         `db:"skipped"`
	}

	query := `
		SELECT id, started_at, finished_at, price_rows, post_rows, posts_scored, scorer, processed, skipped
		FROM pipeline_runs
		ORDER BY finished_at DESC
		LIMIT 1`

	if err := r.db.GetContext(ctx, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(errors.ErrRunNotFound, "no pipeline runs recorded")
		}
		return nil, err
	}

	report := row.Report
	report.Processed = row.Processed
	if err := json.Unmarshal(row.Skipped, &report.Skipped); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal skipped tickers")
	}

	return &report, nil
}
