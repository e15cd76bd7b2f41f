package run

import "context"

// Repository persists pipeline run reports (PostgreSQL).
type Repository interface {
	Save(ctx context.Context, report *Report) error
	Latest(ctx context.Context) (*Report, error)
}
