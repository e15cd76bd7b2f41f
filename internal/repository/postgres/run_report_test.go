package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pgadapter "marketpulse/internal/adapters/postgres"
	"marketpulse/internal/domain/run"
	"marketpulse/internal/testsupport"
)

func TestRunReportRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfgs := testsupport.LoadDatabaseConfigsFromEnv(t)
	client, err := pgadapter.NewClient(cfgs.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRunReportRepository(client.DB())
	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	started := time.Now().UTC().Truncate(time.Millisecond)
	report := &run.Report{
		ID:          uuid.New(),
		StartedAt:   started,
		FinishedAt:  started.Add(3 * time.Second),
		PriceRows:   100,
		PostRows:    500,
		PostsScored: 500,
		Scorer:      "lexicon",
		Processed:   []string{"TSLA", "AAPL"},
		Skipped: []run.SkippedTicker{
			{Ticker: "MSFT", Stage: "parse", Reason: "non-numeric close"},
		},
	}

	require.NoError(t, repo.Save(ctx, report))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.ID, latest.ID)
	assert.Equal(t, report.Processed, latest.Processed)
	require.Len(t, latest.Skipped, 1)
	assert.Equal(t, "MSFT", latest.Skipped[0].Ticker)
	assert.True(t, latest.Partial())
}
