// Package pipeline implements the fusion ETL: score social posts, aggregate
// them per day, join onto price history and persist one record per ticker.
// A run is all-or-nothing per ticker but partial-success per batch.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"marketpulse/internal/adapters/config"
	"marketpulse/internal/domain/asset"
	"marketpulse/internal/domain/run"
	"marketpulse/internal/domain/social"
	"marketpulse/internal/events"
	"marketpulse/internal/ingest"
	"marketpulse/internal/metrics"
	"marketpulse/internal/sentiment"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const runLockKey = "pipeline:run"

// Locker serializes pipeline runs across instances (Redis SetNX).
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// Deps carries the service collaborators. Reports, Locker and Events are
// optional; a nil value disables that concern.
type Deps struct {
	Store   asset.Store
	Scorer  sentiment.Scorer
	Reports run.Repository
	Locker  Locker
	Events  *events.Publisher
}

// Service runs the fusion pipeline.
type Service struct {
	store   asset.Store
	scorer  sentiment.Scorer
	reports run.Repository
	locker  Locker
	events  *events.Publisher
	cfg     config.PipelineConfig
	log     *logger.Logger
}

// NewService creates a new pipeline service
func NewService(deps Deps, cfg config.PipelineConfig) *Service {
	return &Service{
		store:   deps.Store,
		scorer:  deps.Scorer,
		reports: deps.Reports,
		locker:  deps.Locker,
		events:  deps.Events,
		cfg:     cfg,
		log:     logger.Get().With("component", "pipeline"),
	}
}

// Input is one batch of raw rows. PriceDefects disqualify their ticker: a
// record built on partially-parsed price history would silently skew every
// downstream metric.
type Input struct {
	Prices       []asset.PriceBar
	Posts        []social.Post
	PriceDefects []ingest.RowError
}

// Result is the outcome of one run.
type Result struct {
	Report  *run.Report
	Records map[string]*asset.Record
}

// RunFromFiles ingests the configured CSV sources and runs the pipeline.
func (s *Service) RunFromFiles(ctx context.Context) (*Result, error) {
	prices, priceDefects, err := ingest.ReadPriceCSV(s.cfg.PriceFile)
	if err != nil {
		return nil, err
	}

	posts, postDefects, err := ingest.ReadPostCSV(s.cfg.PostsFile)
	if err != nil {
		return nil, err
	}
	// Post defects only cost us signal; a missing post day is a legal state.
	for _, defect := range postDefects {
		s.log.Warnf("Skipping malformed post row: %v", defect)
	}

	return s.Run(ctx, Input{Prices: prices, Posts: posts, PriceDefects: priceDefects})
}

// Run executes the pipeline over in-memory rows. The ticker universe is the
// set of tickers present in the price data; posts for unknown tickers are
// ignored. Per-ticker failures are collected into the report, never
// propagated. Concurrent runs are rejected with ErrPipelineRunning.
func (s *Service) Run(ctx context.Context, input Input) (*Result, error) {
	if s.locker != nil {
		acquired, err := s.locker.AcquireLock(ctx, runLockKey, s.cfg.RunLockTTL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to acquire run lock")
		}
		if !acquired {
			return nil, errors.ErrPipelineRunning
		}
		defer func() {
			if err := s.locker.ReleaseLock(ctx, runLockKey); err != nil {
				s.log.Errorf("Failed to release run lock: %v", err)
			}
		}()
	}

	report := &run.Report{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		PriceRows: len(input.Prices),
		PostRows:  len(input.Posts),
		Scorer:    s.scorer.Name(),
	}

	report.PostsScored = s.scorePosts(ctx, input.Posts)
	daily := aggregateDaily(input.Posts)

	barsByTicker := make(map[string][]asset.PriceBar)
	for _, bar := range input.Prices {
		ticker := strings.ToUpper(strings.TrimSpace(bar.Ticker))
		if ticker == "" {
			continue
		}
		barsByTicker[ticker] = append(barsByTicker[ticker], bar)
	}

	defects := make(map[string][]ingest.RowError)
	for _, defect := range input.PriceDefects {
		ticker := strings.ToUpper(strings.TrimSpace(defect.Ticker))
		defects[ticker] = append(defects[ticker], defect)
	}

	tickers := make([]string, 0, len(barsByTicker))
	for ticker := range barsByTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	records := make(map[string]*asset.Record, len(tickers))
	for _, ticker := range tickers {
		record, err := s.processTicker(ctx, ticker, barsByTicker[ticker], daily[ticker], defects[ticker])
		if err != nil {
			var tickerErr *errors.TickerError
			skipped := run.SkippedTicker{Ticker: ticker, Stage: "fuse", Reason: err.Error()}
			if errors.As(err, &tickerErr) {
				skipped.Stage = tickerErr.Stage
				skipped.Reason = tickerErr.Err.Error()
			}
			report.Skipped = append(report.Skipped, skipped)
			s.log.Errorf("Skipping ticker %s at stage %s: %v", ticker, skipped.Stage, err)
			continue
		}
		records[ticker] = record
		report.Processed = append(report.Processed, ticker)
	}

	report.FinishedAt = time.Now().UTC()

	status := "success"
	if report.Partial() {
		status = "partial"
	}
	metrics.RecordPipelineRun(status, report.Duration(), len(report.Processed), len(report.Skipped))

	if s.reports != nil {
		if err := s.reports.Save(ctx, report); err != nil {
			s.log.Errorf("Failed to persist run report %s: %v", report.ID, err)
		}
	}
	if s.events != nil {
		s.events.PublishRunCompleted(ctx, report)
	}

	s.log.Infow("Pipeline run finished",
		"run_id", report.ID,
		"status", status,
		"processed", len(report.Processed),
		"skipped", len(report.Skipped),
		"posts_scored", report.PostsScored,
		"duration", report.Duration(),
	)

	return &Result{Report: report, Records: records}, nil
}

// processTicker builds and persists one record. Panics from a single ticker
// are contained here so the rest of the batch survives.
func (s *Service) processTicker(
	ctx context.Context,
	ticker string,
	bars []asset.PriceBar,
	daily map[time.Time]float64,
	defects []ingest.RowError,
) (record *asset.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewTickerError(ticker, "fuse", errors.Newf("panic: %v", r))
		}
	}()

	if len(defects) > 0 {
		return nil, errors.NewTickerError(ticker, "parse",
			errors.Newf("%d malformed price rows (first: %v)", len(defects), defects[0]))
	}

	record = fuse(ticker, bars, daily, s.cfg.DecayWindowRows)

	if err := s.store.Replace(ctx, record); err != nil {
		return nil, errors.NewTickerError(ticker, "persist", err)
	}

	return record, nil
}

// scorePosts scores every post in place with a bounded worker pool. The
// scorer contract guarantees a neutral 0.0 on failure, so the count returned
// is always the full batch.
func (s *Service) scorePosts(ctx context.Context, posts []social.Post) int {
	if len(posts) == 0 {
		return 0
	}

	workers := s.cfg.ScoreConcurrency
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				posts[i].Score = s.scorer.Score(ctx, posts[i].Text)
			}
		}()
	}

	for i := range posts {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	metrics.PostsScored.WithLabelValues(s.scorer.Name()).Add(float64(len(posts)))
	return len(posts)
}
