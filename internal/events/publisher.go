// Package events publishes domain events to Kafka so downstream consumers
// (alerting, notebooks, audit) can react to pipeline and scanner activity.
package events

import (
	"context"
	"time"

	"marketpulse/internal/adapters/kafka"
	"marketpulse/internal/domain/run"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/logger"
)

// Publisher emits domain events. All methods are fire-and-forget from the
// caller's perspective: a broker failure is logged, never propagated.
type Publisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		log:      logger.Get().With("component", "events"),
	}
}

// RunCompletedEvent is emitted after every pipeline run, partial or not.
type RunCompletedEvent struct {
	RunID       string              `json:"run_id"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
	Scorer      string              `json:"scorer"`
	PriceRows   int                 `json:"price_rows"`
	PostRows    int                 `json:"post_rows"`
	PostsScored int                 `json:"posts_scored"`
	Processed   []string            `json:"processed"`
	Skipped     []run.SkippedTicker `json:"skipped"`
}

// PublishRunCompleted emits a run-completed event
func (p *Publisher) PublishRunCompleted(ctx context.Context, report *run.Report) {
	event := RunCompletedEvent{
		RunID:       report.ID.String(),
		StartedAt:   report.StartedAt,
		FinishedAt:  report.FinishedAt,
		Scorer:      report.Scorer,
		PriceRows:   report.PriceRows,
		PostRows:    report.PostRows,
		PostsScored: report.PostsScored,
		Processed:   report.Processed,
		Skipped:     report.Skipped,
	}

	p.publish(ctx, kafka.TopicPipelineRuns, event.RunID, event)
}

// OpportunityEvent mirrors one scanner hit.
type OpportunityEvent struct {
	Ticker           string  `json:"ticker"`
	AvgMonthlyReturn float64 `json:"avg_monthly_return"`
	AvgSentiment     float64 `json:"avg_sentiment"`
	WinRate          float64 `json:"win_rate"`
}

// OpportunitiesFoundEvent is emitted when a scan yields at least one hit.
type OpportunitiesFoundEvent struct {
	Month               string             `json:"month"`
	SentimentPreference float64            `json:"sentiment_preference"`
	Opportunities       []OpportunityEvent `json:"opportunities"`
	At                  time.Time          `json:"at"`
}

// PublishOpportunitiesFound emits a scan result event
func (p *Publisher) PublishOpportunitiesFound(ctx context.Context, event OpportunitiesFoundEvent) {
	p.publish(ctx, kafka.TopicOpportunities, event.Month, event)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, event interface{}) {
	if err := p.producer.Publish(ctx, topic, key, event); err != nil {
		metrics.KafkaMessages.WithLabelValues(topic, "error").Inc()
		p.log.Errorf("Failed to publish event to %s: %v", topic, err)
		return
	}
	metrics.KafkaMessages.WithLabelValues(topic, "success").Inc()
}
