package lexicon

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"marketpulse/internal/metrics"
)

func TestScore_Polarity(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Greater(t, s.Score(ctx, "bullish rally, expecting a breakout"), 0.0)
	assert.Less(t, s.Score(ctx, "bearish selloff, fraud investigation"), 0.0)
}

func TestScore_EmptyTextIsNeutral(t *testing.T) {
	s := New()

	assert.Zero(t, s.Score(context.Background(), ""))
	assert.Zero(t, s.Score(context.Background(), "   "))
	assert.Zero(t, s.Score(context.Background(), "nothing to see here today"))
}

func TestScore_NegationFlipsPolarity(t *testing.T) {
	s := New()
	ctx := context.Background()

	plain := s.Score(ctx, "this stock is good")
	negated := s.Score(ctx, "this stock is not good")

	assert.Greater(t, plain, 0.0)
	assert.Less(t, negated, 0.0)
}

func TestScore_PhrasesMatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.Greater(t, s.Score(ctx, "shares hit a record high today"), 0.0)
	assert.Less(t, s.Score(ctx, "shares hit a record low today"), 0.0)
}

func TestScore_Bounded(t *testing.T) {
	s := New()
	ctx := context.Background()

	texts := []string{
		"bullish rally surge soar moon rocket breakout gains",
		"crash plunge slump selloff bankruptcy fraud scam terrible",
		"good but weak, gains then losses",
	}
	for _, text := range texts {
		score := s.Score(ctx, text)
		assert.GreaterOrEqual(t, score, -1.0, text)
		assert.LessOrEqual(t, score, 1.0, text)
	}
}

func TestScore_SingleKeywordIsDamped(t *testing.T) {
	s := New()
	ctx := context.Background()

	// One positive match: raw polarity 1.0 damped to 0.65.
	assert.InDelta(t, 0.65, s.Score(ctx, "good"), 1e-9)
}

func TestScore_CountsScorerCalls(t *testing.T) {
	s := New()
	before := testutil.ToFloat64(metrics.ScorerCalls.WithLabelValues("lexicon", "success"))

	s.Score(context.Background(), "good")
	s.Score(context.Background(), "")

	assert.Equal(t, before+2, testutil.ToFloat64(metrics.ScorerCalls.WithLabelValues("lexicon", "success")))
}

func TestScore_Deterministic(t *testing.T) {
	s := New()
	ctx := context.Background()

	text := "strong growth, expecting more gains"
	first := s.Score(ctx, text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.Score(ctx, text))
	}
}
