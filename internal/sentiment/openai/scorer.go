// Package openai provides an LLM-backed polarity scorer using the official
// OpenAI Go SDK.
package openai

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

const systemPrompt = `You rate the market sentiment of a social media post about a stock.
Respond with a single number between -1.0 (extremely negative) and 1.0 (extremely positive). Nothing else.`

// Scorer scores text via a chat completion per post.
// Per the scoring contract, any API failure yields a neutral 0.0 rather
// than an error; failures are logged and counted by the caller's metrics.
type Scorer struct {
	client  openai.Client
	model   openai.ChatModel
	timeout time.Duration
	log     *logger.Logger
}

// New creates an OpenAI-backed scorer.
func New(apiKey string, model string) (*Scorer, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "openai API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Scorer{
		client:  client,
		model:   openai.ChatModel(model),
		timeout: 15 * time.Second,
		log:     logger.Get().With("component", "openai_scorer", "model", model),
	}, nil
}

// Name identifies the scorer implementation.
func (s *Scorer) Name() string { return "openai" }

// Score returns a polarity score in [-1, 1]; 0.0 on empty input or any
// API/parse failure.
func (s *Scorer) Score(ctx context.Context, text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		s.log.Warnf("scoring call failed, treating as neutral: %v", err)
		metrics.ScorerCalls.WithLabelValues(s.Name(), "neutral_fallback").Inc()
		return 0
	}

	if len(resp.Choices) == 0 {
		metrics.ScorerCalls.WithLabelValues(s.Name(), "neutral_fallback").Inc()
		return 0
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(resp.Choices[0].Message.Content), 64)
	if err != nil {
		s.log.Warnf("unparseable score %q, treating as neutral", resp.Choices[0].Message.Content)
		metrics.ScorerCalls.WithLabelValues(s.Name(), "neutral_fallback").Inc()
		return 0
	}

	metrics.ScorerCalls.WithLabelValues(s.Name(), "success").Inc()
	return clamp(value)
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
