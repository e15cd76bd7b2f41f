// Package lexicon provides a deterministic keyword-based polarity scorer.
// It is the default implementation; when an LLM backend is configured the
// pipeline uses that instead.
package lexicon

import (
	"context"
	"math"
	"strings"
	"unicode"

	"marketpulse/internal/metrics"
)

// positive / negative term weights (lowercase). Multi-word phrases are
// matched by substring before tokenization.
var positiveWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7,
	"upbeat": 0.5, "positive": 0.4, "growth": 0.4, "upgrade": 0.6,
	"outperform": 0.6, "buy": 0.5, "strong": 0.4, "recovery": 0.5,
	"breakout": 0.6, "beat": 0.5, "beats": 0.5, "exceeds": 0.5,
	"profit": 0.3, "profits": 0.3, "dividend": 0.4, "gain": 0.4,
	"gains": 0.4, "win": 0.4, "great": 0.4, "good": 0.3,
	"love": 0.5, "moon": 0.6, "rocket": 0.5, "undervalued": 0.5,
}

var negativeWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"losses": 0.4, "selloff": 0.7, "fall": 0.4, "falls": 0.4,
	"drop": 0.4, "drops": 0.4, "correction": 0.5, "default": 0.7,
	"fraud": 0.8, "scam": 0.8, "investigation": 0.5, "lawsuit": 0.5,
	"miss": 0.5, "misses": 0.5, "warning": 0.5, "concern": 0.3,
	"bad": 0.3, "terrible": 0.6, "overvalued": 0.5, "bankruptcy": 0.8,
	"bankrupt": 0.8, "dump": 0.5, "fear": 0.5,
}

var phrases = map[string]float64{
	"record high":    0.7,
	"all-time high":  0.7,
	"all time high":  0.7,
	"record low":     -0.6,
	"all-time low":   -0.6,
	"beats estimate": 0.6,
	"short squeeze":  0.4,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "isn't": true, "wasn't": true,
	"don't": true, "doesn't": true, "won't": true, "can't": true,
	"without": true, "hardly": true,
}

// Scorer scores text against the keyword dictionaries.
// Stateless and safe for concurrent use.
type Scorer struct{}

// New creates a lexicon scorer.
func New() *Scorer {
	return &Scorer{}
}

// Name identifies the scorer implementation.
func (s *Scorer) Name() string { return "lexicon" }

// Score returns a polarity score in [-1, 1]. Empty or unscorable text
// yields 0.0; this scorer cannot fail.
func (s *Scorer) Score(_ context.Context, text string) float64 {
	metrics.ScorerCalls.WithLabelValues(s.Name(), "success").Inc()

	if strings.TrimSpace(text) == "" {
		return 0
	}

	lower := strings.ToLower(text)

	var pos, neg float64
	matches := 0

	for phrase, weight := range phrases {
		if strings.Contains(lower, phrase) {
			if weight > 0 {
				pos += weight
			} else {
				neg += -weight
			}
			matches++
		}
	}

	tokens := tokenize(lower)
	for i, tok := range tokens {
		weight, isPos := positiveWords[tok]
		if !isPos {
			weight = negativeWords[tok]
			if weight == 0 {
				continue
			}
		}

		// A negation directly before the term flips its polarity.
		negated := i > 0 && negations[tokens[i-1]]
		if isPos != negated {
			pos += weight
		} else {
			neg += weight
		}
		matches++
	}

	if matches == 0 || pos+neg == 0 {
		return 0
	}

	// Net score normalized to [-1, 1], damped for low match counts so a
	// single keyword does not read as an extreme signal.
	raw := (pos - neg) / (pos + neg)
	intensity := math.Min(float64(matches)*0.35+0.3, 1.0)
	return raw * intensity
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}
