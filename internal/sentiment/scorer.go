// Package sentiment defines the polarity scoring contract.
package sentiment

import "context"

// Scorer maps a text to a polarity score in [-1, 1]: sign is direction,
// magnitude is intensity. Implementations must return 0.0 (neutral) for
// malformed, non-text, or empty input rather than fail — scoring never
// aborts the pipeline. Implementations must be safe for concurrent use.
type Scorer interface {
	Name() string
	Score(ctx context.Context, text string) float64
}

// Func adapts a plain function to the Scorer interface.
type Func func(ctx context.Context, text string) float64

func (f Func) Name() string { return "func" }

func (f Func) Score(ctx context.Context, text string) float64 { return f(ctx, text) }
