package social

import "time"

// Post is one raw social-media row. Zero or more per (ticker, day).
// Posts are never persisted downstream; only the derived score survives.
type Post struct {
	Ticker string
	Date   time.Time // day granularity, UTC midnight
	Text   string

	// Score is filled in by the pipeline's scoring stage.
	Score float64
}

// DailySentiment is the mean post score for one (ticker, day).
// If no posts exist for a day, no DailySentiment exists either — absence is
// meaningful input to the decay step, distinct from a 0.0 score.
type DailySentiment struct {
	Ticker string
	Date   time.Time
	Score  float64 // [-1, 1]
}
