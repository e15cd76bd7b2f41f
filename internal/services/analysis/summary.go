package analysis

import (
	"context"
	"time"

	"marketpulse/internal/domain/asset"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/format"
)

// Summary is the latest-signal view for one ticker, pinned at a reference
// date so a dataset that ends in the past still renders.
type Summary struct {
	Ticker string    `json:"ticker"`
	AsOf   time.Time `json:"as_of"`

	LatestDate      time.Time `json:"latest_date"`
	LatestClose     float64   `json:"latest_close"`
	DayChange       float64   `json:"day_change"`
	LatestVolume    float64   `json:"latest_volume"`
	LatestSentiment float64   `json:"latest_sentiment"`
	SentimentLabel  string    `json:"sentiment_label"`
	AvgSentiment7d  float64   `json:"avg_sentiment_7d"`

	LatestCloseDisplay  string `json:"latest_close_display"`
	DayChangeDisplay    string `json:"day_change_display"`
	LatestVolumeDisplay string `json:"latest_volume_display"`
}

// Summary returns the most recent row at or before asOf plus trailing
// context. A record with no rows in that window is treated as invalid input
// rather than missing: the ticker exists, the window is wrong.
func (s *Service) Summary(ctx context.Context, ticker string, asOf time.Time) (*Summary, error) {
	record, err := s.store.Load(ctx, ticker)
	if err != nil {
		return nil, err
	}

	idx := latestIndexAt(record, asOf)
	if idx < 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "no history for %s at or before %s", record.Ticker, asOf.Format("2006-01-02"))
	}

	latest := record.Rows[idx]
	summary := &Summary{
		Ticker:          record.Ticker,
		AsOf:            asOf,
		LatestDate:      latest.Date,
		LatestClose:     latest.Close,
		LatestVolume:    latest.Volume,
		LatestSentiment: latest.DailySentiment,
		SentimentLabel:  sentimentLabel(latest.DailySentiment),
	}

	if idx > 0 && record.Rows[idx-1].Close != 0 {
		prev := record.Rows[idx-1].Close
		summary.DayChange = (latest.Close - prev) / prev
	}

	trailing := 0.0
	count := 0
	for i := idx; i >= 0 && count < 7; i-- {
		trailing += record.Rows[i].DailySentiment
		count++
	}
	summary.AvgSentiment7d = trailing / float64(count)

	summary.LatestCloseDisplay = format.Currency(summary.LatestClose)
	summary.DayChangeDisplay = format.Percent(summary.DayChange)
	summary.LatestVolumeDisplay = format.CompactNumber(summary.LatestVolume)

	return summary, nil
}

// sentimentLabel maps a score to the dashboard's three-way signal; scores
// within ±0.05 of zero read as noise.
func sentimentLabel(score float64) string {
	switch {
	case score > 0.05:
		return "positive"
	case score < -0.05:
		return "negative"
	default:
		return "neutral"
	}
}

func latestIndexAt(record *asset.Record, asOf time.Time) int {
	for i := len(record.Rows) - 1; i >= 0; i-- {
		if !record.Rows[i].Date.After(asOf) {
			return i
		}
	}
	return -1
}
