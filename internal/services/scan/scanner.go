// Package scan implements the cross-asset opportunity scanner: for a given
// calendar month and sentiment preference it ranks tickers by historical
// monthly return among those whose average sentiment sits in the preference
// band.
package scan

import (
	"context"
	"sort"
	"strings"
	"time"

	"marketpulse/internal/domain/asset"
	"marketpulse/internal/events"
	"marketpulse/internal/metrics"
	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Opportunity is one scanner hit. AvgMonthlyReturn is the mean daily return
// inside the month scaled by 30, a coarse holding-period estimate rather
// than a calendar-exact compounding.
type Opportunity struct {
	Ticker           string  `json:"ticker"`
	AvgMonthlyReturn float64 `json:"avg_monthly_return"`
	AvgSentiment     float64 `json:"avg_sentiment"`
	WinRate          float64 `json:"win_rate"`
}

// Scanner ranks persisted assets for a month/sentiment query.
type Scanner struct {
	store  asset.Store
	events *events.Publisher
	log    *logger.Logger
}

// NewScanner creates a new opportunity scanner
func NewScanner(store asset.Store, publisher *events.Publisher) *Scanner {
	return &Scanner{
		store:  store,
		events: publisher,
		log:    logger.Get().With("component", "scanner"),
	}
}

// Scan evaluates every available ticker for the given month (an English
// month name, case-insensitive) and sentiment preference in [-1, 1].
// Tickers with no rows in that month are absent from the result; an empty
// result is a legal answer, not an error. Results are sorted by
// AvgMonthlyReturn descending.
func (s *Scanner) Scan(ctx context.Context, month string, sentimentPref float64) ([]Opportunity, error) {
	if sentimentPref < -1 || sentimentPref > 1 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "sentiment preference %v outside [-1, 1]", sentimentPref)
	}

	start := time.Now()

	tickers, err := s.store.ListAvailable(ctx)
	if err != nil {
		metrics.ScanRequests.WithLabelValues("error").Inc()
		return nil, errors.Wrap(err, "failed to list assets")
	}

	opportunities := make([]Opportunity, 0)
	for _, ticker := range tickers {
		record, err := s.store.Load(ctx, ticker)
		if err != nil {
			s.log.Errorf("Skipping %s in scan: %v", ticker, err)
			continue
		}

		opp, ok := s.evaluate(record, month, sentimentPref)
		if ok {
			opportunities = append(opportunities, opp)
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].AvgMonthlyReturn > opportunities[j].AvgMonthlyReturn
	})

	metrics.ScanRequests.WithLabelValues("success").Inc()
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	if s.events != nil && len(opportunities) > 0 {
		event := events.OpportunitiesFoundEvent{
			Month:               month,
			SentimentPreference: sentimentPref,
			At:                  time.Now().UTC(),
		}
		for _, opp := range opportunities {
			event.Opportunities = append(event.Opportunities, events.OpportunityEvent{
				Ticker:           opp.Ticker,
				AvgMonthlyReturn: opp.AvgMonthlyReturn,
				AvgSentiment:     opp.AvgSentiment,
				WinRate:          opp.WinRate,
			})
		}
		s.events.PublishOpportunitiesFound(ctx, event)
	}

	return opportunities, nil
}

// evaluate computes the month slice of one record. Returns are taken over
// the full history first, so the first day of a month measures against the
// prior trading day, then filtered to the target month.
func (s *Scanner) evaluate(record *asset.Record, month string, sentimentPref float64) (Opportunity, bool) {
	returns := record.Returns()

	var (
		sentiments []float64
		rets       []float64
	)
	for i, row := range record.Rows {
		if !strings.EqualFold(row.Date.Month().String(), month) {
			continue
		}
		sentiments = append(sentiments, row.DailySentiment)
		if i >= 1 {
			rets = append(rets, returns[i-1])
		}
	}

	if len(sentiments) == 0 {
		return Opportunity{}, false
	}

	avgSentiment := mean(sentiments)
	if !withinBand(avgSentiment, sentimentPref) {
		return Opportunity{}, false
	}

	opp := Opportunity{
		Ticker:       record.Ticker,
		AvgSentiment: avgSentiment,
	}
	if len(rets) > 0 {
		opp.AvgMonthlyReturn = mean(rets) * 30
		wins := 0
		for _, r := range rets {
			if r > 0 {
				wins++
			}
		}
		// The denominator is every row in the month, not just rows with a
		// defined return: a first trading day with no prior close counts
		// against the win rate.
		opp.WinRate = float64(wins) / float64(len(sentiments))
	}

	return opp, true
}

// withinBand applies the asymmetric preference band: a bullish preference
// admits anything not much less positive, a bearish one anything not much
// less negative.
func withinBand(avgSentiment, pref float64) bool {
	if pref >= 0 {
		return avgSentiment >= pref-0.2
	}
	return avgSentiment <= pref+0.2
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
