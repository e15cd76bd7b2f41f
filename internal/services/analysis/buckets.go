package analysis

import "context"

const bucketCount = 10

// Bucket is one cell of the sentiment backtest: rows whose daily sentiment
// fell in [Low, High) and the mean return realized on the following day.
type Bucket struct {
	Low               float64 `json:"low"`
	High              float64 `json:"high"`
	Samples           int     `json:"samples"`
	MeanNextDayReturn float64 `json:"mean_next_day_return"`
}

// BucketReport summarizes how well daily sentiment predicted next-day moves
// for one ticker. Best and Worst are nil when no bucket has samples.
type BucketReport struct {
	Ticker  string   `json:"ticker"`
	Buckets []Bucket `json:"buckets"`
	Best    *Bucket  `json:"best,omitempty"`
	Worst   *Bucket  `json:"worst,omitempty"`
}

// SentimentBuckets bins the record's rows into ten 0.2-wide sentiment
// buckets across [-1, 1] and averages the next trading day's return inside
// each. The last row has no next day and is excluded.
func (s *Service) SentimentBuckets(ctx context.Context, ticker string) (*BucketReport, error) {
	record, err := s.store.Load(ctx, ticker)
	if err != nil {
		return nil, err
	}

	report := &BucketReport{Ticker: record.Ticker, Buckets: make([]Bucket, bucketCount)}
	for i := range report.Buckets {
		report.Buckets[i].Low = -1 + 0.2*float64(i)
		report.Buckets[i].High = report.Buckets[i].Low + 0.2
	}

	sums := make([]float64, bucketCount)
	returns := record.Returns() // returns[i] is the move from row i to row i+1
	for i := 0; i < len(record.Rows)-1; i++ {
		idx := bucketIndex(record.Rows[i].DailySentiment)
		report.Buckets[idx].Samples++
		sums[idx] += returns[i]
	}

	for i := range report.Buckets {
		if report.Buckets[i].Samples > 0 {
			report.Buckets[i].MeanNextDayReturn = sums[i] / float64(report.Buckets[i].Samples)
		}
	}

	for i := range report.Buckets {
		b := &report.Buckets[i]
		if b.Samples == 0 {
			continue
		}
		if report.Best == nil || b.MeanNextDayReturn > report.Best.MeanNextDayReturn {
			report.Best = b
		}
		if report.Worst == nil || b.MeanNextDayReturn < report.Worst.MeanNextDayReturn {
			report.Worst = b
		}
	}

	return report, nil
}

// bucketIndex maps a score in [-1, 1] to its bin; +1.0 lands in the top bin.
func bucketIndex(score float64) int {
	idx := int((score + 1) / 0.2)
	if idx < 0 {
		idx = 0
	}
	if idx >= bucketCount {
		idx = bucketCount - 1
	}
	return idx
}
