package pipeline

import (
	"sort"
	"strings"
	"time"

	"marketpulse/internal/domain/asset"
	"marketpulse/internal/domain/social"
)

// dayOf truncates a timestamp to UTC midnight. The readers already
// normalize file dates, but callers handing the pipeline in-memory input may
// not, and a stray time-of-day would silently miss every join.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// aggregateDaily reduces scored posts to one mean score per (ticker, day).
// Days with no posts simply have no entry; that absence is what the decay
// fill interprets downstream.
func aggregateDaily(posts []social.Post) map[string]map[time.Time]float64 {
	type bucket struct {
		sum   float64
		count int
	}

	acc := make(map[string]map[time.Time]*bucket)
	for _, post := range posts {
		ticker := strings.ToUpper(strings.TrimSpace(post.Ticker))
		if ticker == "" {
			continue
		}
		days, ok := acc[ticker]
		if !ok {
			days = make(map[time.Time]*bucket)
			acc[ticker] = days
		}
		date := dayOf(post.Date)
		b, ok := days[date]
		if !ok {
			b = &bucket{}
			days[date] = b
		}
		b.sum += post.Score
		b.count++
	}

	daily := make(map[string]map[time.Time]float64, len(acc))
	for ticker, days := range acc {
		out := make(map[time.Time]float64, len(days))
		for day, b := range days {
			out[day] = b.sum / float64(b.count)
		}
		daily[ticker] = out
	}
	return daily
}

// fuse left-joins daily sentiment onto the price bars of one ticker and
// applies the decay fill. Price rows are authoritative: sentiment on days
// without a bar is dropped, bars without sentiment get the decayed value.
func fuse(ticker string, bars []asset.PriceBar, daily map[time.Time]float64, window int) *asset.Record {
	sorted := make([]asset.PriceBar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	rows := make([]asset.Row, len(sorted))
	observed := make([]bool, len(sorted))
	for i, bar := range sorted {
		date := dayOf(bar.Date)
		rows[i] = asset.Row{
			Date:     date,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   bar.Volume,
		}
		if score, ok := daily[date]; ok {
			rows[i].DailySentiment = score
			observed[i] = true
		}
	}

	decayFill(rows, observed, window)

	return &asset.Record{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), Rows: rows}
}

// decayFill carries the last observed sentiment forward for at most window
// rows; rows further from an observation stay neutral 0.0. The carried value
// is unchanged, the "decay" is the hard cutoff.
func decayFill(rows []asset.Row, observed []bool, window int) {
	last := 0.0
	lastIdx := -(window + 1) // no row is within reach of a fictitious observation
	for i := range rows {
		if observed[i] {
			last = rows[i].DailySentiment
			lastIdx = i
			continue
		}
		if i-lastIdx <= window {
			rows[i].DailySentiment = last
		} else {
			rows[i].DailySentiment = 0
		}
	}
}
