// Package ingest reads the two fixed raw sources: a price history CSV and a
// social post CSV. Both carry a `Stock Name` ticker column and a `Date`
// column that may include a time-of-day; dates are normalized to UTC
// midnight so price and sentiment align on whole days, not instants.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"marketpulse/internal/domain/asset"
	"marketpulse/internal/domain/social"
	"marketpulse/pkg/errors"
)

// RowError records a malformed row. Malformed rows never abort ingestion;
// the pipeline decides per ticker what to do with them.
type RowError struct {
	Line   int
	Ticker string
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (ticker %q): %v", e.Line, e.Ticker, e.Err)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
}

// ParseDay parses a date string and truncates it to UTC midnight.
func ParseDay(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errors.Newf("unparseable date %q", value)
}

// ReadPriceCSV loads price bars from path. A missing or unreadable file is
// fatal (ErrSourceMissing); individual malformed rows are returned as
// RowErrors alongside the good rows.
func ReadPriceCSV(path string) ([]asset.PriceBar, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrSourceMissing, "price source %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrSourceMissing, "price source %s: %v", path, err)
	}

	col := indexColumns(header)
	required := []string{"Stock Name", "Date", "Close"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, nil, errors.Wrapf(errors.ErrSourceMissing, "price source %s: missing column %q", path, name)
		}
	}

	var (
		bars     []asset.PriceBar
		rowErrs  []RowError
		lineNo   = 1
		parseOpt = func(record []string, name string) float64 {
			idx, ok := col[name]
			if !ok || idx >= len(record) {
				return 0
			}
			v, _ := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			return v
		}
	)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Err: err})
			continue
		}

		ticker := strings.TrimSpace(record[col["Stock Name"]])
		date, err := ParseDay(record[col["Date"]])
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Ticker: ticker, Err: err})
			continue
		}

		closePrice, err := strconv.ParseFloat(strings.TrimSpace(record[col["Close"]]), 64)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Ticker: ticker, Err: errors.Newf("non-numeric close %q", record[col["Close"]])})
			continue
		}

		bars = append(bars, asset.PriceBar{
			Ticker:   ticker,
			Date:     date,
			Open:     parseOpt(record, "Open"),
			High:     parseOpt(record, "High"),
			Low:      parseOpt(record, "Low"),
			Close:    closePrice,
			AdjClose: parseOpt(record, "Adj Close"),
			Volume:   parseOpt(record, "Volume"),
		})
	}

	return bars, rowErrs, nil
}

// ReadPostCSV loads social posts from path. A missing or unreadable file is
// fatal (ErrSourceMissing); malformed rows are skipped with a RowError. An
// empty Tweet cell is kept — it scores neutral downstream.
func ReadPostCSV(path string) ([]social.Post, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrSourceMissing, "post source %s: %v", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tweet text may embed stray quoting artifacts
	header, err := r.Read()
	if err != nil {
		return nil, nil, errors.Wrapf(errors.ErrSourceMissing, "post source %s: %v", path, err)
	}

	col := indexColumns(header)
	for _, name := range []string{"Stock Name", "Date", "Tweet"} {
		if _, ok := col[name]; !ok {
			return nil, nil, errors.Wrapf(errors.ErrSourceMissing, "post source %s: missing column %q", path, name)
		}
	}

	var (
		posts   []social.Post
		rowErrs []RowError
		lineNo  = 1
	)

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Err: err})
			continue
		}
		if col["Stock Name"] >= len(record) || col["Date"] >= len(record) || col["Tweet"] >= len(record) {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Err: errors.New("short record")})
			continue
		}

		ticker := strings.TrimSpace(record[col["Stock Name"]])
		date, err := ParseDay(record[col["Date"]])
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: lineNo, Ticker: ticker, Err: err})
			continue
		}

		posts = append(posts, social.Post{
			Ticker: ticker,
			Date:   date,
			Text:   record[col["Tweet"]],
		})
	}

	return posts, rowErrs, nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}
