package main

// Script to sanity-check a raw source pair before pointing the pipeline at it.
// Reads both CSVs with the same parser the pipeline uses and prints row
// counts, the ticker universe and every malformed row.
//
// Usage:
//   go run scripts/inspect_sources.go --prices data/stock_yfinance_data.csv --posts data/stock_tweets.csv

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"marketpulse/internal/ingest"
)

func main() {
	pricesPath := flag.String("prices", "data/stock_yfinance_data.csv", "Price history CSV")
	postsPath := flag.String("posts", "data/stock_tweets.csv", "Social post CSV")
	flag.Parse()

	bars, priceDefects, err := ingest.ReadPriceCSV(*pricesPath)
	if err != nil {
		fmt.Printf("Error: price source unreadable: %v\n", err)
		os.Exit(1)
	}

	posts, postDefects, err := ingest.ReadPostCSV(*postsPath)
	if err != nil {
		fmt.Printf("Error: post source unreadable: %v\n", err)
		os.Exit(1)
	}

	barsPerTicker := make(map[string]int)
	for _, bar := range bars {
		barsPerTicker[bar.Ticker]++
	}
	postsPerTicker := make(map[string]int)
	for _, post := range posts {
		postsPerTicker[post.Ticker]++
	}

	tickers := make([]string, 0, len(barsPerTicker))
	for ticker := range barsPerTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	fmt.Println("Raw Source Inspection")
	fmt.Println("=====================")
	fmt.Printf("Price rows: %d (%d malformed)\n", len(bars), len(priceDefects))
	fmt.Printf("Post rows:  %d (%d malformed)\n", len(posts), len(postDefects))
	fmt.Println("")

	fmt.Printf("%-10s %8s %8s\n", "Ticker", "Bars", "Posts")
	for _, ticker := range tickers {
		fmt.Printf("%-10s %8d %8d\n", ticker, barsPerTicker[ticker], postsPerTicker[ticker])
	}

	orphaned := 0
	for ticker := range postsPerTicker {
		if _, ok := barsPerTicker[ticker]; !ok {
			orphaned++
			fmt.Printf("Warning: %s has posts but no price history, will be dropped\n", ticker)
		}
	}

	if len(priceDefects) > 0 {
		fmt.Println("\nMalformed price rows (their tickers will be skipped):")
		for _, defect := range priceDefects {
			fmt.Printf("  %v\n", defect)
		}
	}
	if len(postDefects) > 0 {
		fmt.Println("\nMalformed post rows (dropped, run continues):")
		for _, defect := range postDefects {
			fmt.Printf("  %v\n", defect)
		}
	}

	if len(priceDefects) == 0 && len(postDefects) == 0 && orphaned == 0 {
		fmt.Println("\nSources look clean")
	}
}
