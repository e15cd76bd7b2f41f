// Package format renders numeric values for dashboard payloads.
package format

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Currency formats 1234.56 as "$1,234.56"
func Currency(value float64) string {
	return "$" + humanize.FormatFloat("#,###.##", value)
}

// Percent formats 0.0512 as "5.12%"
func Percent(value float64) string {
	return fmt.Sprintf("%.2f%%", value*100)
}

// CompactNumber formats large values into readable strings (K, M, B).
// Example: 1500000 -> "1.5M"
func CompactNumber(value float64) string {
	switch {
	case value >= 1e9:
		return fmt.Sprintf("%.1fB", value/1e9)
	case value >= 1e6:
		return fmt.Sprintf("%.1fM", value/1e6)
	case value >= 1e3:
		return fmt.Sprintf("%.1fK", value/1e3)
	default:
		return humanize.CommafWithDigits(value, 0)
	}
}
