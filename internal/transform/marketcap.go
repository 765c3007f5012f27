package transform

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

// ParseMarketCap parses a compact market-cap string such as "203.07K" or "1.5M".
// Commas and surrounding whitespace are ignored. Malformed or negative input yields 0.
func ParseMarketCap(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return 0
	}

	mult := decimal.NewFromInt(1)
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = thousand
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = million
		s = s[:len(s)-1]
	case 'B', 'b':
		mult = billion
		s = s[:len(s)-1]
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.Mul(mult).InexactFloat64()
}

// round2 rounds half away from zero to two decimals.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
