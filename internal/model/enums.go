package model

import "fmt"

// ChartType selects what cell size encodes.
type ChartType int

const (
	ChartMovement ChartType = iota
	ChartCapitalization
)

// String returns the wire name of the chart type.
func (c ChartType) String() string {
	switch c {
	case ChartCapitalization:
		return "capitalization"
	default:
		return "movement"
	}
}

// ParseChartType parses a chart type name. An empty string yields the default.
func ParseChartType(s string) (ChartType, error) {
	switch s {
	case "", "movement", "change":
		return ChartMovement, nil
	case "capitalization", "marketCap", "marketcap":
		return ChartCapitalization, nil
	}
	return ChartMovement, fmt.Errorf("unknown chart type %q", s)
}

// TimeGap selects the historical window percentChange compares against.
type TimeGap int

const (
	TimeGap24h TimeGap = iota
	TimeGapWeek
	TimeGapMonth
)

// String returns the wire name of the window.
func (g TimeGap) String() string {
	switch g {
	case TimeGapWeek:
		return "1w"
	case TimeGapMonth:
		return "1m"
	default:
		return "24h"
	}
}

// ParseTimeGap parses a window name. An empty string yields 24h.
func ParseTimeGap(s string) (TimeGap, error) {
	switch s {
	case "", "24h":
		return TimeGap24h, nil
	case "1w":
		return TimeGapWeek, nil
	case "1m":
		return TimeGapMonth, nil
	}
	return TimeGap24h, fmt.Errorf("unknown time gap %q", s)
}

// Currency selects which price column is displayed.
type Currency int

const (
	CurrencyTON Currency = iota
	CurrencyUSD
)

// String returns the wire name of the currency.
func (c Currency) String() string {
	if c == CurrencyUSD {
		return "usd"
	}
	return "ton"
}

// ParseCurrency parses a currency name. An empty string yields TON.
func ParseCurrency(s string) (Currency, error) {
	switch s {
	case "", "ton", "TON":
		return CurrencyTON, nil
	case "usd", "USD":
		return CurrencyUSD, nil
	}
	return CurrencyTON, fmt.Errorf("unknown currency %q", s)
}

// DataSource selects which records are shown.
type DataSource int

const (
	SourceMarket  DataSource = iota // upgraded gifts only
	SourceRegular                   // regular gifts only
	SourceAll                       // both, regular ones annotated
)

// String returns the wire name of the data source.
func (s DataSource) String() string {
	switch s {
	case SourceRegular:
		return "regular"
	case SourceAll:
		return "all"
	default:
		return "market"
	}
}

// ParseDataSource parses a data source name. An empty string yields market.
func ParseDataSource(s string) (DataSource, error) {
	switch s {
	case "", "market":
		return SourceMarket, nil
	case "regular":
		return SourceRegular, nil
	case "all":
		return SourceAll, nil
	}
	return SourceMarket, fmt.Errorf("unknown data source %q", s)
}
