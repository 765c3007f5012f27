package model

import (
	"strings"
)

// RegularMarker prefixes the name of a regular (un-upgraded) gift in the market feed.
const RegularMarker = "[Regular] "

// RegularPrefix annotates regular gifts when both kinds are shown together.
const RegularPrefix = "(R) "

// NotApplicable is the market-cap display value for items that have no market cap.
const NotApplicable = "-"

// -----------------------------------------------------------------------------
// Input Types
// -----------------------------------------------------------------------------

// GiftMarketRecord is one gift as reported by the market feed.
type GiftMarketRecord struct {
	Name  string `json:"name" db:"name"`
	Image string `json:"image" db:"image"` // URL or image identifier

	PriceTon float64 `json:"priceTon" db:"price_ton"`
	PriceUsd float64 `json:"priceUsd" db:"price_usd"`

	// Historical prices per window and currency.
	TonPrice24hAgo   *float64 `json:"tonPrice24hAgo,omitempty" db:"ton_price_24h_ago"`
	UsdPrice24hAgo   *float64 `json:"usdPrice24hAgo,omitempty" db:"usd_price_24h_ago"`
	TonPriceWeekAgo  *float64 `json:"tonPriceWeekAgo,omitempty" db:"ton_price_week_ago"`
	UsdPriceWeekAgo  *float64 `json:"usdPriceWeekAgo,omitempty" db:"usd_price_week_ago"`
	TonPriceMonthAgo *float64 `json:"tonPriceMonthAgo,omitempty" db:"ton_price_month_ago"`
	UsdPriceMonthAgo *float64 `json:"usdPriceMonthAgo,omitempty" db:"usd_price_month_ago"`

	MarketCapTon   string `json:"marketCapTon" db:"market_cap_ton"`
	MarketCapUsd   string `json:"marketCapUsd" db:"market_cap_usd"`
	UpgradedSupply int64  `json:"upgradedSupply" db:"upgraded_supply"`
	PreSale        bool   `json:"preSale" db:"pre_sale"`
}

// IsRegular reports whether the record describes a regular (un-upgraded) gift.
func (r GiftMarketRecord) IsRegular() bool {
	return strings.HasPrefix(r.Name, RegularMarker)
}

// BaseName returns the name with the regular marker stripped.
func (r GiftMarketRecord) BaseName() string {
	return strings.TrimPrefix(r.Name, RegularMarker)
}

// Price returns the current price in the given currency.
func (r GiftMarketRecord) Price(c Currency) float64 {
	if c == CurrencyUSD {
		return r.PriceUsd
	}
	return r.PriceTon
}

// PriceAgo returns the historical price for the window and currency, or nil when absent.
func (r GiftMarketRecord) PriceAgo(c Currency, g TimeGap) *float64 {
	switch {
	case c == CurrencyUSD && g == TimeGapWeek:
		return r.UsdPriceWeekAgo
	case c == CurrencyUSD && g == TimeGapMonth:
		return r.UsdPriceMonthAgo
	case c == CurrencyUSD:
		return r.UsdPrice24hAgo
	case g == TimeGapWeek:
		return r.TonPriceWeekAgo
	case g == TimeGapMonth:
		return r.TonPriceMonthAgo
	default:
		return r.TonPrice24hAgo
	}
}

// MarketCap returns the compact market-cap string in the given currency.
func (r GiftMarketRecord) MarketCap(c Currency) string {
	if c == CurrencyUSD {
		return r.MarketCapUsd
	}
	return r.MarketCapTon
}

// -----------------------------------------------------------------------------
// Derived Types
// -----------------------------------------------------------------------------

// VisualizationItem is one treemap cell's worth of data.
type VisualizationItem struct {
	Name          string  `json:"name"`        // raw feed name, used to derive alternate image paths
	DisplayName   string  `json:"displayName"` // annotated for combined views
	PercentChange float64 `json:"percentChange"`
	Size          float64 `json:"size"`
	ImageRef      string  `json:"image"`
	Price         float64 `json:"price"`
	MarketCap     string  `json:"marketCap"` // compact string or NotApplicable
}

// HasMarketCap reports whether the item carries a market-cap value worth displaying.
func (i VisualizationItem) HasMarketCap() bool {
	return i.MarketCap != "" && i.MarketCap != NotApplicable
}
