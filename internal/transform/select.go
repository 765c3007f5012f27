package transform

import (
	"math"
	"sort"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// SelectOptions filters and orders a record batch before it is transformed.
type SelectOptions struct {
	Source    model.DataSource
	ChartType model.ChartType
	Currency  model.Currency
	TimeGap   model.TimeGap
	Top       int // 0 keeps every record
}

// Select drops presale records, keeps the records of the chosen source,
// orders them for the chart type, and truncates to Top.
// Capitalization orders by market cap descending. Movement puts records that
// moved first, by absolute change descending. The input is not modified.
func Select(records []model.GiftMarketRecord, opts SelectOptions) []model.GiftMarketRecord {
	out := make([]model.GiftMarketRecord, 0, len(records))
	for _, r := range records {
		if r.PreSale {
			continue
		}
		switch opts.Source {
		case model.SourceMarket:
			if r.IsRegular() {
				continue
			}
		case model.SourceRegular:
			if !r.IsRegular() {
				continue
			}
		}
		out = append(out, r)
	}

	currency := EffectiveCurrency(opts.Source, opts.Currency)

	if opts.ChartType == model.ChartCapitalization {
		sort.SliceStable(out, func(i, j int) bool {
			return ParseMarketCap(out[i].MarketCap(currency)) > ParseMarketCap(out[j].MarketCap(currency))
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			ci := math.Abs(PercentChange(out[i], currency, opts.TimeGap))
			cj := math.Abs(PercentChange(out[j], currency, opts.TimeGap))
			if (ci == 0) != (cj == 0) {
				return ci != 0
			}
			return ci > cj
		})
	}

	if opts.Top > 0 && len(out) > opts.Top {
		out = out[:opts.Top]
	}
	return out
}

// EffectiveCurrency returns the currency a source is displayed in.
// Regular gifts only trade in TON.
func EffectiveCurrency(source model.DataSource, c model.Currency) model.Currency {
	if source == model.SourceRegular {
		return model.CurrencyTON
	}
	return c
}

// BuildReference indexes upgraded gifts by name for regular-mode lookups.
func BuildReference(records []model.GiftMarketRecord) map[string]model.GiftMarketRecord {
	ref := make(map[string]model.GiftMarketRecord, len(records))
	for _, r := range records {
		if !r.IsRegular() {
			ref[r.Name] = r
		}
	}
	return ref
}

// OptionsFor builds transform options matching a selection.
func OptionsFor(sel SelectOptions, reference map[string]model.GiftMarketRecord) Options {
	return Options{
		ChartType:   sel.ChartType,
		TimeGap:     sel.TimeGap,
		Currency:    EffectiveCurrency(sel.Source, sel.Currency),
		RegularMode: sel.Source == model.SourceRegular,
		AllMode:     sel.Source == model.SourceAll,
		Reference:   reference,
	}
}
