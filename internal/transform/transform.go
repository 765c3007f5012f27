package transform

import (
	"math"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// Size floors per mode.
const (
	MovementFloor     = 6.0
	MovementFlat      = 12.0
	MovementThreshold = 4.0
	HoldingFloor      = 10.0
)

// Options selects how records become items.
type Options struct {
	ChartType   model.ChartType
	TimeGap     model.TimeGap
	Currency    model.Currency
	RegularMode bool // regular gifts only; sized by holding value
	AllMode     bool // regular and upgraded gifts together

	// Reference maps an upgraded gift's name to its record. In regular mode a
	// regular gift's change is taken from its upgraded counterpart when present.
	Reference map[string]model.GiftMarketRecord
}

// Transform converts records to visualization items in input order.
func Transform(records []model.GiftMarketRecord, opts Options) []model.VisualizationItem {
	items := make([]model.VisualizationItem, 0, len(records))
	for _, r := range records {
		items = append(items, transformOne(r, opts))
	}
	return items
}

func transformOne(r model.GiftMarketRecord, opts Options) model.VisualizationItem {
	price := finite(r.Price(opts.Currency))
	item := model.VisualizationItem{
		Name:        r.Name,
		DisplayName: displayName(r, opts.AllMode),
		ImageRef:    r.Image,
		Price:       price,
	}

	holding := opts.RegularMode && r.IsRegular()

	changeFrom := r
	if holding {
		if ref, ok := opts.Reference[r.BaseName()]; ok {
			changeFrom = ref
		}
	}
	item.PercentChange = PercentChange(changeFrom, opts.Currency, opts.TimeGap)

	switch {
	case holding:
		item.Size = HoldingSize(price)
		item.MarketCap = model.NotApplicable
	case opts.ChartType == model.ChartCapitalization:
		mc := r.MarketCap(opts.Currency)
		if mc == "" {
			mc = "0"
		}
		item.Size = CapitalizationSize(ParseMarketCap(mc))
		item.MarketCap = mc
	default:
		item.Size = MovementSize(item.PercentChange)
		item.MarketCap = r.MarketCap(opts.Currency)
		if item.MarketCap == "" {
			item.MarketCap = model.NotApplicable
		}
	}
	return item
}

// PercentChange compares the current price with the price at the window,
// rounded to two decimals. Missing history or a zero reference price yields 0.
func PercentChange(r model.GiftMarketRecord, c model.Currency, g model.TimeGap) float64 {
	current := finite(r.Price(c))
	previous := current
	if p := r.PriceAgo(c, g); p != nil {
		previous = finite(*p)
	}
	if previous == 0 {
		return 0
	}
	pc := (current - previous) / previous * 100
	if !isFinite(pc) {
		return 0
	}
	return round2(pc)
}

// MovementSize grows super-linearly with the magnitude of the change.
func MovementSize(pc float64) float64 {
	abs := math.Abs(pc)
	if !isFinite(abs) {
		return MovementFloor
	}
	if abs < MovementThreshold {
		return MovementFlat
	}
	return math.Max(MovementFloor, 3*math.Pow(abs+1, 1.4))
}

// CapitalizationSize is sqrt(marketCap)/100; a zero market cap yields 0.
func CapitalizationSize(marketCap float64) float64 {
	if !isFinite(marketCap) || marketCap <= 0 {
		return 0
	}
	return math.Sqrt(marketCap) / 100
}

// HoldingSize sizes a regular gift by its price.
func HoldingSize(price float64) float64 {
	if !isFinite(price) || price <= 0 {
		return HoldingFloor
	}
	return math.Max(HoldingFloor, math.Sqrt(price)*5)
}

func displayName(r model.GiftMarketRecord, allMode bool) string {
	if !r.IsRegular() {
		return r.Name
	}
	if allMode {
		return model.RegularPrefix + r.BaseName()
	}
	return r.BaseName()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}
