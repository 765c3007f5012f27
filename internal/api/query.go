package api

import (
	"fmt"
	"strconv"

	"github.com/rickgao/gift-heatmap/internal/model"
	"github.com/rickgao/gift-heatmap/internal/transform"
)

// HeatmapQuery holds the chart selection shared by every heatmap route.
type HeatmapQuery struct {
	ChartType string `form:"chartType"`
	TimeGap   string `form:"timeGap"`
	Currency  string `form:"currency"`
	Source    string `form:"source"`
	Top       string `form:"top"`
	Width     int    `form:"width"`
	Height    int    `form:"height"`
}

// Selection parses the query into selection options.
func (q HeatmapQuery) Selection() (transform.SelectOptions, error) {
	var sel transform.SelectOptions
	var err error
	if sel.ChartType, err = model.ParseChartType(q.ChartType); err != nil {
		return sel, err
	}
	if sel.TimeGap, err = model.ParseTimeGap(q.TimeGap); err != nil {
		return sel, err
	}
	if sel.Currency, err = model.ParseCurrency(q.Currency); err != nil {
		return sel, err
	}
	if sel.Source, err = model.ParseDataSource(q.Source); err != nil {
		return sel, err
	}
	if sel.Top, err = parseTop(q.Top); err != nil {
		return sel, err
	}
	return sel, nil
}

func parseTop(s string) (int, error) {
	switch s {
	case "", "all":
		return 0, nil
	case "50", "35", "25":
		return strconv.Atoi(s)
	}
	return 0, fmt.Errorf("unknown top %q", s)
}
