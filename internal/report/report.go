package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// SheetName is the worksheet holding the items.
const SheetName = "Heatmap"

// Options describes the chart the items were built for.
type Options struct {
	ChartType   model.ChartType
	TimeGap     model.TimeGap
	Currency    model.Currency
	GeneratedAt time.Time
}

var header = []any{"#", "Gift", "Price", "Currency", "Change %", "Market Cap", "Weight", "Image"}

// Write encodes items as an xlsx workbook into w.
func Write(w io.Writer, items []model.VisualizationItem, opts Options) error {
	f, err := Build(items, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build returns the workbook for items. The caller closes it.
func Build(items []model.VisualizationItem, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := fill(f, items, opts); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func fill(f *excelize.File, items []model.VisualizationItem, opts Options) error {
	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "H1", styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, it := range items {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []any{i + 1, it.DisplayName, it.Price, opts.Currency.String(), it.PercentChange, it.MarketCap, it.Size, it.ImageRef}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}

		change := fmt.Sprintf("E%d", row)
		style := styles.neutral
		switch {
		case it.PercentChange > 0:
			style = styles.positive
		case it.PercentChange < 0:
			style = styles.negative
		}
		if err := f.SetCellStyle(SheetName, change, change, style); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "H", "H", 48); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return f.SetDocProps(&excelize.DocProperties{
		Title:       "Gift heatmap",
		Subject:     fmt.Sprintf("%s %s %s", opts.ChartType, opts.TimeGap, opts.Currency),
		Created:     generated.UTC().Format(time.RFC3339),
		Creator:     "gift-heatmap",
		Description: fmt.Sprintf("%d gifts", len(items)),
	})
}

type styleSet struct {
	header, positive, negative, neutral int
}

func newStyles(f *excelize.File) (styleSet, error) {
	var s styleSet
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F2937"}},
	}); err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}
	for _, c := range []struct {
		dst   *int
		color string
	}{
		{&s.positive, "018F35"},
		{&s.negative, "DC2626"},
		{&s.neutral, "8F9779"},
	} {
		if *c.dst, err = f.NewStyle(&excelize.Style{
			Font:   &excelize.Font{Bold: true, Color: c.color},
			NumFmt: 2, // 0.00
		}); err != nil {
			return s, fmt.Errorf("change style: %w", err)
		}
	}
	return s, nil
}
