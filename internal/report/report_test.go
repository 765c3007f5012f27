package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/rickgao/gift-heatmap/internal/model"
)

func TestWrite(t *testing.T) {
	items := []model.VisualizationItem{
		{Name: "Plush Pepe", DisplayName: "Plush Pepe", PercentChange: 12.5, Size: 12.5, ImageRef: "https://img/plushpepe.png", Price: 5200, MarketCap: "12.5M"},
		{Name: "[Regular] Cake", DisplayName: "(R) Cake", PercentChange: -3.25, Size: 3.25, ImageRef: "cake", Price: 4.2, MarketCap: model.NotApplicable},
	}

	var buf bytes.Buffer
	err := Write(&buf, items, Options{
		ChartType:   model.ChartMovement,
		TimeGap:     model.TimeGap24h,
		Currency:    model.CurrencyTON,
		GeneratedAt: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	want := [][]string{
		{"#", "Gift", "Price", "Currency", "Change %", "Market Cap", "Weight", "Image"},
		{"1", "Plush Pepe", "5200", "ton", "12.5", "12.5M", "12.5", "https://img/plushpepe.png"},
		{"2", "(R) Cake", "4.2", "ton", "-3.25", "-", "3.25", "cake"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	props, err := f.GetDocProps()
	if err != nil {
		t.Fatalf("GetDocProps() error = %v", err)
	}
	if props.Description != "2 gifts" {
		t.Errorf("Description = %q, want %q", props.Description, "2 gifts")
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, Options{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetName)
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want header only", len(rows))
	}
}
