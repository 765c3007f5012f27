package market

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rickgao/gift-heatmap/internal/model"
)

// Source loads the full set of market records.
type Source interface {
	LoadRecords(ctx context.Context) ([]model.GiftMarketRecord, error)
}

// FileSource reads records from a JSON array on disk.
type FileSource struct {
	Path string
}

// LoadRecords implements Source.
func (f FileSource) LoadRecords(ctx context.Context) ([]model.GiftMarketRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read market file: %w", err)
	}
	var records []model.GiftMarketRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse market file %s: %w", f.Path, err)
	}
	return records, nil
}
