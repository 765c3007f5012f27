package market

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/gift-heatmap/internal/database"
	"github.com/rickgao/gift-heatmap/internal/model"
)

// DB is the subset of *pgxpool.Pool used by PostgresSource.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresSource reads records from a gift market table.
type PostgresSource struct {
	db    DB
	table string
}

// NewPostgresSource creates a source over table.
func NewPostgresSource(db DB, table string) *PostgresSource {
	return &PostgresSource{db: db, table: table}
}

// LoadRecords implements Source.
func (s *PostgresSource) LoadRecords(ctx context.Context) ([]model.GiftMarketRecord, error) {
	rows, err := s.db.Query(ctx, selectQuery(s.table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.GiftMarketRecord])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.table, err)
	}
	return records, nil
}

// Upsert writes records, replacing rows with the same name. It returns the
// number of rows written.
func (s *PostgresSource) Upsert(ctx context.Context, records []model.GiftMarketRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now()
	q := upsertQuery(s.table)
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(q,
			r.Name, r.Image, r.PriceTon, r.PriceUsd,
			r.TonPrice24hAgo, r.UsdPrice24hAgo,
			r.TonPriceWeekAgo, r.UsdPriceWeekAgo,
			r.TonPriceMonthAgo, r.UsdPriceMonthAgo,
			r.MarketCapTon, r.MarketCapUsd, r.UpgradedSupply, r.PreSale,
			now,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range records {
		ct, err := results.Exec()
		if err != nil {
			return written, fmt.Errorf("upsert %s: %w", s.table, err)
		}
		written += int(ct.RowsAffected())
	}
	return written, nil
}

func selectQuery(table string) string {
	return fmt.Sprintf(`
		SELECT name, image, price_ton, price_usd,
			ton_price_24h_ago, usd_price_24h_ago,
			ton_price_week_ago, usd_price_week_ago,
			ton_price_month_ago, usd_price_month_ago,
			market_cap_ton, market_cap_usd, upgraded_supply, pre_sale
		FROM %s
		ORDER BY name`, database.QuoteIdent(table))
}

func upsertQuery(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (name, image, price_ton, price_usd,
			ton_price_24h_ago, usd_price_24h_ago,
			ton_price_week_ago, usd_price_week_ago,
			ton_price_month_ago, usd_price_month_ago,
			market_cap_ton, market_cap_usd, upgraded_supply, pre_sale, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (name) DO UPDATE SET
			image = EXCLUDED.image,
			price_ton = EXCLUDED.price_ton,
			price_usd = EXCLUDED.price_usd,
			ton_price_24h_ago = EXCLUDED.ton_price_24h_ago,
			usd_price_24h_ago = EXCLUDED.usd_price_24h_ago,
			ton_price_week_ago = EXCLUDED.ton_price_week_ago,
			usd_price_week_ago = EXCLUDED.usd_price_week_ago,
			ton_price_month_ago = EXCLUDED.ton_price_month_ago,
			usd_price_month_ago = EXCLUDED.usd_price_month_ago,
			market_cap_ton = EXCLUDED.market_cap_ton,
			market_cap_usd = EXCLUDED.market_cap_usd,
			upgraded_supply = EXCLUDED.upgraded_supply,
			pre_sale = EXCLUDED.pre_sale,
			updated_at = EXCLUDED.updated_at`, database.QuoteIdent(table))
}
