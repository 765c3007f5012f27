package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Schema returns the DDL for a market table named table.
func Schema(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name                TEXT PRIMARY KEY,
			image               TEXT NOT NULL DEFAULT '',
			price_ton           DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_usd           DOUBLE PRECISION NOT NULL DEFAULT 0,
			ton_price_24h_ago   DOUBLE PRECISION,
			usd_price_24h_ago   DOUBLE PRECISION,
			ton_price_week_ago  DOUBLE PRECISION,
			usd_price_week_ago  DOUBLE PRECISION,
			ton_price_month_ago DOUBLE PRECISION,
			usd_price_month_ago DOUBLE PRECISION,
			market_cap_ton      TEXT NOT NULL DEFAULT '',
			market_cap_usd      TEXT NOT NULL DEFAULT '',
			upgraded_supply     BIGINT NOT NULL DEFAULT 0,
			pre_sale            BOOLEAN NOT NULL DEFAULT FALSE,
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, QuoteIdent(table))
}

// QuoteIdent quotes a possibly schema-qualified identifier.
func QuoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
