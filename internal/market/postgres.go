package market

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresFeed serves quotes loaded from the market_prices table. Lookups
// read the last loaded snapshot; Refresh reloads it.
type PostgresFeed struct {
	db    *pgxpool.Pool
	cache *StaticFeed
}

// NewPostgresFeed constructs a feed backed by PostgreSQL. initial quotes
// are served until the first successful Refresh.
func NewPostgresFeed(db *pgxpool.Pool, initial ...Quote) *PostgresFeed {
	return &PostgresFeed{db: db, cache: NewStaticFeed(initial...)}
}

// Refresh reloads every quote from the database.
func (f *PostgresFeed) Refresh(ctx context.Context) error {
	rows, err := f.db.Query(ctx, `SELECT symbol, price::text, change_24h::text FROM market_prices`)
	if err != nil {
		return fmt.Errorf("query market prices: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var symbol, price, change string
		if err := rows.Scan(&symbol, &price, &change); err != nil {
			return fmt.Errorf("scan market price: %w", err)
		}
		asset, err := ParseAsset(symbol)
		if err != nil {
			// the table may carry symbols the card does not accept
			continue
		}
		q := Quote{Asset: asset}
		if q.Price, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("parse price for %s: %w", symbol, err)
		}
		if q.Change24h, err = decimal.NewFromString(change); err != nil {
			return fmt.Errorf("parse change for %s: %w", symbol, err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate market prices: %w", err)
	}

	f.cache.Set(quotes)
	return nil
}

// Lookup returns the last loaded quote for asset.
func (f *PostgresFeed) Lookup(asset AssetType) (Quote, bool) {
	return f.cache.Lookup(asset)
}

// Quotes returns the last loaded quotes.
func (f *PostgresFeed) Quotes() []Quote {
	return f.cache.Quotes()
}
