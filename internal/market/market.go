package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// AssetType enumerates the collateral assets the card accepts.
type AssetType string

const (
	ETH  AssetType = "ETH"
	USDC AssetType = "USDC"
	SOL  AssetType = "SOL"
	WBTC AssetType = "WBTC"
)

// ErrUnsupportedAsset is returned when a symbol is outside the supported set.
var ErrUnsupportedAsset = errors.New("unsupported asset")

// SupportedAssets lists accepted assets in display order.
func SupportedAssets() []AssetType {
	return []AssetType{ETH, USDC, SOL, WBTC}
}

// ParseAsset resolves a symbol, case-insensitively, into an AssetType.
func ParseAsset(symbol string) (AssetType, error) {
	candidate := AssetType(strings.ToUpper(strings.TrimSpace(symbol)))
	for _, a := range SupportedAssets() {
		if a == candidate {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAsset, symbol)
}

// Quote is the latest market observation for an asset.
type Quote struct {
	Asset     AssetType       `json:"asset"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change_24h"`
}

// Feed looks up current prices. A missing asset reports ok == false.
type Feed interface {
	Lookup(asset AssetType) (Quote, bool)
}

// Lister is implemented by feeds that can enumerate their quotes.
type Lister interface {
	Quotes() []Quote
}

// Refresher is implemented by feeds that reload from an external source.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StaticFeed is an in-memory feed. Quotes are replaced wholesale by Set.
type StaticFeed struct {
	mu     sync.RWMutex
	quotes map[AssetType]Quote
}

// NewStaticFeed builds a feed holding the provided quotes.
func NewStaticFeed(quotes ...Quote) *StaticFeed {
	f := &StaticFeed{quotes: make(map[AssetType]Quote, len(quotes))}
	for _, q := range quotes {
		f.quotes[q.Asset] = q
	}
	return f
}

// Lookup returns the quote for asset.
func (f *StaticFeed) Lookup(asset AssetType) (Quote, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	q, ok := f.quotes[asset]
	return q, ok
}

// Quotes returns every known quote in SupportedAssets order.
func (f *StaticFeed) Quotes() []Quote {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Quote, 0, len(f.quotes))
	for _, a := range SupportedAssets() {
		if q, ok := f.quotes[a]; ok {
			out = append(out, q)
		}
	}
	return out
}

// Set replaces all quotes held by the feed.
func (f *StaticFeed) Set(quotes []Quote) {
	next := make(map[AssetType]Quote, len(quotes))
	for _, q := range quotes {
		next[q.Asset] = q
	}
	f.mu.Lock()
	f.quotes = next
	f.mu.Unlock()
}
