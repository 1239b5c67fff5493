// Package cache provides the shared file-backed store for scraped earnings
// dates, fetched option chains, and computed performance samples. All tables
// use composite natural keys with upsert-on-conflict semantics; concurrent
// writers rely on the store's native write serialization (last writer wins).
package cache

import (
	"context"
	"time"

	"github.com/newthinker/straddle/internal/core"
)

// Freshness windows after which cached entries are ignored.
const (
	EarningsTTL = 90 * 24 * time.Hour
	ChainTTL    = 30 * 24 * time.Hour
)

// Side distinguishes the pre- and post-earnings performance tables.
type Side string

const (
	SidePre  Side = "pre"
	SidePost Side = "post"
)

// ChainKey is the composite natural key of a cached options-chain lookup.
type ChainKey struct {
	Ticker string
	AsOf   time.Time
	From   time.Time
	To     time.Time
}

// Store persists earnings dates, option chains, and performance samples.
type Store interface {
	// Earnings returns cached earnings events for a ticker fetched within
	// maxAge, most recent first. An empty result means a cache miss.
	Earnings(ctx context.Context, ticker string, maxAge time.Duration) ([]core.EarningsEvent, error)

	// SaveEarnings upserts earnings events, stamping them with now.
	SaveEarnings(ctx context.Context, events []core.EarningsEvent) error

	// Chain returns cached option symbols for a key fetched within maxAge.
	// nil means a cache miss.
	Chain(ctx context.Context, key ChainKey, maxAge time.Duration) ([]string, error)

	// SaveChain upserts the option symbols for a key.
	SaveChain(ctx context.Context, key ChainKey, symbols []string) error

	// SavePerformance upserts one performance sample into the pre or post
	// table keyed by (ticker, earnings_date, offset_days).
	SavePerformance(ctx context.Context, side Side, sample core.PerformanceSample) error

	// Performance returns persisted samples for a ticker, ordered by
	// earnings date descending.
	Performance(ctx context.Context, side Side, ticker string) ([]core.PerformanceSample, error)

	// Close releases the underlying store resources.
	Close() error
}
