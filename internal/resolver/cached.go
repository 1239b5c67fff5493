package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/metrics"
	"github.com/newthinker/straddle/internal/provider"
	"github.com/newthinker/straddle/internal/storage/cache"
)

// CachedChain decorates a ChainLister with the shared store. A fresh cached
// chain bypasses the provider entirely; fetched chains are written back
// keyed by (ticker, as-of session, from, to).
type CachedChain struct {
	inner   provider.ChainLister
	store   cache.Store
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewCachedChain wraps a chain lister with the options-chain cache. The
// registry is optional.
func NewCachedChain(inner provider.ChainLister, store cache.Store, reg *metrics.Registry, logger *zap.Logger) *CachedChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedChain{inner: inner, store: store, metrics: reg, logger: logger}
}

// ListChain implements provider.ChainLister.
func (c *CachedChain) ListChain(ctx context.Context, ticker string, asOf, from, to time.Time) ([]string, error) {
	key := cache.ChainKey{Ticker: ticker, AsOf: asOf, From: from, To: to}

	cached, err := c.store.Chain(ctx, key, cache.ChainTTL)
	if err != nil {
		c.logger.Warn("chain cache read failed", zap.String("ticker", ticker), zap.Error(err))
	}
	if cached != nil {
		c.recordLookup("hit")
		c.logger.Debug("chain cache hit", zap.String("ticker", ticker), zap.Int("symbols", len(cached)))
		return cached, nil
	}
	c.recordLookup("miss")

	symbols, err := c.inner.ListChain(ctx, ticker, asOf, from, to)
	if err != nil {
		return nil, err
	}

	if len(symbols) > 0 {
		if err := c.store.SaveChain(ctx, key, symbols); err != nil {
			c.logger.Warn("chain cache write failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}
	return symbols, nil
}

func (c *CachedChain) recordLookup(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup("options_chain", outcome)
	}
}
