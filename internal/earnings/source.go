// Package earnings retrieves historical earnings announcement dates for a
// ticker from the public Yahoo Finance earnings calendar.
package earnings

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/metrics"
	"github.com/newthinker/straddle/internal/storage/cache"
)

// Source yields past earnings events for a ticker, most recent first.
type Source interface {
	PastEarnings(ctx context.Context, ticker string) ([]core.EarningsEvent, error)
}

// FilterWithin keeps only events newer than maxAge before now. The pipeline
// uses this to restrict analysis to roughly the past year.
func FilterWithin(events []core.EarningsEvent, maxAge time.Duration, now time.Time) []core.EarningsEvent {
	cutoff := now.Add(-maxAge)
	var kept []core.EarningsEvent
	for _, e := range events {
		if e.Date.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// CachedSource decorates a Source with the shared store: fresh cached dates
// bypass the scrape entirely, and scraped results are written back.
type CachedSource struct {
	inner   Source
	store   cache.Store
	metrics *metrics.Registry
	logger  *zap.Logger
}

// NewCachedSource wraps a source with the earnings cache. The registry is
// optional.
func NewCachedSource(inner Source, store cache.Store, reg *metrics.Registry, logger *zap.Logger) *CachedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{inner: inner, store: store, metrics: reg, logger: logger}
}

// PastEarnings returns cached events when fresh, otherwise scrapes and
// stores the result.
func (c *CachedSource) PastEarnings(ctx context.Context, ticker string) ([]core.EarningsEvent, error) {
	cached, err := c.store.Earnings(ctx, ticker, cache.EarningsTTL)
	if err != nil {
		// A broken cache should not block the scrape.
		c.logger.Warn("earnings cache read failed", zap.String("ticker", ticker), zap.Error(err))
	}
	if len(cached) > 0 {
		c.recordLookup("hit")
		c.logger.Debug("earnings cache hit", zap.String("ticker", ticker), zap.Int("events", len(cached)))
		return cached, nil
	}
	c.recordLookup("miss")

	events, err := c.inner.PastEarnings(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if len(events) > 0 {
		if err := c.store.SaveEarnings(ctx, events); err != nil {
			c.logger.Warn("earnings cache write failed", zap.String("ticker", ticker), zap.Error(err))
		}
	}
	return events, nil
}

func (c *CachedSource) recordLookup(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup("earnings", outcome)
	}
}
