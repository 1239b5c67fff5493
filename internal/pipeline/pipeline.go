// Package pipeline orchestrates the per-ticker earnings straddle analysis:
// earnings dates in, one aligned straddle series with pre/post moves out per
// event. Events are processed sequentially and fail independently.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/calendar"
	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/earnings"
	"github.com/newthinker/straddle/internal/metrics"
	"github.com/newthinker/straddle/internal/perf"
	"github.com/newthinker/straddle/internal/provider"
	"github.com/newthinker/straddle/internal/resolver"
	"github.com/newthinker/straddle/internal/series"
	"github.com/newthinker/straddle/internal/storage/archive"
	"github.com/newthinker/straddle/internal/storage/cache"
)

// MaxEventAge restricts analysis to roughly the past year of earnings.
const MaxEventAge = 366 * 24 * time.Hour

// Pipeline runs the full analysis for one ticker at a time.
type Pipeline struct {
	source   earnings.Source
	resolver *resolver.Resolver
	bars     provider.BarFetcher
	store    cache.Store
	archive  *archive.Archive
	metrics  *metrics.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// Deps carries the pipeline's collaborators. Archive and Metrics are
// optional; everything else is required.
type Deps struct {
	Source   earnings.Source
	Resolver *resolver.Resolver
	Bars     provider.BarFetcher
	Store    cache.Store
	Archive  *archive.Archive
	Metrics  *metrics.Registry
}

// New creates a pipeline over the given collaborators.
func New(deps Deps, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:   deps.Source,
		resolver: deps.Resolver,
		bars:     deps.Bars,
		store:    deps.Store,
		archive:  deps.Archive,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Run analyzes every earnings event of the past year for a ticker. A failing
// event is logged and skipped; the remaining events still run. The returned
// slice holds the successful events in the source's order (most recent
// first).
func (p *Pipeline) Run(ctx context.Context, ticker string, lookback, lookahead int) ([]core.EventResult, error) {
	started := p.now()

	events, err := p.source.PastEarnings(ctx, ticker)
	if err != nil {
		p.recordAnalysis("error", started)
		return nil, err
	}

	events = earnings.FilterWithin(events, MaxEventAge, p.now())
	if len(events) == 0 {
		p.recordAnalysis("error", started)
		return nil, core.WrapError(core.ErrNoEarningsDates,
			fmt.Errorf("%s has no earnings events in the past year", ticker))
	}

	var results []core.EventResult
	for _, event := range events {
		res, err := p.runEvent(ctx, ticker, event, lookback, lookahead)
		if err != nil {
			if ctx.Err() != nil {
				p.recordAnalysis("error", started)
				return results, ctx.Err()
			}
			p.logger.Warn("skipping earnings event",
				zap.String("ticker", ticker),
				zap.String("date", event.Date.Format("2006-01-02")),
				zap.Error(err),
			)
			p.recordEvent("skipped")
			continue
		}
		p.recordEvent("ok")
		results = append(results, res)
	}

	p.logger.Info("analysis complete",
		zap.String("ticker", ticker),
		zap.Int("events", len(events)),
		zap.Int("succeeded", len(results)),
	)
	p.recordAnalysis("ok", started)
	return results, nil
}

// runEvent analyzes one earnings event end to end.
func (p *Pipeline) runEvent(ctx context.Context, ticker string, event core.EarningsEvent, lookback, lookahead int) (core.EventResult, error) {
	start, end, err := calendar.Window(event.Date, lookback, lookahead)
	if err != nil {
		return core.EventResult{}, err
	}

	// The first session of the window anchors the at-the-money reference.
	pair, err := p.resolver.Resolve(ctx, ticker, event.Date, start)
	if err != nil {
		return core.EventResult{}, err
	}

	optionBars, err := p.bars.OptionBars(ctx,
		[]string{pair.CallSymbol, pair.PutSymbol},
		calendar.OpenAt(start), calendar.CloseAt(end))
	if err != nil {
		return core.EventResult{}, err
	}

	callBars := optionBars[pair.CallSymbol]
	putBars := optionBars[pair.PutSymbol]
	if len(callBars) == 0 || len(putBars) == 0 {
		return core.EventResult{}, core.WrapError(core.ErrNoBars,
			fmt.Errorf("%s: call bars %d, put bars %d", ticker, len(callBars), len(putBars)))
	}

	rows, err := series.Align(callBars, putBars)
	if err != nil {
		return core.EventResult{}, err
	}

	move, err := perf.Compute(rows, event)
	if err != nil {
		return core.EventResult{}, err
	}

	result := core.EventResult{
		Event:       event,
		Pair:        pair,
		Rows:        rows,
		AnchorIndex: move.AnchorIndex,
		PreChange:   move.PreChangePct,
		PostChange:  move.PostChangePct,
		TotalChange: move.TotalChangePct,
	}

	p.persist(ctx, ticker, result, lookback, lookahead)
	return result, nil
}

// persist writes the pre/post samples and the series snapshot. Storage
// failures are logged but never fail an already-computed event.
func (p *Pipeline) persist(ctx context.Context, ticker string, result core.EventResult, lookback, lookahead int) {
	loggedAt := p.now()

	pre := core.PerformanceSample{
		Ticker:       ticker,
		EarningsDate: result.Event.Date,
		OffsetDays:   lookback,
		ChangePct:    result.PreChange,
		LoggedAt:     loggedAt,
	}
	if err := p.store.SavePerformance(ctx, cache.SidePre, pre); err != nil {
		p.logger.Warn("pre-earnings sample write failed",
			zap.String("ticker", ticker), zap.Error(err))
	}

	post := core.PerformanceSample{
		Ticker:       ticker,
		EarningsDate: result.Event.Date,
		OffsetDays:   lookahead,
		ChangePct:    result.PostChange,
		LoggedAt:     loggedAt,
	}
	if err := p.store.SavePerformance(ctx, cache.SidePost, post); err != nil {
		p.logger.Warn("post-earnings sample write failed",
			zap.String("ticker", ticker), zap.Error(err))
	}

	if p.archive != nil {
		if err := p.archive.SaveResult(ctx, result); err != nil {
			p.logger.Warn("series snapshot write failed",
				zap.String("ticker", ticker), zap.Error(err))
		}
	}
}

func (p *Pipeline) recordEvent(status string) {
	if p.metrics != nil {
		p.metrics.RecordEvent(status)
	}
}

func (p *Pipeline) recordAnalysis(status string, started time.Time) {
	if p.metrics != nil {
		p.metrics.RecordAnalysis(status, p.now().Sub(started).Seconds())
	}
}
