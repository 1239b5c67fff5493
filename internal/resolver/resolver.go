// Package resolver identifies the at-the-money straddle contracts for an
// earnings event: the call/put pair whose shared strike is nearest to the
// stock price at the open of the reference session.
package resolver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/calendar"
	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/occ"
	"github.com/newthinker/straddle/internal/provider"
)

// Expiry window: contracts expiring 8 to 15 calendar days after earnings.
const (
	expiryFromDays = 8
	expiryToDays   = 15
)

// Resolver selects straddle contract pairs. It is pure with respect to
// storage; compose it with CachedChain for cached chain lookups.
type Resolver struct {
	bars   provider.BarFetcher
	chain  provider.ChainLister
	logger *zap.Logger
}

// New creates a resolver over the given providers.
func New(bars provider.BarFetcher, chain provider.ChainLister, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{bars: bars, chain: chain, logger: logger}
}

// Resolve returns the nearest-strike call/put pair for an earnings date,
// using the stock price in the first half hour of referenceSession as the
// at-the-money reference.
func (r *Resolver) Resolve(ctx context.Context, ticker string, earningsDate, referenceSession time.Time) (core.ContractPair, error) {
	refPrice, err := r.referencePrice(ctx, ticker, referenceSession)
	if err != nil {
		return core.ContractPair{}, err
	}

	from := earningsDate.AddDate(0, 0, expiryFromDays)
	to := earningsDate.AddDate(0, 0, expiryToDays)

	symbols, err := r.chain.ListChain(ctx, ticker, referenceSession, from, to)
	if err != nil {
		return core.ContractPair{}, err
	}
	if len(symbols) == 0 {
		return core.ContractPair{}, core.WrapError(core.ErrNoContractMatch,
			fmt.Errorf("no option symbols for %s expiring %s..%s",
				ticker, from.Format("2006-01-02"), to.Format("2006-01-02")))
	}

	pair, err := selectPair(symbols, refPrice)
	if err != nil {
		return core.ContractPair{}, err
	}

	r.logger.Debug("resolved straddle pair",
		zap.String("ticker", ticker),
		zap.Float64("reference_price", refPrice),
		zap.Float64("strike", pair.Strike),
		zap.String("call", pair.CallSymbol),
		zap.String("put", pair.PutSymbol),
	)
	return pair, nil
}

// referencePrice is the close of the first 15-minute bar in the 09:30-10:00
// window of the reference session.
func (r *Resolver) referencePrice(ctx context.Context, ticker string, session time.Time) (float64, error) {
	start := calendar.OpenAt(session)
	end := start.Add(30 * time.Minute)

	bars, err := r.bars.StockBars(ctx, ticker, start, end)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, core.WrapError(core.ErrNoReferencePrice,
			fmt.Errorf("%s has no bars on %s 09:30-10:00", ticker, session.Format("2006-01-02")))
	}
	return bars[0].Close, nil
}

// selectPair picks the strike nearest to refPrice among observed call
// strikes (ties go to the lower strike) and locates both legs at it.
func selectPair(symbols []string, refPrice float64) (core.ContractPair, error) {
	type leg struct {
		symbol string
		expiry time.Time
	}

	calls := make(map[float64]leg)
	puts := make(map[float64]leg)

	for _, s := range symbols {
		sym, err := occ.Parse(s)
		if err != nil {
			// Chains occasionally contain non-standard symbols; skip them.
			continue
		}
		switch sym.Type {
		case core.OptionCall:
			if _, ok := calls[sym.Strike]; !ok {
				calls[sym.Strike] = leg{symbol: s, expiry: sym.Expiry}
			}
		case core.OptionPut:
			if _, ok := puts[sym.Strike]; !ok {
				puts[sym.Strike] = leg{symbol: s, expiry: sym.Expiry}
			}
		}
	}

	if len(calls) == 0 {
		return core.ContractPair{}, core.WrapError(core.ErrNoContractMatch,
			fmt.Errorf("no parseable call symbols in chain"))
	}

	strikes := make([]float64, 0, len(calls))
	for k := range calls {
		strikes = append(strikes, k)
	}
	// Ascending order makes the strictly-less comparison resolve distance
	// ties to the lower strike.
	sort.Float64s(strikes)

	best := strikes[0]
	for _, k := range strikes[1:] {
		if math.Abs(k-refPrice) < math.Abs(best-refPrice) {
			best = k
		}
	}

	call, ok := calls[best]
	if !ok {
		return core.ContractPair{}, core.WrapError(core.ErrNoContractMatch,
			fmt.Errorf("no call at strike %.3f", best))
	}
	put, ok := puts[best]
	if !ok {
		return core.ContractPair{}, core.WrapError(core.ErrNoContractMatch,
			fmt.Errorf("no put at strike %.3f", best))
	}

	return core.ContractPair{
		CallSymbol: call.symbol,
		PutSymbol:  put.symbol,
		Strike:     best,
		Expiry:     call.expiry,
	}, nil
}
