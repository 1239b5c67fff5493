package provider

import (
	"context"
	"time"

	"github.com/newthinker/straddle/internal/core"
)

// MaxBarsPerRequest caps how many bars a single fetch may return.
const MaxBarsPerRequest = 600

// BarInterval is the fixed bar granularity used throughout the pipeline.
const BarInterval = 15 * time.Minute

// BarFetcher fetches fixed-interval price bars for one or more instruments.
// A symbol absent from the response yields an empty slice, not an error.
type BarFetcher interface {
	// StockBars returns 15-minute bars for a stock symbol in [start, end].
	StockBars(ctx context.Context, symbol string, start, end time.Time) ([]core.Bar, error)

	// OptionBars returns 15-minute bars per option symbol in [start, end].
	OptionBars(ctx context.Context, symbols []string, start, end time.Time) (map[string][]core.Bar, error)
}

// ChainLister lists the option symbols traded for a ticker, queried as of a
// session date, with expiries inside [from, to].
type ChainLister interface {
	ListChain(ctx context.Context, ticker string, asOf, from, to time.Time) ([]string, error)
}
