// Package perf computes pre/post earnings percentage moves of an aligned
// straddle series, anchored at the bar nearest the announcement moment.
package perf

import (
	"fmt"
	"time"

	"github.com/newthinker/straddle/internal/calendar"
	"github.com/newthinker/straddle/internal/core"
)

// Result describes the straddle move around one earnings event.
type Result struct {
	AnchorIndex    int
	PreChangePct   float64
	PostChangePct  float64
	TotalChangePct float64
}

// AnchorTime is the announcement moment: session open for before-market
// events, session close for after-market events, in exchange-local time.
func AnchorTime(event core.EarningsEvent) time.Time {
	if event.Timing == core.TimingBeforeMarket {
		return calendar.OpenAt(event.Date)
	}
	return calendar.CloseAt(event.Date)
}

// AnchorIndex locates the row whose timestamp is nearest the anchor moment.
// Ties resolve to the earlier row.
func AnchorIndex(rows []core.SeriesRow, anchor time.Time) int {
	best := 0
	bestDist := absDuration(rows[0].Time.Sub(anchor))
	for i := 1; i < len(rows); i++ {
		if d := absDuration(rows[i].Time.Sub(anchor)); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// Compute derives the pre, post, and total percent changes for a series.
// The pre-earnings window runs from the first row to the row before the
// anchor; the post window from there to the series end.
func Compute(rows []core.SeriesRow, event core.EarningsEvent) (Result, error) {
	if len(rows) == 0 {
		return Result{}, core.WrapError(core.ErrDataQuality, fmt.Errorf("empty series"))
	}

	anchorIdx := AnchorIndex(rows, AnchorTime(event))
	if anchorIdx == 0 {
		return Result{}, core.WrapError(core.ErrDataQuality,
			fmt.Errorf("anchor at series start, no pre-earnings window"))
	}

	initial := rows[0].Straddle
	preEarnings := rows[anchorIdx-1].Straddle
	final := rows[len(rows)-1].Straddle

	if initial == 0 {
		return Result{}, core.WrapError(core.ErrZeroBaseline,
			fmt.Errorf("initial straddle is zero at %s", rows[0].Label))
	}
	if preEarnings == 0 {
		return Result{}, core.WrapError(core.ErrZeroBaseline,
			fmt.Errorf("pre-earnings straddle is zero at %s", rows[anchorIdx-1].Label))
	}

	return Result{
		AnchorIndex:    anchorIdx,
		PreChangePct:   (preEarnings - initial) / initial * 100,
		PostChangePct:  (final - preEarnings) / preEarnings * 100,
		TotalChangePct: (final - initial) / initial * 100,
	}, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
