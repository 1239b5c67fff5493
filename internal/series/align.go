// Package series merges call and put bar series into a single aligned
// straddle series: outer join on timestamp, per-session gap filling, and
// dense re-indexing for display.
package series

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/newthinker/straddle/internal/calendar"
	"github.com/newthinker/straddle/internal/core"
)

const labelFormat = "01/02 15:04"

var (
	errEmptyMerge = errors.New("no bars on either leg")
	errAllDropped = errors.New("every row incomplete after session fill")
)

// Align outer-joins the two legs on timestamp, fills gaps within each
// session (forward then backward, never across session boundaries), derives
// the straddle, and drops rows that remain incomplete. Row timestamps and
// labels are session-local (Eastern).
func Align(callBars, putBars []core.Bar) ([]core.SeriesRow, error) {
	merged := outerJoin(callBars, putBars)
	if len(merged) == 0 {
		return nil, core.WrapError(core.ErrDataQuality, errEmptyMerge)
	}

	fillSessions(merged)

	rows := make([]core.SeriesRow, 0, len(merged))
	for _, p := range merged {
		if p.call == nil || p.put == nil {
			continue
		}
		// Straddle is summed from unrounded closes and rounded once; the
		// legs are rounded independently for display only afterward.
		straddle := round2(*p.call + *p.put)
		rows = append(rows, core.SeriesRow{
			Index:     len(rows),
			Time:      p.t,
			Label:     p.t.Format(labelFormat),
			CallClose: round2(*p.call),
			PutClose:  round2(*p.put),
			Straddle:  straddle,
		})
	}

	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrDataQuality, errAllDropped)
	}
	return rows, nil
}

type point struct {
	t    time.Time
	call *float64
	put  *float64
}

// outerJoin merges the legs on timestamp and sorts ascending. Timestamps
// are normalized to Eastern so session grouping and labels are local.
func outerJoin(callBars, putBars []core.Bar) []*point {
	byTime := make(map[int64]*point)

	at := func(ts time.Time) *point {
		key := ts.Unix()
		p, ok := byTime[key]
		if !ok {
			p = &point{t: ts.In(calendar.Eastern)}
			byTime[key] = p
		}
		return p
	}

	for _, b := range callBars {
		v := b.Close
		at(b.Time).call = &v
	}
	for _, b := range putBars {
		v := b.Close
		at(b.Time).put = &v
	}

	points := make([]*point, 0, len(byTime))
	for _, p := range byTime {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].t.Before(points[j].t) })
	return points
}

// fillSessions forward-fills then backward-fills each leg inside each
// session; values never cross a session boundary.
func fillSessions(points []*point) {
	for start := 0; start < len(points); {
		end := start
		day := sessionDay(points[start].t)
		for end < len(points) && sessionDay(points[end].t) == day {
			end++
		}
		fillLeg(points[start:end], func(p *point) **float64 { return &p.call })
		fillLeg(points[start:end], func(p *point) **float64 { return &p.put })
		start = end
	}
}

func sessionDay(t time.Time) string {
	return t.Format("2006-01-02")
}

// fillLeg applies forward fill then backward fill over one session slice.
func fillLeg(session []*point, leg func(*point) **float64) {
	var last *float64
	for _, p := range session {
		cur := leg(p)
		if *cur != nil {
			last = *cur
		} else if last != nil {
			v := *last
			*cur = &v
		}
	}

	last = nil
	for i := len(session) - 1; i >= 0; i-- {
		cur := leg(session[i])
		if *cur != nil {
			last = *cur
		} else if last != nil {
			v := *last
			*cur = &v
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
