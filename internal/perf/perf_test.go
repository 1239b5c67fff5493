package perf

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/newthinker/straddle/internal/calendar"
	"github.com/newthinker/straddle/internal/core"
)

func seriesFrom(straddles []float64) []core.SeriesRow {
	return seriesAt(time.Date(2024, 3, 15, 9, 30, 0, 0, calendar.Eastern), straddles)
}

func seriesAt(base time.Time, straddles []float64) []core.SeriesRow {
	rows := make([]core.SeriesRow, len(straddles))
	for i, s := range straddles {
		rows[i] = core.SeriesRow{
			Index:    i,
			Time:     base.Add(time.Duration(i) * 15 * time.Minute),
			Straddle: s,
		}
	}
	return rows
}

func TestAnchorTime(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	before := AnchorTime(core.EarningsEvent{Ticker: "NVDA", Date: date, Timing: core.TimingBeforeMarket})
	if before.Hour() != 9 || before.Minute() != 30 {
		t.Errorf("before-market anchor = %s, want 09:30", before.Format("15:04"))
	}

	after := AnchorTime(core.EarningsEvent{Ticker: "NVDA", Date: date, Timing: core.TimingAfterMarket})
	if after.Hour() != 16 || after.Minute() != 0 {
		t.Errorf("after-market anchor = %s, want 16:00", after.Format("15:04"))
	}
}

func TestAnchorIndex_Nearest(t *testing.T) {
	rows := seriesFrom([]float64{10, 10, 10, 12, 12})
	// Anchor exactly on the fourth bar.
	if got := AnchorIndex(rows, rows[3].Time); got != 3 {
		t.Errorf("AnchorIndex = %d, want 3", got)
	}
}

func TestAnchorIndex_TieTakesEarlier(t *testing.T) {
	rows := seriesFrom([]float64{10, 10})
	midpoint := rows[0].Time.Add(rows[1].Time.Sub(rows[0].Time) / 2)
	if got := AnchorIndex(rows, midpoint); got != 0 {
		t.Errorf("AnchorIndex on tie = %d, want the earlier row 0", got)
	}
}

func TestAnchorIndex_Idempotent(t *testing.T) {
	rows := seriesFrom([]float64{10, 11, 12, 13})
	anchor := rows[2].Time.Add(3 * time.Minute)

	first := AnchorIndex(rows, anchor)
	for i := 0; i < 5; i++ {
		if got := AnchorIndex(rows, anchor); got != first {
			t.Fatalf("AnchorIndex not stable: %d then %d", first, got)
		}
	}
}

func TestCompute_KnownScenario(t *testing.T) {
	// Straddle at [10,10,10,12,12,15,15] with the anchor on index 3:
	// pre = (10-10)/10 = 0%, post = (15-10)/10 = 50%.
	event := core.EarningsEvent{
		Ticker: "NVDA",
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Timing: core.TimingBeforeMarket,
	}
	// Start 45 minutes before the open so the anchor lands exactly on
	// the fourth bar.
	base := AnchorTime(event).Add(-45 * time.Minute)
	rows := seriesAt(base, []float64{10, 10, 10, 12, 12, 15, 15})

	res, err := Compute(rows, event)
	if err != nil {
		t.Fatal(err)
	}

	if res.AnchorIndex != 3 {
		t.Errorf("AnchorIndex = %d, want 3", res.AnchorIndex)
	}
	if math.Abs(res.PreChangePct-0) > 1e-9 {
		t.Errorf("PreChangePct = %f, want 0", res.PreChangePct)
	}
	if math.Abs(res.PostChangePct-50) > 1e-9 {
		t.Errorf("PostChangePct = %f, want 50", res.PostChangePct)
	}
	if math.Abs(res.TotalChangePct-50) > 1e-9 {
		t.Errorf("TotalChangePct = %f, want 50", res.TotalChangePct)
	}
}

func TestCompute_ZeroBaseline(t *testing.T) {
	event := core.EarningsEvent{
		Ticker: "NVDA",
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Timing: core.TimingBeforeMarket,
	}
	rows := seriesAt(AnchorTime(event).Add(-30*time.Minute), []float64{0, 10, 12})

	_, err := Compute(rows, event)
	if !errors.Is(err, core.ErrZeroBaseline) {
		t.Errorf("err = %v, want ErrZeroBaseline", err)
	}
}

func TestCompute_AnchorAtStart(t *testing.T) {
	rows := seriesFrom([]float64{10, 11})
	event := core.EarningsEvent{
		Ticker: "NVDA",
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Timing: core.TimingBeforeMarket,
	}
	rows[0].Time = AnchorTime(event)

	_, err := Compute(rows, event)
	if !errors.Is(err, core.ErrDataQuality) {
		t.Errorf("err = %v, want ErrDataQuality when no pre-earnings window exists", err)
	}
}

func TestCompute_Empty(t *testing.T) {
	event := core.EarningsEvent{
		Ticker: "NVDA",
		Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Timing: core.TimingAfterMarket,
	}
	if _, err := Compute(nil, event); err == nil {
		t.Fatal("expected error for empty series")
	}
}
