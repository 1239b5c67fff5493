package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/straddle/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "earnings.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLite_EarningsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := []core.EarningsEvent{
		{Ticker: "NVDA", Date: time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC), Timing: core.TimingAfterMarket},
		{Ticker: "NVDA", Date: time.Date(2023, 11, 21, 0, 0, 0, 0, time.UTC), Timing: core.TimingAfterMarket},
	}
	if err := store.SaveEarnings(ctx, events); err != nil {
		t.Fatal(err)
	}

	got, err := store.Earnings(ctx, "NVDA", EarningsTTL)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	// Most recent first
	if !got[0].Date.After(got[1].Date) {
		t.Error("events should be ordered most recent first")
	}
}

func TestSQLite_EarningsFreshness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := []core.EarningsEvent{
		{Ticker: "AAPL", Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Timing: core.TimingBeforeMarket},
	}
	if err := store.SaveEarnings(ctx, events); err != nil {
		t.Fatal(err)
	}

	// A zero freshness window treats everything as stale.
	got, err := store.Earnings(ctx, "AAPL", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected stale entries to be ignored, got %d", len(got))
	}
}

func TestSQLite_ChainRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := ChainKey{
		Ticker: "NVDA",
		AsOf:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		From:   time.Date(2024, 3, 21, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC),
	}
	symbols := []string{"NVDA240322C00950000", "NVDA240322P00950000"}

	if err := store.SaveChain(ctx, key, symbols); err != nil {
		t.Fatal(err)
	}

	got, err := store.Chain(ctx, key, ChainTTL)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != symbols[0] {
		t.Errorf("Chain = %v, want %v", got, symbols)
	}

	// Different key is a miss, not an error.
	miss := key
	miss.Ticker = "AAPL"
	got, err = store.Chain(ctx, miss, ChainTTL)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected cache miss, got %v", got)
	}
}

func TestSQLite_PerformanceUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sample := core.PerformanceSample{
		Ticker:       "NVDA",
		EarningsDate: time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC),
		OffsetDays:   5,
		ChangePct:    12.34,
		LoggedAt:     time.Now(),
	}
	if err := store.SavePerformance(ctx, SidePre, sample); err != nil {
		t.Fatal(err)
	}

	// Overwrite the same key; the later value must win without duplication.
	sample.ChangePct = -3.21
	if err := store.SavePerformance(ctx, SidePre, sample); err != nil {
		t.Fatal(err)
	}

	got, err := store.Performance(ctx, SidePre, "NVDA")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("upsert produced %d rows, want 1", len(got))
	}
	if got[0].ChangePct != -3.21 {
		t.Errorf("ChangePct = %f, want the last written -3.21", got[0].ChangePct)
	}
	if got[0].OffsetDays != 5 {
		t.Errorf("OffsetDays = %d, want 5", got[0].OffsetDays)
	}
}

func TestSQLite_PrePostAreSeparate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sample := core.PerformanceSample{
		Ticker:       "NVDA",
		EarningsDate: time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC),
		OffsetDays:   2,
		ChangePct:    50,
		LoggedAt:     time.Now(),
	}
	if err := store.SavePerformance(ctx, SidePost, sample); err != nil {
		t.Fatal(err)
	}

	pre, err := store.Performance(ctx, SidePre, "NVDA")
	if err != nil {
		t.Fatal(err)
	}
	if len(pre) != 0 {
		t.Errorf("pre table should be empty, got %d rows", len(pre))
	}
}
