package core

import "time"

// Timing indicates whether earnings were announced before or after the session.
type Timing string

const (
	TimingBeforeMarket Timing = "before"
	TimingAfterMarket  Timing = "after"
)

// OptionType represents the side of an option contract.
type OptionType string

const (
	OptionCall OptionType = "C"
	OptionPut  OptionType = "P"
)

// EarningsEvent identifies a single earnings announcement for a ticker.
// Before-market events anchor at the session open (09:30), after-market
// events at the session close (16:00).
type EarningsEvent struct {
	Ticker string
	Date   time.Time // date component only, session-local
	Timing Timing
}

// IsValid checks if the event has required fields.
func (e EarningsEvent) IsValid() bool {
	return e.Ticker != "" && !e.Date.IsZero() &&
		(e.Timing == TimingBeforeMarket || e.Timing == TimingAfterMarket)
}

// ContractPair identifies the call/put contracts forming a straddle.
type ContractPair struct {
	CallSymbol string
	PutSymbol  string
	Strike     float64
	Expiry     time.Time
}

// Bar is one fixed-interval price observation for a single instrument.
type Bar struct {
	Time  time.Time
	Close float64
}

// SeriesRow is one aligned observation of both straddle legs. Index is the
// dense zero-based position used as the x-axis coordinate downstream; Label
// carries the session-local "MM/DD HH:MM" timestamp for display ticks.
type SeriesRow struct {
	Index     int       `json:"index"`
	Time      time.Time `json:"time"`
	Label     string    `json:"label"`
	CallClose float64   `json:"call_close"`
	PutClose  float64   `json:"put_close"`
	Straddle  float64   `json:"straddle"`
}

// PerformanceSample is a persisted pre- or post-earnings percent change,
// keyed by (ticker, earnings date, offset days). A later computation for the
// same key overwrites the earlier one.
type PerformanceSample struct {
	Ticker       string    `json:"ticker"`
	EarningsDate time.Time `json:"earnings_date"`
	OffsetDays   int       `json:"offset_days"`
	ChangePct    float64   `json:"change_pct"`
	LoggedAt     time.Time `json:"logged_at"`
}

// EventResult is the outcome of running the pipeline for one earnings event.
type EventResult struct {
	Event       EarningsEvent `json:"event"`
	Pair        ContractPair  `json:"pair"`
	Rows        []SeriesRow   `json:"rows"`
	AnchorIndex int           `json:"anchor_index"`
	PreChange   float64       `json:"pre_change_pct"`
	PostChange  float64       `json:"post_change_pct"`
	TotalChange float64       `json:"total_change_pct"`
}
