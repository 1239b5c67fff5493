package cache

import (
	"context"
	"sync"
	"time"

	"github.com/newthinker/straddle/internal/core"
)

// MemoryStore is an in-memory Store used in tests.
type MemoryStore struct {
	mu        sync.RWMutex
	earnings  map[string][]stampedEvent
	chains    map[ChainKey]stampedChain
	perf      map[Side]map[perfKey]core.PerformanceSample
}

type stampedEvent struct {
	event     core.EarningsEvent
	fetchedAt time.Time
}

type stampedChain struct {
	symbols   []string
	fetchedAt time.Time
}

type perfKey struct {
	ticker string
	date   string
	offset int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		earnings: make(map[string][]stampedEvent),
		chains:   make(map[ChainKey]stampedChain),
		perf: map[Side]map[perfKey]core.PerformanceSample{
			SidePre:  {},
			SidePost: {},
		},
	}
}

func (m *MemoryStore) Earnings(ctx context.Context, ticker string, maxAge time.Duration) ([]core.EarningsEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().Add(-maxAge)
	var events []core.EarningsEvent
	for _, se := range m.earnings[ticker] {
		if se.fetchedAt.After(cutoff) {
			events = append(events, se.event)
		}
	}
	return events, nil
}

func (m *MemoryStore) SaveEarnings(ctx context.Context, events []core.EarningsEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for _, e := range events {
		stamped := stampedEvent{event: e, fetchedAt: now}
		existing := m.earnings[e.Ticker]
		replaced := false
		for i, se := range existing {
			if se.event.Date.Equal(e.Date) {
				existing[i] = stamped
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, stamped)
		}
		m.earnings[e.Ticker] = existing
	}
	return nil
}

func (m *MemoryStore) Chain(ctx context.Context, key ChainKey, maxAge time.Duration) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.chains[key]
	if !ok || sc.fetchedAt.Before(time.Now().Add(-maxAge)) {
		return nil, nil
	}
	return sc.symbols, nil
}

func (m *MemoryStore) SaveChain(ctx context.Context, key ChainKey, symbols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[key] = stampedChain{symbols: symbols, fetchedAt: time.Now()}
	return nil
}

func (m *MemoryStore) SavePerformance(ctx context.Context, side Side, sample core.PerformanceSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.perf[side]
	if !ok {
		return core.ErrStoreFailed
	}
	key := perfKey{
		ticker: sample.Ticker,
		date:   sample.EarningsDate.Format(dateFormat),
		offset: sample.OffsetDays,
	}
	table[key] = sample
	return nil
}

func (m *MemoryStore) Performance(ctx context.Context, side Side, ticker string) ([]core.PerformanceSample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var samples []core.PerformanceSample
	for key, sample := range m.perf[side] {
		if key.ticker == ticker {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
