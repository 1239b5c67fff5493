// Package archive stores aligned-series snapshots for later replay, on a
// local filesystem or an S3-compatible backend.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/newthinker/straddle/internal/core"
)

// Backend abstracts the raw byte storage underneath the archive.
type Backend interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Archive writes and reads event-result snapshots keyed by ticker and
// earnings date.
type Archive struct {
	backend Backend
}

// New creates an archive over a backend.
func New(backend Backend) *Archive {
	return &Archive{backend: backend}
}

func snapshotPath(ticker string, earningsDate time.Time) string {
	return fmt.Sprintf("series/%s/%s.json", ticker, earningsDate.Format("2006-01-02"))
}

// SaveResult stores one event result as a JSON snapshot.
func (a *Archive) SaveResult(ctx context.Context, result core.EventResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return a.backend.Write(ctx, snapshotPath(result.Event.Ticker, result.Event.Date), data)
}

// LoadResult reads a previously archived event result.
func (a *Archive) LoadResult(ctx context.Context, ticker string, earningsDate time.Time) (*core.EventResult, error) {
	data, err := a.backend.Read(ctx, snapshotPath(ticker, earningsDate))
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var result core.EventResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &result, nil
}

// ListTicker returns the snapshot paths stored for a ticker.
func (a *Archive) ListTicker(ctx context.Context, ticker string) ([]string, error) {
	return a.backend.List(ctx, "series/"+ticker)
}

// Has reports whether a snapshot exists for the given event.
func (a *Archive) Has(ctx context.Context, ticker string, earningsDate time.Time) (bool, error) {
	return a.backend.Exists(ctx, snapshotPath(ticker, earningsDate))
}
