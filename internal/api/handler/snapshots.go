// internal/api/handler/snapshots.go
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/straddle/internal/api/response"
	"github.com/newthinker/straddle/internal/core"
)

// SnapshotReader reads archived series snapshots.
type SnapshotReader interface {
	LoadResult(ctx context.Context, ticker string, earningsDate time.Time) (*core.EventResult, error)
	ListTicker(ctx context.Context, ticker string) ([]string, error)
}

// SnapshotHandler serves archived per-event series snapshots for visual
// inspection.
type SnapshotHandler struct {
	archive SnapshotReader
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(archive SnapshotReader) *SnapshotHandler {
	return &SnapshotHandler{archive: archive}
}

// List returns the archived snapshot names for a ticker.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))

	names, err := h.archive.ListTicker(r.Context(), ticker)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker":    ticker,
		"snapshots": names,
	})
}

// Get returns one archived event result with its full aligned series.
func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(r.PathValue("ticker"))

	date, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("date must be YYYY-MM-DD: %w", err)))
		return
	}

	result, err := h.archive.LoadResult(r.Context(), ticker, date)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}
