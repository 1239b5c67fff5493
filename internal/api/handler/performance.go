// internal/api/handler/performance.go
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/newthinker/straddle/internal/api/response"
	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/storage/cache"
)

// PerformanceStore is the read side of the performance tables.
type PerformanceStore interface {
	Performance(ctx context.Context, side cache.Side, ticker string) ([]core.PerformanceSample, error)
}

// PerformanceHandler serves persisted pre/post earnings moves.
type PerformanceHandler struct {
	store PerformanceStore
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(store PerformanceStore) *PerformanceHandler {
	return &PerformanceHandler{store: store}
}

// Get returns both performance tables for a ticker.
func (h *PerformanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("ticker query parameter is required")))
		return
	}

	pre, err := h.store.Performance(r.Context(), cache.SidePre, ticker)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	post, err := h.store.Performance(r.Context(), cache.SidePost, ticker)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"pre":    pre,
		"post":   post,
	})
}
