// internal/api/handler/analysis.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/straddle/internal/api/job"
	"github.com/newthinker/straddle/internal/api/response"
	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/metrics"
)

const analysisTimeout = 10 * time.Minute

// Runner executes the straddle analysis for a ticker.
type Runner interface {
	Run(ctx context.Context, ticker string, lookback, lookahead int) ([]core.EventResult, error)
}

// AnalysisRequest is the request body for starting an analysis.
type AnalysisRequest struct {
	Ticker    string `json:"ticker"`
	Lookback  int    `json:"lookback,omitempty"`
	Lookahead int    `json:"lookahead,omitempty"`
}

// AnalysisHandler starts analysis jobs and reports their status.
type AnalysisHandler struct {
	jobStore         *job.Store
	runner           Runner
	defaultLookback  int
	defaultLookahead int
	metrics          *metrics.Registry
	logger           *zap.Logger
}

// NewAnalysisHandler creates a new analysis handler. The default window is
// used when the request omits lookback or lookahead.
func NewAnalysisHandler(
	jobStore *job.Store,
	runner Runner,
	defaultLookback, defaultLookahead int,
	reg *metrics.Registry,
	logger *zap.Logger,
) *AnalysisHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisHandler{
		jobStore:         jobStore,
		runner:           runner,
		defaultLookback:  defaultLookback,
		defaultLookahead: defaultLookahead,
		metrics:          reg,
		logger:           logger,
	}
}

// Create starts a new analysis job.
func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, fmt.Errorf("ticker is required")))
		return
	}

	lookback := req.Lookback
	if lookback == 0 {
		lookback = h.defaultLookback
	}
	lookahead := req.Lookahead
	if lookahead == 0 {
		lookahead = h.defaultLookahead
	}
	if err := validateSessions("lookback", lookback); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := validateSessions("lookahead", lookahead); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	j := h.jobStore.Create(ticker)
	jobID := j.ID
	status := j.Status

	go h.runAnalysis(jobID, ticker, lookback, lookahead)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"ticker": ticker,
		"status": status,
	})
}

// runAnalysis executes the analysis and updates job status.
func (h *AnalysisHandler) runAnalysis(jobID, ticker string, lookback, lookahead int) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})
	h.setJobsActive()

	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()
	results, err := h.runner.Run(ctx, ticker, lookback, lookahead)

	if err != nil {
		h.logger.Warn("analysis job failed",
			zap.String("job_id", jobID),
			zap.String("ticker", ticker),
			zap.Error(err),
		)
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		h.setJobsActive()
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = results
	})
	h.setJobsActive()
}

// GetStatus returns the status of an analysis job.
func (h *AnalysisHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"ticker": j.Ticker,
		"status": j.Status,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

func (h *AnalysisHandler) setJobsActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(h.jobStore.Active())
	}
}

func validateSessions(name string, sessions int) error {
	if sessions < 1 || sessions > 10 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("%s must be between 1 and 10 sessions, got %d", name, sessions))
	}
	return nil
}

// asCoreError normalizes any error into the coded form jobs carry.
func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return core.WrapError(core.ErrProviderFailed, err)
}
