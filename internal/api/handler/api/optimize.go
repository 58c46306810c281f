// internal/api/handler/api/optimize.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/altalpha/lab/internal/api/job"
	"github.com/altalpha/lab/internal/api/response"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/optimizer"
	"github.com/altalpha/lab/internal/research"
)

const optimizeTimeout = 5 * time.Minute

// GridRequest overrides one axis of the optimization grid.
type GridRequest struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step *float64 `json:"step,omitempty"`
}

// OptimizeRequest is the request body for starting an optimization job.
type OptimizeRequest struct {
	Ticker          string       `json:"ticker"`
	Start           string       `json:"start,omitempty"`
	End             string       `json:"end,omitempty"`
	Sentiment       *GridRequest `json:"sentiment,omitempty"`
	Volatility      *GridRequest `json:"volatility,omitempty"`
	InitialCapital  *float64     `json:"initial_capital,omitempty"`
	TransactionCost *float64     `json:"transaction_cost,omitempty"`
	Workers         *int         `json:"workers,omitempty"`
	TopN            *int         `json:"top_n,omitempty"`
}

// OptimizeHandler runs grid searches as async jobs.
type OptimizeHandler struct {
	jobStore *job.Store
	svc      *research.Service
	cfg      *config.Config
}

// NewOptimizeHandler creates a new optimize handler.
func NewOptimizeHandler(jobStore *job.Store, svc *research.Service, cfg *config.Config) *OptimizeHandler {
	return &OptimizeHandler{jobStore: jobStore, svc: svc, cfg: cfg}
}

// Create starts a new optimization job.
func (h *OptimizeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		wrapped := core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("invalid request body: %w", err))
		response.Error(w, http.StatusBadRequest, wrapped)
		return
	}
	if req.Ticker == "" {
		wrapped := core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("ticker is required"))
		response.Error(w, http.StatusBadRequest, wrapped)
		return
	}

	optCfg := h.optimizerConfig(&req)

	// Create job
	j := h.jobStore.Create("optimize")

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.runOptimization(jobID, req.Ticker, req.Start, req.End, optCfg)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// optimizerConfig merges request overrides onto configured defaults.
func (h *OptimizeHandler) optimizerConfig(req *OptimizeRequest) optimizer.Config {
	cfg := optimizer.Config{
		Sentiment:       gridFrom(h.cfg.Optimizer.Sentiment, req.Sentiment),
		Volatility:      gridFrom(h.cfg.Optimizer.Volatility, req.Volatility),
		InitialCapital:  h.cfg.Strategy.InitialCapital,
		TransactionCost: h.cfg.Strategy.TransactionCost,
		Workers:         h.cfg.Optimizer.Workers,
		TopN:            h.cfg.Optimizer.TopN,
	}
	if req.InitialCapital != nil {
		cfg.InitialCapital = *req.InitialCapital
	}
	if req.TransactionCost != nil {
		cfg.TransactionCost = *req.TransactionCost
	}
	if req.Workers != nil {
		cfg.Workers = *req.Workers
	}
	if req.TopN != nil {
		cfg.TopN = *req.TopN
	}
	return cfg
}

func gridFrom(defaults config.GridConfig, req *GridRequest) optimizer.Grid {
	g := optimizer.Grid{Min: defaults.Min, Max: defaults.Max, Step: defaults.Step}
	if req == nil {
		return g
	}
	if req.Min != nil {
		g.Min = *req.Min
	}
	if req.Max != nil {
		g.Max = *req.Max
	}
	if req.Step != nil {
		g.Step = *req.Step
	}
	return g
}

// runOptimization executes the grid search and updates job status.
func (h *OptimizeHandler) runOptimization(jobID, ticker, start, end string, optCfg optimizer.Config) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), optimizeTimeout)
	defer cancel()
	result, err := h.svc.Optimize(ctx, ticker, start, end, optCfg)

	if err != nil {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			var coreErr *core.Error
			if errors.As(err, &coreErr) {
				j.Error = coreErr
			} else {
				j.Error = core.WrapError(core.ErrInvalidParameter, err)
			}
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
}

// GetStatus returns the status of an optimization job.
func (h *OptimizeHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobStore.Get(jobID)
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
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
