// internal/api/handler/api/strategy.go
package api

import (
	"net/http"

	"github.com/altalpha/lab/internal/api/response"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/research"
)

// StrategyHandler serves signal generation, backtests and metrics.
type StrategyHandler struct {
	svc      *research.Service
	defaults config.StrategyConfig
}

// NewStrategyHandler creates a new strategy handler.
func NewStrategyHandler(svc *research.Service, defaults config.StrategyConfig) *StrategyHandler {
	return &StrategyHandler{svc: svc, defaults: defaults}
}

// Signals generates trading signals for the requested parameters.
func (h *StrategyHandler) Signals(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStrategyRequest(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	result, err := h.svc.Strategy(r.Context(), req.Ticker, req.Start, req.End,
		req.params(h.defaults))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Backtest runs a full backtest and returns equity curve, trades and
// metrics.
func (h *StrategyHandler) Backtest(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStrategyRequest(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	result, err := h.svc.Backtest(r.Context(), req.Ticker, req.Start, req.End,
		req.params(h.defaults), req.backtestConfig(h.defaults))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Metrics runs a backtest but returns only the performance metrics.
func (h *StrategyHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStrategyRequest(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	result, err := h.svc.Backtest(r.Context(), req.Ticker, req.Start, req.End,
		req.params(h.defaults), req.backtestConfig(h.defaults))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker":     result.Ticker,
		"parameters": result.Params,
		"metrics":    result.Metrics,
		"trades":     len(result.Result.Trades),
	})
}
