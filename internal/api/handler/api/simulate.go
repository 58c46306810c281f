// internal/api/handler/api/simulate.go
package api

import (
	"net/http"

	"github.com/altalpha/lab/internal/api/response"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/research"
	"github.com/altalpha/lab/internal/simulator"
)

// SimulateHandler replays the strategy day by day.
type SimulateHandler struct {
	svc      *research.Service
	defaults config.StrategyConfig
}

// NewSimulateHandler creates a new simulate handler.
func NewSimulateHandler(svc *research.Service, defaults config.StrategyConfig) *SimulateHandler {
	return &SimulateHandler{svc: svc, defaults: defaults}
}

// Run executes a live simulation over the requested window.
func (h *SimulateHandler) Run(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStrategyRequest(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	btCfg := req.backtestConfig(h.defaults)
	simCfg := simulator.Config{
		Params:          req.params(h.defaults),
		InitialCapital:  btCfg.InitialCapital,
		TransactionCost: btCfg.TransactionCost,
	}

	result, err := h.svc.Simulate(r.Context(), req.Ticker, req.Start, req.End, simCfg)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}
