// internal/api/handler/api/report.go
package api

import (
	"net/http"

	"github.com/altalpha/lab/internal/api/response"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/research"
)

// ReportHandler serves analyst research notes.
type ReportHandler struct {
	svc      *research.Service
	defaults config.StrategyConfig
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *research.Service, defaults config.StrategyConfig) *ReportHandler {
	return &ReportHandler{svc: svc, defaults: defaults}
}

// Generate backtests the strategy and returns the analyst note.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStrategyRequest(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	report, err := h.svc.Report(r.Context(), req.Ticker, req.Start, req.End,
		req.params(h.defaults), req.backtestConfig(h.defaults))
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, report)
}
