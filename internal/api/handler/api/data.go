// internal/api/handler/api/data.go
package api

import (
	"net/http"

	"github.com/altalpha/lab/internal/api/response"
	"github.com/altalpha/lab/internal/research"
)

// DataHandler serves raw pipeline data: prices, sentiment and features.
type DataHandler struct {
	svc *research.Service
}

// NewDataHandler creates a new data handler.
func NewDataHandler(svc *research.Service) *DataHandler {
	return &DataHandler{svc: svc}
}

// PriceData returns daily close history for a ticker.
func (h *DataHandler) PriceData(w http.ResponseWriter, r *http.Request) {
	ticker, start, end, err := tickerQuery(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	bars, err := h.svc.PriceData(r.Context(), ticker, start, end)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"days":   len(bars),
		"bars":   bars,
	})
}

// Sentiment returns the sentiment series aligned to trading days.
func (h *DataHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	ticker, start, end, err := tickerQuery(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	points, err := h.svc.SentimentSeries(r.Context(), ticker, start, end)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker":    ticker,
		"days":      len(points),
		"sentiment": points,
	})
}

// Features returns the joined feature table for a ticker.
func (h *DataHandler) Features(w http.ResponseWriter, r *http.Request) {
	ticker, start, end, err := tickerQuery(r)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	rows, err := h.svc.Features(r.Context(), ticker, start, end)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"ticker":   ticker,
		"days":     len(rows),
		"features": rows,
	})
}
