// internal/api/handler/api/requests.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/signal"
)

// StrategyRequest is the shared request body for signal, backtest,
// metrics, simulate and report endpoints. Omitted parameters fall back
// to the configured defaults.
type StrategyRequest struct {
	Ticker               string   `json:"ticker"`
	Start                string   `json:"start,omitempty"`
	End                  string   `json:"end,omitempty"`
	SentimentThreshold   *float64 `json:"sentiment_threshold,omitempty"`
	VolatilityPercentile *float64 `json:"volatility_percentile,omitempty"`
	InitialCapital       *float64 `json:"initial_capital,omitempty"`
	TransactionCost      *float64 `json:"transaction_cost,omitempty"`
}

func decodeStrategyRequest(r *http.Request) (*StrategyRequest, error) {
	var req StrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("invalid request body: %w", err))
	}
	if req.Ticker == "" {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("ticker is required"))
	}
	return &req, nil
}

func (req *StrategyRequest) params(defaults config.StrategyConfig) signal.Params {
	p := signal.Params{
		SentimentThreshold:   defaults.SentimentThreshold,
		VolatilityPercentile: defaults.VolatilityPercentile,
	}
	if req.SentimentThreshold != nil {
		p.SentimentThreshold = *req.SentimentThreshold
	}
	if req.VolatilityPercentile != nil {
		p.VolatilityPercentile = *req.VolatilityPercentile
	}
	return p
}

func (req *StrategyRequest) backtestConfig(defaults config.StrategyConfig) backtest.Config {
	c := backtest.Config{
		InitialCapital:  defaults.InitialCapital,
		TransactionCost: defaults.TransactionCost,
	}
	if req.InitialCapital != nil {
		c.InitialCapital = *req.InitialCapital
	}
	if req.TransactionCost != nil {
		c.TransactionCost = *req.TransactionCost
	}
	return c
}

// tickerQuery reads ticker/start/end from GET query parameters.
func tickerQuery(r *http.Request) (ticker, start, end string, err error) {
	q := r.URL.Query()
	ticker = q.Get("ticker")
	if ticker == "" {
		return "", "", "", core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("ticker query parameter is required"))
	}
	return ticker, q.Get("start"), q.Get("end"), nil
}
