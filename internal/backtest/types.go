package backtest

import (
	"time"

	"github.com/altalpha/lab/internal/core"
)

// TradeType labels the side of a trade.
type TradeType string

const (
	TradeLong  TradeType = "LONG"
	TradeShort TradeType = "SHORT"
)

// Trade is one completed round trip. Created when a position closes and
// immutable afterward; a position still open on the final day never
// becomes a Trade.
type Trade struct {
	ID               int       `json:"trade_id"`
	Type             TradeType `json:"type"`
	EntryDate        time.Time `json:"entry_date"`
	EntryPrice       float64   `json:"entry_price"`
	EntryValue       float64   `json:"entry_value"`
	ExitDate         time.Time `json:"exit_date"`
	ExitPrice        float64   `json:"exit_price"`
	ExitValue        float64   `json:"exit_value"`
	Shares           float64   `json:"shares"`
	ProfitLoss       float64   `json:"profit_loss"`
	ProfitLossPct    float64   `json:"profit_loss_pct"`
	HoldingDays      int       `json:"holding_days"`
	TransactionCosts float64   `json:"transaction_costs"`
}

// IsWin returns true if the trade was profitable.
func (t Trade) IsWin() bool {
	return t.ProfitLoss > 0
}

// DayResult is one day of the simulated portfolio.
type DayResult struct {
	Date           time.Time     `json:"date"`
	PortfolioValue float64       `json:"portfolio_value"`
	StrategyReturn float64       `json:"strategy_returns"`
	MarketReturn   float64       `json:"market_returns"`
	Position       core.Position `json:"position"`
}

// Result holds the complete backtest output. Read-only downstream.
type Result struct {
	Data           []DayResult `json:"data"`
	InitialCapital float64     `json:"initial_capital"`
	FinalValue     float64     `json:"final_value"`
	Trades         []Trade     `json:"trades"`
}

// TotalReturnPct is the overall portfolio return in percent.
func (r *Result) TotalReturnPct() float64 {
	if r.InitialCapital == 0 {
		return 0
	}
	return (r.FinalValue - r.InitialCapital) / r.InitialCapital * 100
}

// StrategyReturns extracts the daily strategy return series.
func (r *Result) StrategyReturns() []float64 {
	out := make([]float64, len(r.Data))
	for i, d := range r.Data {
		out[i] = d.StrategyReturn
	}
	return out
}

// Values extracts the daily portfolio value series.
func (r *Result) Values() []float64 {
	out := make([]float64, len(r.Data))
	for i, d := range r.Data {
		out[i] = d.PortfolioValue
	}
	return out
}
