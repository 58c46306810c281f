// Package backtest simulates holding a daily position series against
// realized returns, producing a portfolio-value series, a trade ledger
// and summary performance metrics.
package backtest

import (
	"fmt"

	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/signal"
)

// Config holds the capital and cost assumptions for a run.
type Config struct {
	InitialCapital  float64 `json:"initial_capital"`
	TransactionCost float64 `json:"transaction_cost"`
}

// Validate fails fast on out-of-domain configuration, before any
// simulation work.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("initial_capital must be positive, got %f", c.InitialCapital))
	}
	if c.TransactionCost < 0 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("transaction_cost cannot be negative, got %f", c.TransactionCost))
	}
	return nil
}

// Run folds the signal rows in date order through the trade state
// machine. Position changes execute at the day's close; on days without
// a transition the portfolio is simply marked to market. A position
// still open after the final row stays out of the ledger but its
// mark-to-market value is included in the final portfolio value.
func Run(rows []signal.Row, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no signal rows to backtest"))
	}

	st := NewState(cfg.InitialCapital)
	data := make([]DayResult, len(rows))
	prevValue := cfg.InitialCapital

	for i, r := range rows {
		st.Apply(i, r.Date, r.Close, r.Position, cfg.TransactionCost)

		value := st.Value(r.Close)
		strategyReturn := 0.0
		if prevValue > 0 {
			strategyReturn = value/prevValue - 1
		}

		data[i] = DayResult{
			Date:           r.Date,
			PortfolioValue: value,
			StrategyReturn: strategyReturn,
			MarketReturn:   r.Return,
			Position:       r.Position,
		}
		prevValue = value
	}

	return &Result{
		Data:           data,
		InitialCapital: cfg.InitialCapital,
		FinalValue:     prevValue,
		Trades:         st.Trades(),
	}, nil
}
