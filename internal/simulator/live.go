// Package simulator replays the signal and backtest logic day by day,
// emitting a full point-in-time snapshot per step for playback UIs. The
// per-step accounting is the backtest engine's state machine, observed
// rather than folded to a single terminal value.
package simulator

import (
	"time"

	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/feature"
	"github.com/altalpha/lab/internal/signal"
)

// Config drives one simulation run.
type Config struct {
	Params          signal.Params
	InitialCapital  float64
	TransactionCost float64
}

// MarketData is the day's observable inputs.
type MarketData struct {
	Close         float64 `json:"close"`
	SentimentAvg5 float64 `json:"rolling_sentiment_5d"`
	Volatility5   float64 `json:"volatility_5d"`
}

// PositionState describes the held position at the end of a step.
type PositionState struct {
	Current          core.Position `json:"current"`
	Type             string        `json:"type"`
	Shares           float64       `json:"shares"`
	EntryPrice       float64       `json:"entry_price"`
	UnrealizedPnL    float64       `json:"unrealized_pnl"`
	UnrealizedPnLPct float64       `json:"unrealized_pnl_pct"`
}

// PortfolioState describes portfolio value and the day's P&L.
type PortfolioState struct {
	Cash           float64 `json:"cash"`
	MarketValue    float64 `json:"market_value"`
	TotalValue     float64 `json:"total_value"`
	DailyPnL       float64 `json:"daily_pnl"`
	DailyPnLPct    float64 `json:"daily_pnl_pct"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// RiskState tracks the running peak and current drawdown.
type RiskState struct {
	PeakValue          float64 `json:"peak_value"`
	CurrentDrawdownPct float64 `json:"current_drawdown_pct"`
}

// TradeAction records an execution that happened during a step.
type TradeAction struct {
	Action string  `json:"action"` // LONG, SHORT or CLOSE
	Price  float64 `json:"price"`
	Shares float64 `json:"shares"`
	Value  float64 `json:"value"`
}

// State is one step of the simulation.
type State struct {
	Step       int            `json:"step"`
	Date       time.Time      `json:"date"`
	Market     MarketData     `json:"market_data"`
	Signal     core.Position  `json:"signal"`
	SignalType string         `json:"signal_type"`
	Position   PositionState  `json:"position"`
	Portfolio  PortfolioState `json:"portfolio"`
	Risk       RiskState      `json:"risk"`
	Trade      *TradeAction   `json:"trade,omitempty"`
}

// Summary aggregates the completed-trade ledger.
type Summary struct {
	TradingDays    int     `json:"trading_days"`
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	ProfitFactor   float64 `json:"profit_factor"`
	TotalProfit    float64 `json:"total_profit"`
	TotalLoss      float64 `json:"total_loss"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	BestTrade      float64 `json:"best_trade"`
	WorstTrade     float64 `json:"worst_trade"`
}

// Result is the full simulation output.
type Result struct {
	States          []State          `json:"simulation_states"`
	CompletedTrades []backtest.Trade `json:"completed_trades"`
	Summary         Summary          `json:"summary"`
	InitialCapital  float64          `json:"initial_capital"`
	FinalCapital    float64          `json:"final_capital"`
	TotalReturnPct  float64          `json:"total_return_pct"`
}

// Run generates signals for the feature rows and replays them through
// the trade state machine, one snapshot per day.
func Run(rows []feature.Row, cfg Config) (*Result, error) {
	btCfg := backtest.Config{InitialCapital: cfg.InitialCapital, TransactionCost: cfg.TransactionCost}
	if err := btCfg.Validate(); err != nil {
		return nil, err
	}

	sigRows, err := signal.Generate(rows, cfg.Params)
	if err != nil {
		return nil, err
	}

	st := backtest.NewState(cfg.InitialCapital)
	states := make([]State, 0, len(sigRows))
	prevValue := cfg.InitialCapital
	peak := cfg.InitialCapital
	maxDrawdownPct := 0.0

	for i, r := range sigRows {
		before := st.Position()
		closed := st.Apply(i, r.Date, r.Close, r.Position, cfg.TransactionCost)
		opened := r.Position != before && r.Position != core.PositionFlat

		value := st.Value(r.Close)
		dayPnL := value - prevValue
		dayPnLPct := 0.0
		if prevValue > 0 {
			dayPnLPct = dayPnL / prevValue * 100
		}

		if value > peak {
			peak = value
		}
		drawdownPct := 0.0
		if peak > 0 {
			drawdownPct = (peak - value) / peak * 100
		}
		if drawdownPct > maxDrawdownPct {
			maxDrawdownPct = drawdownPct
		}

		var action *TradeAction
		switch {
		case opened:
			action = &TradeAction{
				Action: r.Position.Label(),
				Price:  r.Close,
				Shares: st.Shares(),
				Value:  st.EntryValue(),
			}
		case closed != nil:
			action = &TradeAction{
				Action: "CLOSE",
				Price:  r.Close,
				Shares: closed.Shares,
				Value:  closed.ExitValue,
			}
		}

		unrealized := st.UnrealizedPnL(r.Close)
		unrealizedPct := 0.0
		if ev := st.EntryValue(); ev > 0 {
			unrealizedPct = unrealized / ev * 100
		}

		states = append(states, State{
			Step: i + 1,
			Date: r.Date,
			Market: MarketData{
				Close:         r.Close,
				SentimentAvg5: r.SentimentAvg5,
				Volatility5:   r.Volatility5,
			},
			Signal:     r.Position,
			SignalType: r.Position.Label(),
			Position: PositionState{
				Current:          st.Position(),
				Type:             st.Position().Label(),
				Shares:           st.Shares(),
				EntryPrice:       st.EntryPrice(),
				UnrealizedPnL:    unrealized,
				UnrealizedPnLPct: unrealizedPct,
			},
			Portfolio: PortfolioState{
				Cash:           st.Cash(),
				MarketValue:    value - st.Cash(),
				TotalValue:     value,
				DailyPnL:       dayPnL,
				DailyPnLPct:    dayPnLPct,
				TotalReturnPct: (value - cfg.InitialCapital) / cfg.InitialCapital * 100,
			},
			Risk: RiskState{
				PeakValue:          peak,
				CurrentDrawdownPct: drawdownPct,
			},
			Trade: action,
		})

		prevValue = value
	}

	trades := st.Trades()
	return &Result{
		States:          states,
		CompletedTrades: trades,
		Summary:         summarize(trades, len(states), maxDrawdownPct),
		InitialCapital:  cfg.InitialCapital,
		FinalCapital:    prevValue,
		TotalReturnPct:  (prevValue - cfg.InitialCapital) / cfg.InitialCapital * 100,
	}, nil
}

func summarize(trades []backtest.Trade, tradingDays int, maxDrawdownPct float64) Summary {
	s := Summary{
		TradingDays:    tradingDays,
		TotalTrades:    len(trades),
		MaxDrawdownPct: maxDrawdownPct,
	}
	if len(trades) == 0 {
		return s
	}

	var totalProfit, totalLoss float64
	best, worst := trades[0].ProfitLoss, trades[0].ProfitLoss
	for _, t := range trades {
		if t.IsWin() {
			s.WinningTrades++
			totalProfit += t.ProfitLoss
		} else {
			s.LosingTrades++
			totalLoss += t.ProfitLoss
		}
		if t.ProfitLoss > best {
			best = t.ProfitLoss
		}
		if t.ProfitLoss < worst {
			worst = t.ProfitLoss
		}
	}

	s.WinRatePct = float64(s.WinningTrades) / float64(len(trades)) * 100
	if s.WinningTrades > 0 {
		s.AvgWin = totalProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = totalLoss / float64(s.LosingTrades)
	}
	s.TotalProfit = totalProfit
	s.TotalLoss = totalLoss
	// Gross loss of zero leaves the ratio undefined; report 0 rather
	// than an unserializable infinity.
	if totalLoss != 0 {
		s.ProfitFactor = totalProfit / -totalLoss
	}
	s.BestTrade = best
	s.WorstTrade = worst
	return s
}
