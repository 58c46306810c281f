package backtest

import (
	"time"

	"github.com/altalpha/lab/internal/core"
)

// openTrade tracks the position currently held, if any.
type openTrade struct {
	side       core.Position
	entryDate  time.Time
	entryPrice float64
	entryIndex int
	shares     float64
	invested   float64 // capital committed after the entry cost
	entryCost  float64
}

// State is the running fold over signal rows: cash, the open position
// and the accumulating trade ledger. Each backtest or simulation owns
// its own State; it is never shared across runs.
type State struct {
	cash     float64
	position core.Position
	open     *openTrade
	trades   []Trade
}

// NewState initializes the fold with the starting capital, flat.
func NewState(initialCapital float64) *State {
	return &State{cash: initialCapital, position: core.PositionFlat}
}

// Apply executes the day's position transition at the given close price.
// When the target position differs from the current one, any open trade
// is closed (realizing P&L net of the exit cost) and, if the target is
// nonzero, a new trade is opened with all available capital. Returns the
// closed trade, if one was completed this day.
//
// Transaction cost is costFrac x notional, charged once per side.
func (s *State) Apply(index int, date time.Time, close float64, target core.Position, costFrac float64) *Trade {
	if target == s.position {
		return nil
	}

	var closed *Trade
	if s.open != nil {
		closed = s.closeTrade(index, date, close, costFrac)
	}
	if target != core.PositionFlat {
		s.openTrade(index, date, close, target, costFrac)
	}
	s.position = target
	return closed
}

func (s *State) closeTrade(index int, date time.Time, close float64, costFrac float64) *Trade {
	o := s.open
	notional := o.shares * close
	exitCost := notional * costFrac
	gross := float64(o.side) * (close - o.entryPrice) * o.shares
	pnl := gross - exitCost
	exitValue := o.invested + pnl

	s.cash = exitValue
	s.open = nil

	pnlPct := 0.0
	if o.invested > 0 {
		pnlPct = pnl / o.invested * 100
	}

	t := Trade{
		ID:               len(s.trades) + 1,
		Type:             tradeType(o.side),
		EntryDate:        o.entryDate,
		EntryPrice:       o.entryPrice,
		EntryValue:       o.invested,
		ExitDate:         date,
		ExitPrice:        close,
		ExitValue:        exitValue,
		Shares:           o.shares,
		ProfitLoss:       pnl,
		ProfitLossPct:    pnlPct,
		HoldingDays:      index - o.entryIndex,
		TransactionCosts: o.entryCost + exitCost,
	}
	s.trades = append(s.trades, t)
	return &s.trades[len(s.trades)-1]
}

func (s *State) openTrade(index int, date time.Time, close float64, side core.Position, costFrac float64) {
	entryCost := s.cash * costFrac
	invested := s.cash - entryCost
	s.open = &openTrade{
		side:       side,
		entryDate:  date,
		entryPrice: close,
		entryIndex: index,
		shares:     invested / close,
		invested:   invested,
		entryCost:  entryCost,
	}
	s.cash = 0
}

// Value marks the portfolio to market at the given close price.
func (s *State) Value(close float64) float64 {
	if s.open == nil {
		return s.cash
	}
	return s.cash + s.open.invested + float64(s.open.side)*(close-s.open.entryPrice)*s.open.shares
}

// UnrealizedPnL is the open position's mark-to-market P&L, 0 when flat.
func (s *State) UnrealizedPnL(close float64) float64 {
	if s.open == nil {
		return 0
	}
	return float64(s.open.side) * (close - s.open.entryPrice) * s.open.shares
}

// Cash returns uninvested cash.
func (s *State) Cash() float64 { return s.cash }

// Position returns the current position.
func (s *State) Position() core.Position { return s.position }

// Shares returns the size of the open position, 0 when flat.
func (s *State) Shares() float64 {
	if s.open == nil {
		return 0
	}
	return s.open.shares
}

// EntryPrice returns the open trade's entry price, 0 when flat.
func (s *State) EntryPrice() float64 {
	if s.open == nil {
		return 0
	}
	return s.open.entryPrice
}

// EntryDate returns the open trade's entry date, zero when flat.
func (s *State) EntryDate() time.Time {
	if s.open == nil {
		return time.Time{}
	}
	return s.open.entryDate
}

// EntryValue returns the capital committed to the open trade, 0 when flat.
func (s *State) EntryValue() float64 {
	if s.open == nil {
		return 0
	}
	return s.open.invested
}

// Trades returns the completed-trade ledger accumulated so far.
func (s *State) Trades() []Trade { return s.trades }

func tradeType(side core.Position) TradeType {
	if side == core.PositionShort {
		return TradeShort
	}
	return TradeLong
}
