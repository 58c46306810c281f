package backtest

import (
	"math"
	"testing"
)

func resultFromReturns(initial float64, returns []float64) *Result {
	data := make([]DayResult, len(returns))
	value := initial
	for i, r := range returns {
		value *= 1 + r
		data[i] = DayResult{
			Date:           day(i),
			PortfolioValue: value,
			StrategyReturn: r,
		}
	}
	return &Result{Data: data, InitialCapital: initial, FinalValue: value}
}

func TestCalculateMetrics_Empty(t *testing.T) {
	m := CalculateMetrics(&Result{InitialCapital: 10000})
	if m != (Metrics{}) {
		t.Errorf("empty result should yield zero metrics, got %+v", m)
	}
}

func TestCalculateMetrics_TotalReturnCompounds(t *testing.T) {
	res := resultFromReturns(10000, []float64{0.10, -0.05, 0.02})

	m := CalculateMetrics(res)

	want := (1.10*0.95*1.02 - 1) * 100
	if math.Abs(m.TotalReturn-want) > 1e-9 {
		t.Errorf("total return = %f, want %f", m.TotalReturn, want)
	}
	if m.TradingDays != 3 {
		t.Errorf("trading days = %d, want 3", m.TradingDays)
	}
}

func TestCalculateMetrics_ZeroVarianceSharpe(t *testing.T) {
	// Identical daily returns: std = 0, Sharpe must be 0, not NaN or Inf.
	res := resultFromReturns(10000, []float64{0.01, 0.01, 0.01, 0.01})

	m := CalculateMetrics(res)

	if m.SharpeRatio != 0 {
		t.Errorf("sharpe = %f, want 0 for zero variance", m.SharpeRatio)
	}
	if m.AnnualizedVolatility != 0 {
		t.Errorf("volatility = %f, want 0", m.AnnualizedVolatility)
	}
	if math.IsNaN(m.AnnualizedReturn) || math.IsInf(m.AnnualizedReturn, 0) {
		t.Errorf("annualized return not finite: %f", m.AnnualizedReturn)
	}
}

func TestCalculateMetrics_SharpeSign(t *testing.T) {
	up := CalculateMetrics(resultFromReturns(10000, []float64{0.01, 0.02, 0.015, 0.005}))
	if up.SharpeRatio <= 0 {
		t.Errorf("positive mean returns should give positive sharpe, got %f", up.SharpeRatio)
	}

	down := CalculateMetrics(resultFromReturns(10000, []float64{-0.01, -0.02, -0.015, -0.005}))
	if down.SharpeRatio >= 0 {
		t.Errorf("negative mean returns should give negative sharpe, got %f", down.SharpeRatio)
	}
}

func TestCalculateMetrics_MaxDrawdown(t *testing.T) {
	// Values 10000 -> 12000 -> 9000 -> 11000: deepest dip is 25% off the
	// 12000 peak.
	returns := []float64{0.2, -0.25, 11000.0/9000.0 - 1}
	res := resultFromReturns(10000, returns)

	m := CalculateMetrics(res)

	if math.Abs(m.MaxDrawdown-(-25)) > 1e-9 {
		t.Errorf("max drawdown = %f, want -25", m.MaxDrawdown)
	}
}

func TestCalculateMetrics_DrawdownNeverPositive(t *testing.T) {
	res := resultFromReturns(10000, []float64{0.01, 0.02, 0.03})

	m := CalculateMetrics(res)
	if m.MaxDrawdown > 0 {
		t.Errorf("max drawdown = %f, must be <= 0", m.MaxDrawdown)
	}
	if m.MaxDrawdown != 0 {
		t.Errorf("monotonic rise should have zero drawdown, got %f", m.MaxDrawdown)
	}
}

func TestMaxDrawdown_PeakNeverDecreases(t *testing.T) {
	// Second peak lower than first: drawdown still measured off the
	// all-time peak.
	values := []float64{100, 120, 80, 110, 90}
	dd := maxDrawdown(values)

	want := (80.0 - 120.0) / 120.0
	if math.Abs(dd-want) > 1e-12 {
		t.Errorf("drawdown = %f, want %f", dd, want)
	}
}

func TestResult_TotalReturnPct(t *testing.T) {
	r := &Result{InitialCapital: 10000, FinalValue: 11500}
	if got := r.TotalReturnPct(); math.Abs(got-15) > 1e-12 {
		t.Errorf("total return pct = %f, want 15", got)
	}

	zero := &Result{InitialCapital: 0, FinalValue: 100}
	if zero.TotalReturnPct() != 0 {
		t.Error("zero initial capital should yield 0, not Inf")
	}
}

func TestTrade_IsWin(t *testing.T) {
	if !(Trade{ProfitLoss: 1}).IsWin() {
		t.Error("positive P&L should be a win")
	}
	if (Trade{ProfitLoss: 0}).IsWin() {
		t.Error("zero P&L should not be a win")
	}
	if (Trade{ProfitLoss: -1}).IsWin() {
		t.Error("negative P&L should not be a win")
	}
}
