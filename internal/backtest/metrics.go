package backtest

import (
	"math"
)

// TradingDaysPerYear is the annualization factor for daily series.
const TradingDaysPerYear = 252

// Metrics summarizes risk and return of a backtest. All percentage
// fields are expressed in percent; SharpeRatio is unitless.
type Metrics struct {
	TotalReturn          float64 `json:"total_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	TradingDays          int     `json:"trading_days"`
}

// CalculateMetrics reduces a backtest's daily return series into summary
// statistics. Pure function: a zero-length series yields zero metrics,
// and a zero-variance series yields Sharpe 0 rather than NaN.
func CalculateMetrics(r *Result) Metrics {
	returns := r.StrategyReturns()
	n := len(returns)
	if n == 0 {
		return Metrics{}
	}

	totalReturn := 1.0
	for _, ret := range returns {
		totalReturn *= 1 + ret
	}
	totalReturn -= 1

	annualizedReturn := math.Pow(1+totalReturn, TradingDaysPerYear/float64(n)) - 1

	mean := meanOf(returns)
	std := sampleStd(returns, mean)
	annualizedVol := std * math.Sqrt(TradingDaysPerYear)

	sharpe := 0.0
	if std > 0 {
		sharpe = (mean * TradingDaysPerYear) / (std * math.Sqrt(TradingDaysPerYear))
	}

	return Metrics{
		TotalReturn:          totalReturn * 100,
		AnnualizedReturn:     annualizedReturn * 100,
		AnnualizedVolatility: annualizedVol * 100,
		SharpeRatio:          sharpe,
		MaxDrawdown:          maxDrawdown(r.Values()) * 100,
		TradingDays:          n,
	}
}

// maxDrawdown returns the deepest decline from the running peak of the
// value series, as a fraction <= 0. The peak starts at the first value
// and never decreases.
func maxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	peak := values[0]
	maxDD := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (v - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 denominator standard deviation; 0 for fewer than
// two observations.
func sampleStd(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)-1))
}
