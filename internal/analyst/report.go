// Package analyst turns backtest metrics into a research-note style
// narrative: rating, risk commentary and a volatility-regime breakdown.
// When an LLM provider is configured the narrative is rewritten by it;
// otherwise a deterministic rule-based text is used.
package analyst

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/feature"
	"github.com/altalpha/lab/internal/llm"
	"go.uber.org/zap"
)

// RegimeStats summarizes market behavior within one volatility regime.
type RegimeStats struct {
	Days              int     `json:"days"`
	AvgDailyReturnPct float64 `json:"avg_daily_return_pct"`
	VolatilityPct     float64 `json:"volatility_pct"`
	SharpeEstimate    float64 `json:"sharpe_estimate"`
}

// RegimeAnalysis splits the sample at the median rolling volatility and
// compares the two halves.
type RegimeAnalysis struct {
	HighVolatility  RegimeStats `json:"high_volatility"`
	LowVolatility   RegimeStats `json:"low_volatility"`
	PreferredRegime string      `json:"preferred_regime"`
	Insight         string      `json:"insight"`
}

// Report is the analyst output for one strategy configuration.
type Report struct {
	Ticker            string           `json:"ticker"`
	Metrics           backtest.Metrics `json:"metrics"`
	Rating            string           `json:"rating"`
	Analysis          string           `json:"analysis"`
	VolatilityRegimes *RegimeAnalysis  `json:"volatility_regimes,omitempty"`
	Source            string           `json:"source"`
}

// Analyst generates reports, optionally polished by an LLM provider.
type Analyst struct {
	provider llm.Provider
	logger   *zap.Logger
}

// New creates an analyst. provider may be nil for rule-based reports.
func New(provider llm.Provider, logger *zap.Logger) *Analyst {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{provider: provider, logger: logger}
}

// Report builds the research note for a ticker from its metrics and
// feature history.
func (a *Analyst) Report(ctx context.Context, ticker string, m backtest.Metrics, rows []feature.Row) (*Report, error) {
	rating := rate(m.SharpeRatio)
	regimes := analyzeRegimes(rows)
	analysis := narrative(ticker, m, rating, regimes)
	source := "rules"

	if a.provider != nil {
		polished, err := a.polish(ctx, ticker, m, analysis)
		if err != nil {
			a.logger.Warn("LLM polish failed, using rule-based analysis",
				zap.String("ticker", ticker), zap.Error(err))
		} else {
			analysis = polished
			source = a.provider.Name()
		}
	}

	return &Report{
		Ticker:            ticker,
		Metrics:           m,
		Rating:            rating,
		Analysis:          analysis,
		VolatilityRegimes: regimes,
		Source:            source,
	}, nil
}

func rate(sharpe float64) string {
	switch {
	case sharpe > 1.5:
		return "strong"
	case sharpe > 1.0:
		return "good"
	case sharpe > 0.5:
		return "moderate"
	case sharpe > 0:
		return "weak"
	default:
		return "poor"
	}
}

func narrative(ticker string, m backtest.Metrics, rating string, regimes *RegimeAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The sentiment strategy on %s produced a Sharpe ratio of %.2f over %d trading days, a %s risk-adjusted result. ",
		ticker, m.SharpeRatio, m.TradingDays, rating)
	fmt.Fprintf(&b, "Total return was %.2f%% (%.2f%% annualized) against %.2f%% annualized volatility. ",
		m.TotalReturn, m.AnnualizedReturn, m.AnnualizedVolatility)

	switch {
	case m.MaxDrawdown < -20:
		fmt.Fprintf(&b, "The maximum drawdown of %.2f%% is severe and would test most risk budgets. ", m.MaxDrawdown)
	case m.MaxDrawdown < -10:
		fmt.Fprintf(&b, "The maximum drawdown of %.2f%% is material but within typical tolerance for an equity strategy. ", m.MaxDrawdown)
	default:
		fmt.Fprintf(&b, "Drawdowns were contained, with a maximum of %.2f%%. ", m.MaxDrawdown)
	}

	if regimes != nil {
		b.WriteString(regimes.Insight)
		b.WriteString(" ")
	}

	switch rating {
	case "strong", "good":
		b.WriteString("The configuration merits further validation on out-of-sample data.")
	case "moderate":
		b.WriteString("Parameter optimization may improve the configuration before further testing.")
	default:
		b.WriteString("The configuration does not justify further investment of research time as parameterized.")
	}

	return b.String()
}

// analyzeRegimes splits days at the median rolling volatility and
// estimates an annualized Sharpe of the raw market returns in each half.
// Needs a reasonable sample; returns nil below 10 rows.
func analyzeRegimes(rows []feature.Row) *RegimeAnalysis {
	if len(rows) < 10 {
		return nil
	}

	vols := make([]float64, len(rows))
	for i, r := range rows {
		vols[i] = r.Volatility5
	}
	median := medianOf(vols)

	var high, low []float64
	for _, r := range rows {
		if r.Volatility5 > median {
			high = append(high, r.Return)
		} else {
			low = append(low, r.Return)
		}
	}

	hs := regimeStats(high)
	ls := regimeStats(low)

	preferred := "neutral"
	insight := "Market behavior is similar across volatility regimes."
	if hs.SharpeEstimate > ls.SharpeEstimate+0.1 {
		preferred = "high_volatility"
		insight = "Returns have been more attractive during high-volatility periods."
	} else if ls.SharpeEstimate > hs.SharpeEstimate+0.1 {
		preferred = "low_volatility"
		insight = "Returns have been more attractive during low-volatility periods, supporting the volatility filter."
	}

	return &RegimeAnalysis{
		HighVolatility:  hs,
		LowVolatility:   ls,
		PreferredRegime: preferred,
		Insight:         insight,
	}
}

func regimeStats(returns []float64) RegimeStats {
	if len(returns) == 0 {
		return RegimeStats{}
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := 0.0
	if len(returns) > 1 {
		std = math.Sqrt(variance / float64(len(returns)-1))
	}

	sharpe := 0.0
	if std > 0 {
		sharpe = (mean * backtest.TradingDaysPerYear) /
			(std * math.Sqrt(backtest.TradingDaysPerYear))
	}

	return RegimeStats{
		Days:              len(returns),
		AvgDailyReturnPct: mean * 100,
		VolatilityPct:     std * 100,
		SharpeEstimate:    sharpe,
	}
}

func medianOf(xs []float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

const polishSystemPrompt = "You are an equity research analyst. Rewrite the draft into a professional, " +
	"concise research note of 5-6 sentences. Keep every number exactly as given. Do not invent data."

func (a *Analyst) polish(ctx context.Context, ticker string, m backtest.Metrics, draft string) (string, error) {
	prompt := fmt.Sprintf(
		"Ticker: %s\nSharpe: %.3f\nTotal return: %.2f%%\nAnnualized return: %.2f%%\nAnnualized volatility: %.2f%%\nMax drawdown: %.2f%%\nTrading days: %d\n\nDraft:\n%s",
		ticker, m.SharpeRatio, m.TotalReturn, m.AnnualizedReturn,
		m.AnnualizedVolatility, m.MaxDrawdown, m.TradingDays, draft)

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: polishSystemPrompt,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    512,
		Temperature:  0.4,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("empty LLM response")
	}
	return resp.Content, nil
}
