package research

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/signal"
)

// fixedSentiment returns preset scores aligned to the requested dates.
type fixedSentiment struct {
	scores []float64
}

func (f *fixedSentiment) Name() string { return "fixed" }

func (f *fixedSentiment) Series(symbol string, dates []time.Time) []core.SentimentPoint {
	points := make([]core.SentimentPoint, len(dates))
	for i, d := range dates {
		score := 0.0
		if i < len(f.scores) {
			score = f.scores[i]
		}
		points[i] = core.SentimentPoint{Date: d, Sentiment: score}
	}
	return points
}

func pipelineService(bars []core.DailyBar, scores []float64) *Service {
	cfg := config.Defaults()
	cfg.Data.StartDate = "2024-01-01"
	cfg.Data.EndDate = "2024-06-30"
	return NewService(cfg, &stubProvider{bars: bars}, &fixedSentiment{scores: scores}, nil, nil, nil)
}

// A 20-day monotonic rise from 100 to 120 with steady positive sentiment
// must come out long every post-warmup day, grow the capital and never
// draw down from the running peak.
func TestPipeline_BullishTrend(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.DailyBar, 20)
	scores := make([]float64, 20)
	for i := range bars {
		bars[i] = core.DailyBar{
			Date:  base.AddDate(0, 0, i),
			Close: 100 * math.Pow(1.2, float64(i)/19),
		}
		scores[i] = 0.3
	}

	svc := pipelineService(bars, scores)
	res, err := svc.Backtest(context.Background(), "AAPL", "", "",
		signal.Params{SentimentThreshold: 0.2, VolatilityPercentile: 100},
		backtest.Config{InitialCapital: 10000, TransactionCost: 0.001})
	if err != nil {
		t.Fatalf("Backtest failed: %v", err)
	}

	if res.Metrics.TradingDays != 15 {
		t.Fatalf("trading days = %d, want 15 (20 bars minus 5 warmup)", res.Metrics.TradingDays)
	}
	for i, d := range res.Result.Data {
		if d.Position != core.PositionLong {
			t.Errorf("day %d position = %s, want LONG", i, d.Position.Label())
		}
	}
	if res.Result.FinalValue <= 10000 {
		t.Errorf("final value = %f, want > 10000 on a rising market", res.Result.FinalValue)
	}
	if res.Metrics.MaxDrawdown != 0 {
		t.Errorf("max drawdown = %f, want 0 on a monotonic rise", res.Metrics.MaxDrawdown)
	}
	if res.Metrics.TotalReturn <= 0 {
		t.Errorf("total return = %f, want > 0", res.Metrics.TotalReturn)
	}
}

// A constant price with sentiment alternating +-0.5 makes the 5-day
// rolling mean alternate +-0.1, flipping the position every day. Costs
// are the only thing moving the portfolio: zero cost keeps the capital
// exactly, a 1% per-side cost must strictly erode it.
func TestPipeline_DailyFlipCostDrag(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.DailyBar, 25)
	scores := make([]float64, 25)
	for i := range bars {
		bars[i] = core.DailyBar{Date: base.AddDate(0, 0, i), Close: 100}
		scores[i] = 0.5
		if i%2 == 1 {
			scores[i] = -0.5
		}
	}

	params := signal.Params{SentimentThreshold: 0.05, VolatilityPercentile: 50}
	run := func(cost float64) *BacktestResult {
		t.Helper()
		svc := pipelineService(bars, scores)
		res, err := svc.Backtest(context.Background(), "AAPL", "", "", params,
			backtest.Config{InitialCapital: 10000, TransactionCost: cost})
		if err != nil {
			t.Fatalf("Backtest with cost %f failed: %v", cost, err)
		}
		return res
	}

	free := run(0)
	costly := run(0.01)

	for i := 1; i < len(free.Result.Data); i++ {
		if free.Result.Data[i].Position == free.Result.Data[i-1].Position {
			t.Fatalf("position did not flip between day %d and %d", i-1, i)
		}
	}
	if got := len(costly.Result.Trades); got != 19 {
		t.Errorf("trades = %d, want 19 (one flip per day, last position open)", got)
	}

	if math.Abs(free.Result.FinalValue-10000) > 1e-9 {
		t.Errorf("cost-free final value = %f, want exactly 10000 on a flat price", free.Result.FinalValue)
	}
	if costly.Result.FinalValue >= free.Result.FinalValue {
		t.Errorf("final value with cost 0.01 = %f, must be strictly below cost-free %f",
			costly.Result.FinalValue, free.Result.FinalValue)
	}
}
