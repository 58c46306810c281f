// Package feature merges price and sentiment series into one aligned
// per-day feature table. It is a pure transformation: the same inputs
// always produce the same rows.
package feature

import (
	"fmt"
	"time"

	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/indicator"
)

// Window is the trailing window size for all rolling features.
const Window = 5

// warmup is the number of joined rows consumed before the first emitted
// row: one for the first daily return plus Window-1 for the rolling
// window over returns.
const warmup = Window

// Row is one trading day with all derived features defined. Rows are
// strictly date-ordered; the warmup rows with undefined rolling values
// are dropped rather than null-flagged.
type Row struct {
	Date          time.Time `json:"date"`
	Close         float64   `json:"close"`
	Return        float64   `json:"returns"`
	Sentiment     float64   `json:"sentiment"`
	SentimentAvg5 float64   `json:"rolling_sentiment_5d"`
	Volatility5   float64   `json:"volatility_5d"`
	ReturnAvg5    float64   `json:"returns_avg_5d"`
}

// Build inner-joins bars and sentiment points on date and computes the
// rolling features. Days without a sentiment score are dropped; they
// cannot feed signal generation. Rolling volatility is the sample
// standard deviation of daily returns over exactly Window observations.
// Fewer than Window+1 joined days is an INSUFFICIENT_DATA error.
func Build(bars []core.DailyBar, points []core.SentimentPoint) ([]Row, error) {
	if err := checkOrdered(bars); err != nil {
		return nil, err
	}

	scores := make(map[string]float64, len(points))
	for _, p := range points {
		scores[p.Date.Format(core.DateFormat)] = p.Sentiment
	}

	type joined struct {
		date      time.Time
		close     float64
		sentiment float64
	}
	rows := make([]joined, 0, len(bars))
	for _, b := range bars {
		s, ok := scores[b.Date.Format(core.DateFormat)]
		if !ok {
			continue
		}
		rows = append(rows, joined{date: b.Date, close: b.Close, sentiment: s})
	}

	if len(rows) < warmup+1 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("need at least %d aligned days, got %d", warmup+1, len(rows)))
	}

	// Daily simple returns; rets[i] belongs to joined row i+1.
	rets := make([]float64, len(rows)-1)
	sents := make([]float64, len(rows))
	for i, r := range rows {
		sents[i] = r.sentiment
		if i > 0 {
			rets[i-1] = r.close/rows[i-1].close - 1
		}
	}

	sentMeans := indicator.RollingMean(sents, Window)
	retMeans := indicator.RollingMean(rets, Window)
	retStds := indicator.RollingStd(rets, Window)

	out := make([]Row, 0, len(rows)-warmup)
	for o := 0; o < len(rows)-warmup; o++ {
		t := o + warmup
		out = append(out, Row{
			Date:          rows[t].date,
			Close:         rows[t].close,
			Return:        rets[t-1],
			Sentiment:     rows[t].sentiment,
			SentimentAvg5: sentMeans[t-Window+1],
			Volatility5:   retStds[o],
			ReturnAvg5:    retMeans[o],
		})
	}

	return out, nil
}

// checkOrdered enforces strictly ascending bar dates. Downstream stages
// rely on date order for the state fold, so a disordered input is an
// invalid request rather than something to silently sort.
func checkOrdered(bars []core.DailyBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("price bars not strictly date-ordered at index %d", i))
		}
	}
	return nil
}
