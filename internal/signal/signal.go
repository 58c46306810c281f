// Package signal converts the feature table into a discrete daily
// position series using sentiment thresholds with a volatility veto.
package signal

import (
	"fmt"
	"math"
	"sort"

	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/feature"
)

// Params are the two tunable strategy parameters.
//
// VolatilityPercentile selects the cutoff as that percentile of the
// observed rolling-volatility distribution of the series itself. The
// cutoff is computed once over the full in-sample window: fine for batch
// research, but it would leak future information in a walk-forward
// deployment.
type Params struct {
	SentimentThreshold   float64 `json:"sentiment_threshold"`
	VolatilityPercentile float64 `json:"volatility_percentile"`
}

// Validate checks the parameter domains.
func (p Params) Validate() error {
	if p.VolatilityPercentile < 0 || p.VolatilityPercentile > 100 {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("volatility_percentile must be in [0,100], got %f", p.VolatilityPercentile))
	}
	if math.IsNaN(p.SentimentThreshold) {
		return core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("sentiment_threshold is NaN"))
	}
	return nil
}

// Row is a feature row plus the day's position.
type Row struct {
	feature.Row
	Position core.Position `json:"position"`
}

// Generate assigns a position to every feature row.
//
// Rules, applied independently per row against the precomputed cutoff:
//   - long when rolling sentiment > +threshold and volatility <= cutoff
//   - short when rolling sentiment < -threshold and volatility <= cutoff
//   - flat otherwise
//
// The threshold comparison is exclusive: a rolling sentiment exactly at
// +-threshold stays flat. Volatility above the cutoff forces flat
// regardless of sentiment.
func Generate(rows []feature.Row, p Params) ([]Row, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no feature rows to generate signals from"))
	}

	vols := make([]float64, len(rows))
	for i, r := range rows {
		vols[i] = r.Volatility5
	}
	cutoff := Percentile(vols, p.VolatilityPercentile)

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Row: r, Position: classify(r, p.SentimentThreshold, cutoff)}
	}
	return out, nil
}

func classify(r feature.Row, threshold, cutoff float64) core.Position {
	if r.Volatility5 > cutoff {
		return core.PositionFlat
	}
	if r.SentimentAvg5 > threshold {
		return core.PositionLong
	}
	if r.SentimentAvg5 < -threshold {
		return core.PositionShort
	}
	return core.PositionFlat
}

// Percentile computes the p-th percentile of xs using linear
// interpolation between closest ranks. Input is not modified.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
