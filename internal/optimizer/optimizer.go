// Package optimizer searches the strategy parameter grid, ranks the
// results and characterizes how stable the parameter space is around
// each configuration.
package optimizer

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/feature"
	"github.com/altalpha/lab/internal/signal"
)

// Grid describes one parameter axis: Min..Max inclusive in Step
// increments.
type Grid struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Values expands the axis into its discrete values.
func (g Grid) Values() []float64 {
	if g.Step <= 0 || g.Max < g.Min {
		return nil
	}
	n := int(math.Floor((g.Max-g.Min)/g.Step+0.5)) + 1
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = round4(g.Min + float64(i)*g.Step)
	}
	return vals
}

// Config drives one optimization run. Every grid cell is backtested with
// the same capital and cost assumptions.
type Config struct {
	Sentiment       Grid
	Volatility      Grid
	InitialCapital  float64
	TransactionCost float64
	Workers         int // <1 means one worker per CPU
	TopN            int // <1 defaults to 10
}

// Evaluation is the outcome of one grid cell.
type Evaluation struct {
	SentimentThreshold   float64 `json:"sentiment_threshold"`
	VolatilityPercentile float64 `json:"volatility_percentile"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	TotalReturnPct       float64 `json:"total_return_pct"`
	MaxDrawdownPct       float64 `json:"max_drawdown_pct"`
	AnnualVolatilityPct  float64 `json:"annual_volatility_pct"`
	NumTrades            int     `json:"num_trades"`
}

// SensitivityRow aggregates Sharpe across all settings of the other
// parameter, for one value of this parameter.
type SensitivityRow struct {
	Value     float64 `json:"value"`
	AvgSharpe float64 `json:"avg_sharpe"`
	StdSharpe float64 `json:"std_sharpe"`
	MinSharpe float64 `json:"min_sharpe"`
	MaxSharpe float64 `json:"max_sharpe"`
}

// Sensitivity holds per-parameter sensitivity summaries.
type Sensitivity struct {
	SentimentThreshold   []SensitivityRow `json:"sentiment_threshold"`
	VolatilityPercentile []SensitivityRow `json:"volatility_percentile"`
}

// StableRegion scores a grid cell by how well its immediate neighbors
// perform together with it. StabilityScore = 1/(1+std of neighborhood
// Sharpe); Score = own Sharpe x StabilityScore ranks configurations that
// are good and not knife-edge.
type StableRegion struct {
	SentimentThreshold   float64 `json:"sentiment_threshold"`
	VolatilityPercentile float64 `json:"volatility_percentile"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	NeighborhoodSharpe   float64 `json:"avg_neighborhood_sharpe"`
	NeighborhoodStd      float64 `json:"neighborhood_std"`
	StabilityScore       float64 `json:"stability_score"`
	Score                float64 `json:"score"`
	ValidNeighbors       int     `json:"valid_neighbors"`
}

// Result is the full optimization output.
type Result struct {
	BestParameters       signal.Params  `json:"best_parameters"`
	BestSharpe           float64        `json:"best_sharpe"`
	BestTotalReturnPct   float64        `json:"best_total_return_pct"`
	BestMaxDrawdownPct   float64        `json:"best_max_drawdown_pct"`
	Top10                []Evaluation   `json:"top_10"`
	StableRegions        []StableRegion `json:"stable_regions"`
	ParameterSensitivity Sensitivity    `json:"parameter_sensitivity"`
	FullResults          []Evaluation   `json:"full_results"`
	TotalCombinations    int            `json:"total_combinations"`
}

// Run evaluates the Cartesian product of the two grids. Cells are
// mutually independent pure functions of the inputs, so they are farmed
// out to a worker pool and collected by index; results are identical to
// a sequential run regardless of scheduling.
func Run(rows []feature.Row, cfg Config) (*Result, error) {
	sentVals := cfg.Sentiment.Values()
	volVals := cfg.Volatility.Values()
	if len(sentVals) == 0 || len(volVals) == 0 {
		return nil, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("empty optimization grid"))
	}
	for _, v := range volVals {
		if v < 0 || v > 100 {
			return nil, core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("volatility grid value %f outside [0,100]", v))
		}
	}
	btCfg := backtest.Config{InitialCapital: cfg.InitialCapital, TransactionCost: cfg.TransactionCost}
	if err := btCfg.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.WrapError(core.ErrInsufficientData,
			fmt.Errorf("no feature rows to optimize over"))
	}

	total := len(sentVals) * len(volVals)
	evals := make([]Evaluation, total)
	errs := make([]error, total)

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > total {
		workers = total
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				si, vi := idx/len(volVals), idx%len(volVals)
				evals[idx], errs[idx] = evaluate(rows, sentVals[si], volVals[vi], btCfg)
			}
		}()
	}
	for i := 0; i < total; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	ranked := make([]Evaluation, total)
	copy(ranked, evals)
	sortEvaluations(ranked)

	topN := cfg.TopN
	if topN < 1 {
		topN = 10
	}
	top := ranked
	if len(top) > topN {
		top = top[:topN]
	}

	best := ranked[0]

	return &Result{
		BestParameters: signal.Params{
			SentimentThreshold:   best.SentimentThreshold,
			VolatilityPercentile: best.VolatilityPercentile,
		},
		BestSharpe:           best.SharpeRatio,
		BestTotalReturnPct:   best.TotalReturnPct,
		BestMaxDrawdownPct:   best.MaxDrawdownPct,
		Top10:                top,
		StableRegions:        stableRegions(evals, len(sentVals), len(volVals), topN),
		ParameterSensitivity: sensitivity(evals, sentVals, volVals),
		FullResults:          ranked,
		TotalCombinations:    total,
	}, nil
}

// evaluate runs one grid cell: signal -> backtest -> metrics.
func evaluate(rows []feature.Row, sentThreshold, volPercentile float64, btCfg backtest.Config) (Evaluation, error) {
	params := signal.Params{SentimentThreshold: sentThreshold, VolatilityPercentile: volPercentile}
	sigRows, err := signal.Generate(rows, params)
	if err != nil {
		return Evaluation{}, err
	}
	result, err := backtest.Run(sigRows, btCfg)
	if err != nil {
		return Evaluation{}, err
	}
	m := backtest.CalculateMetrics(result)

	return Evaluation{
		SentimentThreshold:   sentThreshold,
		VolatilityPercentile: volPercentile,
		SharpeRatio:          m.SharpeRatio,
		TotalReturnPct:       m.TotalReturn,
		MaxDrawdownPct:       m.MaxDrawdown,
		AnnualVolatilityPct:  m.AnnualizedVolatility,
		NumTrades:            len(result.Trades),
	}, nil
}

// sortEvaluations ranks by Sharpe descending, ties broken by higher
// total return, then by fewer trades (prefer simpler strategies).
func sortEvaluations(evals []Evaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := evals[i], evals[j]
		if a.SharpeRatio != b.SharpeRatio {
			return a.SharpeRatio > b.SharpeRatio
		}
		if a.TotalReturnPct != b.TotalReturnPct {
			return a.TotalReturnPct > b.TotalReturnPct
		}
		return a.NumTrades < b.NumTrades
	})
}

// sensitivity groups results by each parameter value independently.
func sensitivity(evals []Evaluation, sentVals, volVals []float64) Sensitivity {
	nv := len(volVals)

	sentRows := make([]SensitivityRow, len(sentVals))
	for si, v := range sentVals {
		sharpes := make([]float64, 0, nv)
		for vi := range volVals {
			sharpes = append(sharpes, evals[si*nv+vi].SharpeRatio)
		}
		sentRows[si] = summarize(v, sharpes)
	}

	volRows := make([]SensitivityRow, len(volVals))
	for vi, v := range volVals {
		sharpes := make([]float64, 0, len(sentVals))
		for si := range sentVals {
			sharpes = append(sharpes, evals[si*nv+vi].SharpeRatio)
		}
		volRows[vi] = summarize(v, sharpes)
	}

	return Sensitivity{SentimentThreshold: sentRows, VolatilityPercentile: volRows}
}

func summarize(value float64, sharpes []float64) SensitivityRow {
	mean := meanOf(sharpes)
	min, max := sharpes[0], sharpes[0]
	for _, s := range sharpes {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return SensitivityRow{
		Value:     value,
		AvgSharpe: mean,
		StdSharpe: sampleStd(sharpes, mean),
		MinSharpe: min,
		MaxSharpe: max,
	}
}

// stableRegions scores each cell against its up-to-8 immediate grid
// neighbors. The cell's own Sharpe is part of its neighborhood.
func stableRegions(evals []Evaluation, ns, nv, topN int) []StableRegion {
	regions := make([]StableRegion, 0, len(evals))

	for si := 0; si < ns; si++ {
		for vi := 0; vi < nv; vi++ {
			cell := evals[si*nv+vi]

			neighborhood := []float64{cell.SharpeRatio}
			valid := 0
			for ds := -1; ds <= 1; ds++ {
				for dv := -1; dv <= 1; dv++ {
					if ds == 0 && dv == 0 {
						continue
					}
					nsi, nvi := si+ds, vi+dv
					if nsi < 0 || nsi >= ns || nvi < 0 || nvi >= nv {
						continue
					}
					neighborhood = append(neighborhood, evals[nsi*nv+nvi].SharpeRatio)
					valid++
				}
			}

			mean := meanOf(neighborhood)
			std := populationStd(neighborhood, mean)
			stability := 1 / (1 + std)

			regions = append(regions, StableRegion{
				SentimentThreshold:   cell.SentimentThreshold,
				VolatilityPercentile: cell.VolatilityPercentile,
				SharpeRatio:          cell.SharpeRatio,
				NeighborhoodSharpe:   mean,
				NeighborhoodStd:      std,
				StabilityScore:       stability,
				Score:                cell.SharpeRatio * stability,
				ValidNeighbors:       valid,
			})
		}
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Score > regions[j].Score
	})
	if len(regions) > topN {
		regions = regions[:topN]
	}
	return regions
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

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

func populationStd(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var variance float64
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
