// Package research orchestrates the full pipeline from raw prices to
// reports. The service is stateless: every call fetches fresh data and
// computes results from scratch.
package research

import (
	"context"
	"fmt"
	"time"

	"github.com/altalpha/lab/internal/analyst"
	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/collector"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/feature"
	"github.com/altalpha/lab/internal/metrics"
	"github.com/altalpha/lab/internal/optimizer"
	"github.com/altalpha/lab/internal/sentiment"
	"github.com/altalpha/lab/internal/signal"
	"github.com/altalpha/lab/internal/simulator"
	"go.uber.org/zap"
)

// Service runs the research pipeline for one ticker at a time.
type Service struct {
	cfg     *config.Config
	prices  collector.PriceProvider
	sent    sentiment.Source
	analyst *analyst.Analyst
	reg     *metrics.Registry
	logger  *zap.Logger
}

// NewService wires the pipeline. analyst and reg may be nil.
func NewService(cfg *config.Config, prices collector.PriceProvider, sent sentiment.Source, an *analyst.Analyst, reg *metrics.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if an == nil {
		an = analyst.New(nil, logger)
	}
	return &Service{
		cfg:     cfg,
		prices:  prices,
		sent:    sent,
		analyst: an,
		reg:     reg,
		logger:  logger,
	}
}

// StrategyResult summarizes generated signals for one parameter set.
type StrategyResult struct {
	Ticker           string        `json:"ticker"`
	Params           signal.Params `json:"parameters"`
	VolatilityCutoff float64       `json:"volatility_cutoff"`
	LongDays         int           `json:"long_days"`
	ShortDays        int           `json:"short_days"`
	FlatDays         int           `json:"flat_days"`
	Rows             []signal.Row  `json:"signals"`
}

// BacktestResult pairs the equity curve with its performance metrics.
type BacktestResult struct {
	Ticker  string           `json:"ticker"`
	Params  signal.Params    `json:"parameters"`
	Result  *backtest.Result `json:"result"`
	Metrics backtest.Metrics `json:"metrics"`
}

// window resolves the date range, using config defaults for empty values.
func (s *Service) window(start, end string) (time.Time, time.Time, error) {
	if start == "" {
		start = s.cfg.Data.StartDate
	}
	if end == "" {
		end = s.cfg.Data.EndDate
	}

	from, err := time.Parse(core.DateFormat, start)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("invalid start date %q: %w", start, err))
	}

	var to time.Time
	if end == "" {
		to = time.Now().UTC().Truncate(24 * time.Hour)
	} else {
		to, err = time.Parse(core.DateFormat, end)
		if err != nil {
			return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidParameter,
				fmt.Errorf("invalid end date %q: %w", end, err))
		}
	}

	if !to.After(from) {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidParameter,
			fmt.Errorf("end date %s must be after start date %s",
				to.Format(core.DateFormat), from.Format(core.DateFormat)))
	}

	return from, to, nil
}

// PriceData fetches daily close history for a ticker.
func (s *Service) PriceData(ctx context.Context, ticker, start, end string) ([]core.DailyBar, error) {
	from, to, err := s.window(start, end)
	if err != nil {
		return nil, err
	}

	bars, err := s.prices.FetchDailyHistory(ctx, ticker, from, to)
	if s.reg != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.reg.RecordCollectorRequest(s.prices.Name(), status)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched price history",
		zap.String("ticker", ticker), zap.Int("bars", len(bars)))
	return bars, nil
}

// SentimentSeries produces the sentiment series aligned to the ticker's
// trading days.
func (s *Service) SentimentSeries(ctx context.Context, ticker, start, end string) ([]core.SentimentPoint, error) {
	bars, err := s.PriceData(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
	}
	return s.sent.Series(ticker, dates), nil
}

// Features builds the joined feature table for a ticker.
func (s *Service) Features(ctx context.Context, ticker, start, end string) ([]feature.Row, error) {
	bars, err := s.PriceData(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(bars))
	for i, b := range bars {
		dates[i] = b.Date
	}
	points := s.sent.Series(ticker, dates)

	rows, err := feature.Build(bars, points)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("built features",
		zap.String("ticker", ticker), zap.Int("rows", len(rows)))
	return rows, nil
}

// Strategy generates trading signals for one parameter set.
func (s *Service) Strategy(ctx context.Context, ticker, start, end string, p signal.Params) (*StrategyResult, error) {
	rows, err := s.Features(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	signals, err := signal.Generate(rows, p)
	if err != nil {
		return nil, err
	}

	vols := make([]float64, len(rows))
	for i, r := range rows {
		vols[i] = r.Volatility5
	}

	res := &StrategyResult{
		Ticker:           ticker,
		Params:           p,
		VolatilityCutoff: signal.Percentile(vols, p.VolatilityPercentile),
		Rows:             signals,
	}
	for _, r := range signals {
		switch r.Position {
		case core.PositionLong:
			res.LongDays++
		case core.PositionShort:
			res.ShortDays++
		default:
			res.FlatDays++
		}
	}
	return res, nil
}

// Backtest runs the strategy end to end and computes its metrics.
func (s *Service) Backtest(ctx context.Context, ticker, start, end string, p signal.Params, btCfg backtest.Config) (*BacktestResult, error) {
	began := time.Now()

	rows, err := s.Features(ctx, ticker, start, end)
	if err != nil {
		s.recordBacktest("error", began)
		return nil, err
	}

	signals, err := signal.Generate(rows, p)
	if err != nil {
		s.recordBacktest("error", began)
		return nil, err
	}

	result, err := backtest.Run(signals, btCfg)
	if err != nil {
		s.recordBacktest("error", began)
		return nil, err
	}

	m := backtest.CalculateMetrics(result)
	s.recordBacktest("ok", began)

	s.logger.Info("backtest complete",
		zap.String("ticker", ticker),
		zap.Float64("sharpe", m.SharpeRatio),
		zap.Float64("total_return_pct", m.TotalReturn),
		zap.Int("trades", len(result.Trades)))

	return &BacktestResult{Ticker: ticker, Params: p, Result: result, Metrics: m}, nil
}

// Optimize sweeps the parameter grid for a ticker.
func (s *Service) Optimize(ctx context.Context, ticker, start, end string, cfg optimizer.Config) (*optimizer.Result, error) {
	began := time.Now()

	rows, err := s.Features(ctx, ticker, start, end)
	if err != nil {
		s.recordOptimization("error", began)
		return nil, err
	}

	result, err := optimizer.Run(rows, cfg)
	if err != nil {
		s.recordOptimization("error", began)
		return nil, err
	}
	s.recordOptimization("ok", began)

	s.logger.Info("optimization complete",
		zap.String("ticker", ticker),
		zap.Int("combinations", result.TotalCombinations),
		zap.Float64("best_sharpe", result.BestSharpe))

	return result, nil
}

// Simulate replays the strategy day by day for a ticker.
func (s *Service) Simulate(ctx context.Context, ticker, start, end string, cfg simulator.Config) (*simulator.Result, error) {
	rows, err := s.Features(ctx, ticker, start, end)
	if err != nil {
		if s.reg != nil {
			s.reg.RecordSimulation("error")
		}
		return nil, err
	}

	result, err := simulator.Run(rows, cfg)
	if s.reg != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.reg.RecordSimulation(status)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("simulation complete",
		zap.String("ticker", ticker),
		zap.Int("trading_days", result.Summary.TradingDays),
		zap.Float64("total_return_pct", result.TotalReturnPct))

	return result, nil
}

// Report backtests the strategy and writes an analyst note on it.
func (s *Service) Report(ctx context.Context, ticker, start, end string, p signal.Params, btCfg backtest.Config) (*analyst.Report, error) {
	rows, err := s.Features(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	signals, err := signal.Generate(rows, p)
	if err != nil {
		return nil, err
	}

	result, err := backtest.Run(signals, btCfg)
	if err != nil {
		return nil, err
	}

	m := backtest.CalculateMetrics(result)
	return s.analyst.Report(ctx, ticker, m, rows)
}

func (s *Service) recordBacktest(status string, began time.Time) {
	if s.reg != nil {
		s.reg.RecordBacktest(status, time.Since(began).Seconds())
	}
}

func (s *Service) recordOptimization(status string, began time.Time) {
	if s.reg != nil {
		s.reg.RecordOptimization(status, time.Since(began).Seconds())
	}
}
