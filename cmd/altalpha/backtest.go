package main

import (
	"context"
	"fmt"
	"time"

	"github.com/altalpha/lab/internal/backtest"
	"github.com/altalpha/lab/internal/logger"
	"github.com/altalpha/lab/internal/signal"
	"github.com/spf13/cobra"
)

var (
	backtestTicker    string
	backtestFrom      string
	backtestTo        string
	backtestThreshold float64
	backtestVolPct    float64
	backtestCapital   float64
	backtestCost      float64
	backtestReport    bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the sentiment strategy on a ticker",
	Long:  "Fetch history, build features, generate signals and show performance statistics",
	RunE:  runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestTicker, "ticker", "", "Ticker to backtest (required)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (default from config)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (default from config)")
	backtestCmd.Flags().Float64Var(&backtestThreshold, "threshold", -1, "Sentiment threshold override")
	backtestCmd.Flags().Float64Var(&backtestVolPct, "vol-percentile", -1, "Volatility percentile override")
	backtestCmd.Flags().Float64Var(&backtestCapital, "capital", 0, "Initial capital override")
	backtestCmd.Flags().Float64Var(&backtestCost, "cost", -1, "Transaction cost fraction override")
	backtestCmd.Flags().BoolVar(&backtestReport, "report", false, "Also print the analyst note")

	backtestCmd.MarkFlagRequired("ticker")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	p := signal.Params{
		SentimentThreshold:   cfg.Strategy.SentimentThreshold,
		VolatilityPercentile: cfg.Strategy.VolatilityPercentile,
	}
	if cmd.Flags().Changed("threshold") {
		p.SentimentThreshold = backtestThreshold
	}
	if cmd.Flags().Changed("vol-percentile") {
		p.VolatilityPercentile = backtestVolPct
	}

	btCfg := backtest.Config{
		InitialCapital:  cfg.Strategy.InitialCapital,
		TransactionCost: cfg.Strategy.TransactionCost,
	}
	if backtestCapital > 0 {
		btCfg.InitialCapital = backtestCapital
	}
	if cmd.Flags().Changed("cost") {
		btCfg.TransactionCost = backtestCost
	}

	svc := newService(cfg, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := svc.Backtest(ctx, backtestTicker, backtestFrom, backtestTo, p, btCfg)
	if err != nil {
		return err
	}

	m := res.Metrics
	fmt.Println("=== AltAlpha Backtest ===")
	fmt.Printf("Ticker:     %s\n", res.Ticker)
	fmt.Printf("Threshold:  %.2f  Vol percentile: %.0f\n",
		p.SentimentThreshold, p.VolatilityPercentile)
	fmt.Println()
	fmt.Printf("Trading days:      %d\n", m.TradingDays)
	fmt.Printf("Final value:       %.2f\n", res.Result.FinalValue)
	fmt.Printf("Total return:      %.2f%%\n", m.TotalReturn)
	fmt.Printf("Annualized return: %.2f%%\n", m.AnnualizedReturn)
	fmt.Printf("Annualized vol:    %.2f%%\n", m.AnnualizedVolatility)
	fmt.Printf("Sharpe ratio:      %.3f\n", m.SharpeRatio)
	fmt.Printf("Max drawdown:      %.2f%%\n", m.MaxDrawdown)
	fmt.Printf("Trades:            %d\n", len(res.Result.Trades))

	if backtestReport {
		report, err := svc.Report(ctx, backtestTicker, backtestFrom, backtestTo, p, btCfg)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("=== Analyst Note (%s, %s) ===\n", report.Rating, report.Source)
		fmt.Println(report.Analysis)
	}

	return nil
}
