package main

import (
	"context"
	"fmt"
	"time"

	"github.com/altalpha/lab/internal/logger"
	"github.com/altalpha/lab/internal/signal"
	"github.com/altalpha/lab/internal/simulator"
	"github.com/spf13/cobra"
)

var (
	simulateTicker  string
	simulateFrom    string
	simulateTo      string
	simulateVerbose bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay the strategy day by day on a ticker",
	Long:  "Walk the history one trading day at a time and show signals, trades and the final summary",
	RunE:  runSimulateCmd,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateTicker, "ticker", "", "Ticker to simulate (required)")
	simulateCmd.Flags().StringVar(&simulateFrom, "from", "", "Start date YYYY-MM-DD (default from config)")
	simulateCmd.Flags().StringVar(&simulateTo, "to", "", "End date YYYY-MM-DD (default from config)")
	simulateCmd.Flags().BoolVar(&simulateVerbose, "verbose", false, "Print every trade action")

	simulateCmd.MarkFlagRequired("ticker")

	rootCmd.AddCommand(simulateCmd)
}

func runSimulateCmd(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	simCfg := simulator.Config{
		Params: signal.Params{
			SentimentThreshold:   cfg.Strategy.SentimentThreshold,
			VolatilityPercentile: cfg.Strategy.VolatilityPercentile,
		},
		InitialCapital:  cfg.Strategy.InitialCapital,
		TransactionCost: cfg.Strategy.TransactionCost,
	}

	svc := newService(cfg, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := svc.Simulate(ctx, simulateTicker, simulateFrom, simulateTo, simCfg)
	if err != nil {
		return err
	}

	fmt.Println("=== AltAlpha Live Simulation ===")
	fmt.Printf("Ticker: %s\n", simulateTicker)
	fmt.Println()

	if simulateVerbose {
		for _, st := range res.States {
			if st.Trade == nil {
				continue
			}
			fmt.Printf("day %3d %s  %-5s %.2f x %.4f shares (%.2f)\n",
				st.Step, st.Date.Format("2006-01-02"), st.Trade.Action,
				st.Trade.Price, st.Trade.Shares, st.Trade.Value)
		}
		fmt.Println()
	}

	sum := res.Summary
	fmt.Printf("Trading days:   %d\n", sum.TradingDays)
	fmt.Printf("Final capital:  %.2f\n", res.FinalCapital)
	fmt.Printf("Total return:   %.2f%%\n", res.TotalReturnPct)
	fmt.Printf("Trades:         %d (won %d, lost %d, win rate %.1f%%)\n",
		sum.TotalTrades, sum.WinningTrades, sum.LosingTrades, sum.WinRatePct)
	fmt.Printf("Avg win/loss:   %.2f / %.2f\n", sum.AvgWin, sum.AvgLoss)
	fmt.Printf("Profit factor:  %.2f\n", sum.ProfitFactor)
	fmt.Printf("Max drawdown:   %.2f%%\n", sum.MaxDrawdownPct)

	return nil
}
