package main

import (
	"context"
	"fmt"
	"time"

	"github.com/altalpha/lab/internal/logger"
	"github.com/altalpha/lab/internal/optimizer"
	"github.com/spf13/cobra"
)

var (
	optimizeTicker  string
	optimizeFrom    string
	optimizeTo      string
	optimizeWorkers int
	optimizeTopN    int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Sweep the strategy parameter grid on a ticker",
	Long:  "Evaluate every sentiment threshold and volatility percentile combination and rank results",
	RunE:  runOptimizeCmd,
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeTicker, "ticker", "", "Ticker to optimize (required)")
	optimizeCmd.Flags().StringVar(&optimizeFrom, "from", "", "Start date YYYY-MM-DD (default from config)")
	optimizeCmd.Flags().StringVar(&optimizeTo, "to", "", "End date YYYY-MM-DD (default from config)")
	optimizeCmd.Flags().IntVar(&optimizeWorkers, "workers", 0, "Parallel workers override")
	optimizeCmd.Flags().IntVar(&optimizeTopN, "top", 0, "Number of top results to show")

	optimizeCmd.MarkFlagRequired("ticker")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimizeCmd(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	optCfg := optimizer.Config{
		Sentiment: optimizer.Grid{
			Min:  cfg.Optimizer.Sentiment.Min,
			Max:  cfg.Optimizer.Sentiment.Max,
			Step: cfg.Optimizer.Sentiment.Step,
		},
		Volatility: optimizer.Grid{
			Min:  cfg.Optimizer.Volatility.Min,
			Max:  cfg.Optimizer.Volatility.Max,
			Step: cfg.Optimizer.Volatility.Step,
		},
		InitialCapital:  cfg.Strategy.InitialCapital,
		TransactionCost: cfg.Strategy.TransactionCost,
		Workers:         cfg.Optimizer.Workers,
		TopN:            cfg.Optimizer.TopN,
	}
	if optimizeWorkers > 0 {
		optCfg.Workers = optimizeWorkers
	}
	if optimizeTopN > 0 {
		optCfg.TopN = optimizeTopN
	}

	svc := newService(cfg, nil, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := svc.Optimize(ctx, optimizeTicker, optimizeFrom, optimizeTo, optCfg)
	if err != nil {
		return err
	}

	fmt.Println("=== AltAlpha Parameter Optimization ===")
	fmt.Printf("Ticker:       %s\n", optimizeTicker)
	fmt.Printf("Combinations: %d\n", res.TotalCombinations)
	fmt.Println()
	fmt.Printf("Best: threshold=%.2f vol_percentile=%.0f sharpe=%.3f return=%.2f%% drawdown=%.2f%%\n",
		res.BestParameters.SentimentThreshold,
		res.BestParameters.VolatilityPercentile,
		res.BestSharpe, res.BestTotalReturnPct, res.BestMaxDrawdownPct)
	fmt.Println()

	fmt.Println("Top results:")
	for i, e := range res.Top10 {
		fmt.Printf("%2d. threshold=%5.2f vol=%5.1f sharpe=%7.3f return=%8.2f%% trades=%d\n",
			i+1, e.SentimentThreshold, e.VolatilityPercentile,
			e.SharpeRatio, e.TotalReturnPct, e.NumTrades)
	}

	if len(res.StableRegions) > 0 {
		fmt.Println()
		fmt.Println("Stable regions:")
		for i, sr := range res.StableRegions {
			fmt.Printf("%2d. threshold=%5.2f vol=%5.1f sharpe=%7.3f stability=%.3f\n",
				i+1, sr.SentimentThreshold, sr.VolatilityPercentile,
				sr.SharpeRatio, sr.StabilityScore)
		}
	}

	return nil
}
