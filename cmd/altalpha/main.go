package main

import (
	"fmt"
	"os"

	"github.com/altalpha/lab/internal/analyst"
	"github.com/altalpha/lab/internal/collector/yahoo"
	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/llm"
	"github.com/altalpha/lab/internal/llm/factory"
	"github.com/altalpha/lab/internal/metrics"
	"github.com/altalpha/lab/internal/research"
	"github.com/altalpha/lab/internal/sentiment"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "altalpha",
	Short: "AltAlpha Lab - sentiment-driven strategy research",
	Long: `AltAlpha Lab backtests a sentiment-driven long/short equity strategy,
sweeps its parameter grid and replays it day by day against history.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads the config file or falls back to defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newService builds the research pipeline from config. reg may be nil
// for CLI runs that do not export metrics.
func newService(cfg *config.Config, reg *metrics.Registry, log *zap.Logger) *research.Service {
	var provider llm.Provider
	if cfg.LLM.Provider != "" {
		p, err := factory.New(cfg.LLM)
		if err != nil {
			log.Warn("LLM provider unavailable, reports will be rule-based", zap.Error(err))
		} else {
			provider = p
		}
	}

	an := analyst.New(provider, log)
	return research.NewService(cfg, yahoo.New(), sentiment.NewMock(), an, reg, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
