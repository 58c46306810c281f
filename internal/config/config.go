package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/altalpha/lab/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// DataConfig controls the price history window fetched per ticker.
type DataConfig struct {
	StartDate string `mapstructure:"start_date"` // YYYY-MM-DD
	EndDate   string `mapstructure:"end_date"`   // empty = today
}

// StrategyConfig holds the default signal and backtest parameters used
// when a request does not override them.
type StrategyConfig struct {
	SentimentThreshold   float64 `mapstructure:"sentiment_threshold"`
	VolatilityPercentile float64 `mapstructure:"volatility_percentile"`
	InitialCapital       float64 `mapstructure:"initial_capital"`
	TransactionCost      float64 `mapstructure:"transaction_cost"`
}

// GridConfig describes one parameter axis of the optimization grid.
type GridConfig struct {
	Min  float64 `mapstructure:"min"`
	Max  float64 `mapstructure:"max"`
	Step float64 `mapstructure:"step"`
}

type OptimizerConfig struct {
	Sentiment  GridConfig `mapstructure:"sentiment"`
	Volatility GridConfig `mapstructure:"volatility"`
	Workers    int        `mapstructure:"workers"`
	TopN       int        `mapstructure:"top_n"`
}

type LLMConfig struct {
	Provider string       `mapstructure:"provider"`
	Claude   ClaudeConfig `mapstructure:"claude"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Data: DataConfig{
			StartDate: "2020-01-01",
		},
		Strategy: StrategyConfig{
			SentimentThreshold:   0.2,
			VolatilityPercentile: 50,
			InitialCapital:       10000,
			TransactionCost:      0.001,
		},
		Optimizer: OptimizerConfig{
			Sentiment:  GridConfig{Min: -0.5, Max: 0.5, Step: 0.1},
			Volatility: GridConfig{Min: 20, Max: 80, Step: 10},
			Workers:    4,
			TopN:       10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Strategy.InitialCapital <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("initial_capital must be positive, got %f", c.Strategy.InitialCapital))
	}
	if c.Strategy.TransactionCost < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("transaction_cost cannot be negative, got %f", c.Strategy.TransactionCost))
	}
	if c.Strategy.VolatilityPercentile < 0 || c.Strategy.VolatilityPercentile > 100 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("volatility_percentile must be in [0,100], got %f", c.Strategy.VolatilityPercentile))
	}

	for _, g := range []struct {
		name string
		grid GridConfig
	}{
		{"optimizer.sentiment", c.Optimizer.Sentiment},
		{"optimizer.volatility", c.Optimizer.Volatility},
	} {
		if g.grid.Step <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s.step must be positive, got %f", g.name, g.grid.Step))
		}
		if g.grid.Max < g.grid.Min {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s.max must be >= min", g.name))
		}
	}

	if c.Optimizer.Workers < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("optimizer.workers must be at least 1, got %d", c.Optimizer.Workers))
	}

	// LLM validation - if provider set, check config exists
	if c.LLM.Provider != "" {
		switch c.LLM.Provider {
		case "claude":
			if c.LLM.Claude.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("claude api_key required when provider is claude"))
			}
		case "openai":
			if c.LLM.OpenAI.APIKey == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("openai api_key required when provider is openai"))
			}
		}
	}

	return nil
}
