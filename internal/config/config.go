// Package config manages application configuration using viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "dca-trader/internal/errors"
)

// Config holds the complete application configuration.
type Config struct {
	Trading    TradingConfig             `mapstructure:"trading"`
	Risk       RiskConfig                `mapstructure:"risk"`
	DCA        DCAConfig                 `mapstructure:"dca"`
	AutoTrader AutoTraderConfig          `mapstructure:"autotrader"`
	Exchanges  map[string]ExchangeConfig `mapstructure:"exchanges"`
	Store      StoreConfig               `mapstructure:"store"`
	Logging    LoggingConfig             `mapstructure:"logging"`
}

// TradingConfig holds core trading parameters.
type TradingConfig struct {
	DefaultExchange   string  `mapstructure:"default_exchange"`
	DefaultMarketType string  `mapstructure:"default_market_type"`
	Leverage          float64 `mapstructure:"leverage"`
	InitialOrderPct   float64 `mapstructure:"initial_order_pct"`
}

// RiskConfig holds risk management parameters.
type RiskConfig struct {
	RiskPercentage     float64 `mapstructure:"risk_percentage"`
	DefaultStopLossPct float64 `mapstructure:"default_stop_loss_pct"`
	TakeProfitPct      float64 `mapstructure:"take_profit_pct"`
	MaxDrawdownPct     float64 `mapstructure:"max_drawdown_pct"`
	MaxConcurrent      int     `mapstructure:"max_concurrent"`
	VolatilityLimit    float64 `mapstructure:"volatility_limit"`
	MinVolume24h       float64 `mapstructure:"min_volume_24h"`
}

// DCAConfig holds dollar-cost-averaging ladder parameters.
type DCAConfig struct {
	Enabled       bool      `mapstructure:"enabled"`
	LevelCount    int       `mapstructure:"level_count"`
	SpacingPct    float64   `mapstructure:"spacing_pct"`
	CustomOffsets []float64 `mapstructure:"custom_offsets"`
}

// AutoTraderConfig holds automated signal execution parameters.
type AutoTraderConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	MinConfidence     float64  `mapstructure:"min_confidence"`
	AllowedDirections []string `mapstructure:"allowed_directions"`
	CooldownMinutes   int      `mapstructure:"cooldown_minutes"`
}

// ExchangeConfig holds per-exchange credentials and mode.
type ExchangeConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	Passphrase string `mapstructure:"passphrase"`
	Testnet    bool   `mapstructure:"testnet"`
}

// StoreConfig holds trade persistence parameters.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
	Path    string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".dca-trader"
	}
	return filepath.Join(home, ".config", "dca-trader")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DefaultConfigDir()
	return &Config{
		Trading: TradingConfig{
			DefaultExchange:   "binance",
			DefaultMarketType: "futures",
			Leverage:          1,
			InitialOrderPct:   25,
		},
		Risk: RiskConfig{
			RiskPercentage:     2,
			DefaultStopLossPct: 5,
			TakeProfitPct:      10,
			MaxDrawdownPct:     15,
			MaxConcurrent:      5,
			VolatilityLimit:    5,
			MinVolume24h:       1000000,
		},
		DCA: DCAConfig{
			Enabled:    true,
			LevelCount: 3,
			SpacingPct: 2,
		},
		AutoTrader: AutoTraderConfig{
			Enabled:           false,
			MinConfidence:     60,
			AllowedDirections: []string{"BUY", "SELL"},
			CooldownMinutes:   15,
		},
		Exchanges: map[string]ExchangeConfig{},
		Store: StoreConfig{
			Path: filepath.Join(dir, "trades.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
			Path:    filepath.Join(dir, "logs", "trader.log"),
		},
	}
}

// Load reads configuration from the given directory, falling back to
// defaults for any value not present. Environment variables prefixed
// with DCA_TRADER_ override file values.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	v.SetEnvPrefix("DCA_TRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("trading.default_exchange", def.Trading.DefaultExchange)
	v.SetDefault("trading.default_market_type", def.Trading.DefaultMarketType)
	v.SetDefault("trading.leverage", def.Trading.Leverage)
	v.SetDefault("trading.initial_order_pct", def.Trading.InitialOrderPct)
	v.SetDefault("risk.risk_percentage", def.Risk.RiskPercentage)
	v.SetDefault("risk.default_stop_loss_pct", def.Risk.DefaultStopLossPct)
	v.SetDefault("risk.take_profit_pct", def.Risk.TakeProfitPct)
	v.SetDefault("risk.max_drawdown_pct", def.Risk.MaxDrawdownPct)
	v.SetDefault("risk.max_concurrent", def.Risk.MaxConcurrent)
	v.SetDefault("risk.volatility_limit", def.Risk.VolatilityLimit)
	v.SetDefault("risk.min_volume_24h", def.Risk.MinVolume24h)
	v.SetDefault("dca.enabled", def.DCA.Enabled)
	v.SetDefault("dca.level_count", def.DCA.LevelCount)
	v.SetDefault("dca.spacing_pct", def.DCA.SpacingPct)
	v.SetDefault("autotrader.enabled", def.AutoTrader.Enabled)
	v.SetDefault("autotrader.min_confidence", def.AutoTrader.MinConfidence)
	v.SetDefault("autotrader.allowed_directions", def.AutoTrader.AllowedDirections)
	v.SetDefault("autotrader.cooldown_minutes", def.AutoTrader.CooldownMinutes)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.console", def.Logging.Console)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.path", def.Logging.Path)
}

// Validate checks configuration values against their allowed ranges.
func (c *Config) Validate() error {
	if c.Trading.Leverage < 1 {
		return &apperrors.ValidationError{
			Field:   "trading.leverage",
			Value:   fmt.Sprintf("%v", c.Trading.Leverage),
			Message: "must be at least 1",
		}
	}
	if c.Trading.InitialOrderPct <= 0 || c.Trading.InitialOrderPct > 100 {
		return &apperrors.ValidationError{
			Field:   "trading.initial_order_pct",
			Value:   fmt.Sprintf("%v", c.Trading.InitialOrderPct),
			Message: "must be in (0, 100]",
		}
	}
	if c.Risk.RiskPercentage <= 0 || c.Risk.RiskPercentage > 100 {
		return &apperrors.ValidationError{
			Field:   "risk.risk_percentage",
			Value:   fmt.Sprintf("%v", c.Risk.RiskPercentage),
			Message: "must be in (0, 100]",
		}
	}
	if c.Risk.DefaultStopLossPct <= 0 || c.Risk.DefaultStopLossPct >= 100 {
		return &apperrors.ValidationError{
			Field:   "risk.default_stop_loss_pct",
			Value:   fmt.Sprintf("%v", c.Risk.DefaultStopLossPct),
			Message: "must be in (0, 100)",
		}
	}
	if c.Risk.MaxDrawdownPct <= 0 || c.Risk.MaxDrawdownPct > 100 {
		return &apperrors.ValidationError{
			Field:   "risk.max_drawdown_pct",
			Value:   fmt.Sprintf("%v", c.Risk.MaxDrawdownPct),
			Message: "must be in (0, 100]",
		}
	}
	if c.Risk.MaxConcurrent < 1 {
		return &apperrors.ValidationError{
			Field:   "risk.max_concurrent",
			Value:   fmt.Sprintf("%v", c.Risk.MaxConcurrent),
			Message: "must be at least 1",
		}
	}
	if c.DCA.LevelCount < 0 {
		return &apperrors.ValidationError{
			Field:   "dca.level_count",
			Value:   fmt.Sprintf("%v", c.DCA.LevelCount),
			Message: "must not be negative",
		}
	}
	if c.DCA.SpacingPct <= 0 {
		return &apperrors.ValidationError{
			Field:   "dca.spacing_pct",
			Value:   fmt.Sprintf("%v", c.DCA.SpacingPct),
			Message: "must be positive",
		}
	}
	for i, off := range c.DCA.CustomOffsets {
		if off <= 0 || off >= 100 {
			return &apperrors.ValidationError{
				Field:   fmt.Sprintf("dca.custom_offsets[%d]", i),
				Value:   fmt.Sprintf("%v", off),
				Message: "offsets must be in (0, 100)",
			}
		}
	}
	if c.AutoTrader.MinConfidence < 0 || c.AutoTrader.MinConfidence > 100 {
		return &apperrors.ValidationError{
			Field:   "autotrader.min_confidence",
			Value:   fmt.Sprintf("%v", c.AutoTrader.MinConfidence),
			Message: "must be in [0, 100]",
		}
	}
	for _, d := range c.AutoTrader.AllowedDirections {
		if d != "BUY" && d != "SELL" {
			return &apperrors.ValidationError{
				Field:   "autotrader.allowed_directions",
				Value:   d,
				Message: "must be BUY or SELL",
			}
		}
	}
	return nil
}

// Save writes the configuration to the given directory as TOML.
func Save(cfg *Config, configDir string) error {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("trading", cfg.Trading)
	v.Set("risk", cfg.Risk)
	v.Set("dca", cfg.DCA)
	v.Set("autotrader", cfg.AutoTrader)
	v.Set("exchanges", cfg.Exchanges)
	v.Set("store", cfg.Store)
	v.Set("logging", cfg.Logging)

	path := filepath.Join(configDir, "config.toml")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
