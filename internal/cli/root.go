// Package cli provides the command-line interface for the trading
// application.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dca-trader/internal/config"
	"dca-trader/internal/exchange"
	"dca-trader/internal/logging"
	"dca-trader/internal/marketdata"
	"dca-trader/internal/models"
	"dca-trader/internal/risk"
	"dca-trader/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies. It is the composition root:
// caches, stores, and trackers are constructed here and passed down
// to commands rather than living as package globals.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Params     *risk.ParameterStore
	Calculator *risk.Calculator
	Assessor   *risk.Assessor
	Analyzer   *risk.PortfolioAnalyzer
	Stats      *marketdata.StatsTracker
	Adapters   map[models.ExchangeName]exchange.Adapter
}

// openStore creates the trade store lazily so read-only commands do
// not touch the database file.
func (a *App) openStore() (store.TradeStore, error) {
	return store.NewSQLiteStore(a.Config.Store.Path)
}

// botSettings derives bot settings from the loaded configuration.
func (a *App) botSettings() models.BotSettings {
	cfg := a.Config
	settings := models.DefaultBotSettings()
	settings.Enabled = cfg.AutoTrader.Enabled
	settings.Exchange = models.ExchangeName(cfg.Trading.DefaultExchange)
	settings.MarketType = models.MarketType(cfg.Trading.DefaultMarketType)
	settings.Leverage = cfg.Trading.Leverage
	settings.InitialOrderPct = cfg.Trading.InitialOrderPct
	settings.RiskPercentage = cfg.Risk.RiskPercentage
	settings.DefaultStopLossPct = cfg.Risk.DefaultStopLossPct
	settings.TakeProfitPct = cfg.Risk.TakeProfitPct
	settings.EnableDCA = cfg.DCA.Enabled
	settings.DCALevelCount = cfg.DCA.LevelCount
	settings.DCASpacingPct = cfg.DCA.SpacingPct
	settings.DCACustomOffsets = cfg.DCA.CustomOffsets
	settings.MinConfidence = cfg.AutoTrader.MinConfidence
	settings.CooldownMinutes = cfg.AutoTrader.CooldownMinutes
	settings.AllowedDirections = nil
	for _, d := range cfg.AutoTrader.AllowedDirections {
		settings.AllowedDirections = append(settings.AllowedDirections, models.Side(d))
	}
	if ex, ok := cfg.Exchanges[cfg.Trading.DefaultExchange]; ok {
		settings.Testnet = ex.Testnet
	}
	return settings
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	stats := marketdata.NewStatsTracker(100)

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Calculator: risk.NewCalculator(),
		Assessor:   risk.NewAssessor(),
		Analyzer:   risk.NewPortfolioAnalyzer(risk.NewCorrelationEstimator(stats, 100)),
		Stats:      stats,
		Adapters:   make(map[models.ExchangeName]exchange.Adapter),
	}

	params := risk.DefaultRiskParameters()
	params.MaxRiskPercentage = cfg.Risk.RiskPercentage
	params.MaxConcurrentTrades = cfg.Risk.MaxConcurrent
	params.DrawdownLimit = cfg.Risk.MaxDrawdownPct
	params.VolatilityThreshold = cfg.Risk.VolatilityLimit / 100
	if ps, err := risk.NewParameterStore(params); err == nil {
		app.Params = ps
	} else {
		logger.Warn().Err(err).Msg("Invalid risk configuration, using defaults")
		app.Params, _ = risk.NewParameterStore(risk.DefaultRiskParameters())
	}

	for name, creds := range cfg.Exchanges {
		adapter, err := exchange.New(models.ExchangeName(name), exchange.Credentials{
			APIKey:     creds.APIKey,
			APISecret:  creds.APISecret,
			Passphrase: creds.Passphrase,
			Testnet:    creds.Testnet,
		})
		if err != nil {
			logger.Warn().Str("exchange", name).Err(err).Msg("Skipping unknown exchange")
			continue
		}
		app.Adapters[models.ExchangeName(name)] = adapter
	}

	rootCmd := &cobra.Command{
		Use:   "dca-trader",
		Short: "DCA trade sizing and risk management",
		Long: `dca-trader sizes cryptocurrency trades from risk parameters,
builds DCA ladders, scores trade and portfolio risk, and executes
orders on Binance, OKX, and Bybit.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logging.SetDebugLevel()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/dca-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newSizeCmd(app))
	rootCmd.AddCommand(newAssessCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	rootCmd.AddCommand(newParamsCmd(app))
	rootCmd.AddCommand(newTradeCmd(app))
	rootCmd.AddCommand(newAutotradeCmd(app))
	rootCmd.AddCommand(newWatchCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := NewOutput(cmd)
			if out.IsJSON() {
				out.JSON(map[string]string{"version": Version})
				return
			}
			out.Printf("dca-trader %s\n", Version)
		},
	}
}
