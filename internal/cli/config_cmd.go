package cli

import (
	"github.com/spf13/cobra"

	"dca-trader/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			if out.IsJSON() {
				return out.JSON(redacted(app.Config))
			}

			cfg := app.Config
			out.Info("Trading")
			out.Printf("  exchange:       %s (%s)\n", cfg.Trading.DefaultExchange, cfg.Trading.DefaultMarketType)
			out.Printf("  leverage:       %.0fx\n", cfg.Trading.Leverage)
			out.Printf("  initial order:  %.0f%%\n", cfg.Trading.InitialOrderPct)
			out.Info("Risk")
			out.Printf("  risk per trade: %.1f%%\n", cfg.Risk.RiskPercentage)
			out.Printf("  default stop:   %.1f%%\n", cfg.Risk.DefaultStopLossPct)
			out.Printf("  max drawdown:   %.1f%%\n", cfg.Risk.MaxDrawdownPct)
			out.Printf("  max concurrent: %d\n", cfg.Risk.MaxConcurrent)
			out.Info("DCA")
			out.Printf("  enabled:        %v\n", cfg.DCA.Enabled)
			out.Printf("  levels:         %d\n", cfg.DCA.LevelCount)
			out.Printf("  spacing:        %.1f%%\n", cfg.DCA.SpacingPct)
			out.Info("AutoTrader")
			out.Printf("  enabled:        %v\n", cfg.AutoTrader.Enabled)
			out.Printf("  min confidence: %.0f\n", cfg.AutoTrader.MinConfidence)
			return nil
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("config")
			if err := config.Save(config.DefaultConfig(), dir); err != nil {
				return err
			}
			if dir == "" {
				dir = config.DefaultConfigDir()
			}
			NewOutput(cmd).Success("Wrote default configuration to %s", dir)
			return nil
		},
	}
}

// redacted removes credentials before serializing configuration.
func redacted(cfg *config.Config) *config.Config {
	clone := *cfg
	clone.Exchanges = make(map[string]config.ExchangeConfig, len(cfg.Exchanges))
	for name, ex := range cfg.Exchanges {
		ex.APISecret = "***"
		ex.Passphrase = "***"
		clone.Exchanges[name] = ex
	}
	return &clone
}
