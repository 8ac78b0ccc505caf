package cli

import (
	"github.com/spf13/cobra"

	"dca-trader/internal/risk"
)

func newParamsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Manage session risk parameters",
	}
	cmd.AddCommand(newParamsShowCmd(app))
	cmd.AddCommand(newParamsSetCmd(app))
	return cmd
}

func newParamsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current risk parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			params := app.Params.Get()

			if out.IsJSON() {
				return out.JSON(params)
			}

			out.Info("Risk parameters")
			out.Printf("  account balance:      %.2f\n", params.AccountBalance)
			out.Printf("  max risk per trade:   %.2f%%\n", params.MaxRiskPercentage)
			out.Printf("  max concurrent:       %d\n", params.MaxConcurrentTrades)
			out.Printf("  correlation limit:    %.2f\n", params.CorrelationLimit)
			out.Printf("  drawdown limit:       %.1f%%\n", params.DrawdownLimit)
			out.Printf("  volatility threshold: %.3f\n", params.VolatilityThreshold)
			return nil
		},
	}
}

func newParamsSetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update risk parameters (only supplied flags change)",
		Example: `  dca-trader params set --balance 25000
  dca-trader params set --risk 1.5 --drawdown-limit 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			var update risk.ParameterUpdate

			if cmd.Flags().Changed("balance") {
				v, _ := cmd.Flags().GetFloat64("balance")
				update.AccountBalance = &v
			}
			if cmd.Flags().Changed("risk") {
				v, _ := cmd.Flags().GetFloat64("risk")
				update.MaxRiskPercentage = &v
			}
			if cmd.Flags().Changed("max-concurrent") {
				v, _ := cmd.Flags().GetInt("max-concurrent")
				update.MaxConcurrentTrades = &v
			}
			if cmd.Flags().Changed("correlation-limit") {
				v, _ := cmd.Flags().GetFloat64("correlation-limit")
				update.CorrelationLimit = &v
			}
			if cmd.Flags().Changed("drawdown-limit") {
				v, _ := cmd.Flags().GetFloat64("drawdown-limit")
				update.DrawdownLimit = &v
			}
			if cmd.Flags().Changed("volatility-threshold") {
				v, _ := cmd.Flags().GetFloat64("volatility-threshold")
				update.VolatilityThreshold = &v
			}

			if err := app.Params.Update(update); err != nil {
				return err
			}
			out.Success("Risk parameters updated")
			return nil
		},
	}

	cmd.Flags().Float64("balance", 0, "account balance in USD")
	cmd.Flags().Float64("risk", 0, "max risk percentage per trade")
	cmd.Flags().Int("max-concurrent", 0, "max concurrent trades")
	cmd.Flags().Float64("correlation-limit", 0, "correlation limit (0-1)")
	cmd.Flags().Float64("drawdown-limit", 0, "drawdown limit percent")
	cmd.Flags().Float64("volatility-threshold", 0, "volatility threshold fraction")
	return cmd
}
