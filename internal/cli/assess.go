package cli

import (
	"github.com/spf13/cobra"

	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

func newAssessCmd(app *App) *cobra.Command {
	var (
		symbol     string
		entry      float64
		stop       float64
		target     float64
		volatility float64
		volume     float64
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score the risk of a proposed trade",
		Example: `  dca-trader assess --symbol BTC/USDT --entry 50000 --stop 47500 --target 55000
  dca-trader assess --symbol SOL/USDT --entry 150 --stop 142 --target 160 --volatility 0.08`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			params := app.Params.Get()

			// Live stats win over flags; flags win over defaults.
			market := app.Stats.Snapshot(symbol)
			if market == nil && (volatility > 0 || volume > 0) {
				market = &models.MarketData{
					Symbol:     symbol,
					Volatility: volatility,
					Volume24h:  volume,
				}
			}

			assessment := app.Assessor.AssessTradeRisk(symbol, entry, stop, target, market, params)

			if out.IsJSON() {
				return out.JSON(assessment)
			}

			out.Info("Risk assessment for %s", symbol)
			out.Printf("  risk score:       %.0f\n", assessment.RiskScore)
			out.Printf("  recommendation:   %s\n", out.Recommendation(string(assessment.Recommendation)))
			out.Printf("  risk/reward:      %.2f\n", assessment.RiskRewardRatio)
			out.Printf("  max position:     %s\n", utils.FormatUSD(assessment.MaxPositionSize))
			out.Printf("  volatility risk:  %.0f\n", assessment.VolatilityRisk)
			out.Printf("  liquidity risk:   %.0f\n", assessment.LiquidityRisk)
			out.Printf("  correlation risk: %.0f\n", assessment.CorrelationRisk)
			out.Println()
			for _, reason := range assessment.Reasoning {
				out.Printf("  - %s\n", reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "trading pair, e.g. BTC/USDT")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "stop-loss price")
	cmd.Flags().Float64Var(&target, "target", 0, "take-profit price")
	cmd.Flags().Float64Var(&volatility, "volatility", 0, "volatility fraction, e.g. 0.05 for 5%")
	cmd.Flags().Float64Var(&volume, "volume", 0, "24h volume in USD")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("entry")
	cmd.MarkFlagRequired("stop")

	return cmd
}
