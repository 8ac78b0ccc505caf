package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

func newPortfolioCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Analyze risk across open trades",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			trades, err := app.openStore()
			if err != nil {
				return err
			}
			defer trades.Close()

			open, err := trades.ListOpenTrades(cmd.Context())
			if err != nil {
				return err
			}

			active := make([]models.ActiveTrade, 0, len(open))
			for _, record := range open {
				active = append(active, record.ActiveTrade())
			}

			params := app.Params.Get()
			portfolio := app.Analyzer.AnalyzePortfolioRisk(active, params)

			if out.IsJSON() {
				return out.JSON(portfolio)
			}

			out.Info("Portfolio risk (%d open trades)", len(active))
			out.Printf("  overall level:    %s\n", out.RiskLevel(string(portfolio.OverallRiskLevel)))
			out.Printf("  total exposure:   %.1f%%\n", portfolio.TotalExposure)
			out.Printf("  diversification:  %.0f\n", portfolio.DiversificationScore)
			out.Printf("  drawdown:         %.2f%% (limit %.1f%%)\n", portfolio.CurrentDrawdown, params.DrawdownLimit)
			out.Printf("  risk utilization: %.0f%%\n", portfolio.RiskUtilization)

			if len(open) > 0 {
				out.Println()
				table := NewTable(out, "SYMBOL", "SIDE", "SIZE", "ENTRY", "PNL")
				for _, record := range open {
					table.AddRow(
						record.Symbol,
						string(record.Side),
						utils.FormatUSD(record.PositionSize),
						utils.FormatPrice(record.EntryPrice),
						out.FormatPnL(record.UnrealizedPnL),
					)
				}
				table.Render()
			}

			if len(portfolio.CorrelationMatrix) > 0 {
				out.Println()
				out.Info("Mean pairwise correlation")
				for symbol, corr := range portfolio.CorrelationMatrix {
					out.Printf("  %-12s %s\n", symbol, fmt.Sprintf("%.2f", corr))
				}
			}
			return nil
		},
	}
}
