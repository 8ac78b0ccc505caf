package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

func newSizeCmd(app *App) *cobra.Command {
	var (
		symbol   string
		side     string
		entry    float64
		stop     float64
		target   float64
		balance  float64
		riskPct  float64
		leverage float64
		noDCA    bool
		levels   int
	)

	cmd := &cobra.Command{
		Use:   "size",
		Short: "Compute position size and DCA ladder for a trade",
		Example: `  dca-trader size --symbol BTC/USDT --entry 50000 --stop 47500 --balance 10000
  dca-trader size --symbol ETH/USDT --side SELL --entry 3000 --stop 3150 --levels 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			settings := app.botSettings()

			if balance <= 0 {
				balance = app.Params.Get().AccountBalance
			}
			if riskPct <= 0 {
				riskPct = settings.RiskPercentage
			}
			if leverage <= 0 {
				leverage = settings.Leverage
			}
			if levels <= 0 {
				levels = settings.DCALevelCount
			}

			signal := &models.Signal{
				Symbol:          symbol,
				SignalType:      models.Side(side),
				EntryPrice:      entry,
				StopLossPrice:   stop,
				TakeProfitPrice: target,
			}

			calc, err := app.Calculator.ComputeTradeSizing(
				signal, &settings, balance, riskPct, leverage, !noDCA, levels)
			if err != nil {
				return err
			}
			if calc == nil {
				return fmt.Errorf("nothing to compute: check symbol, entry price, and balance")
			}

			if out.IsJSON() {
				return out.JSON(calc)
			}

			out.Info("%s %s @ %s", calc.Side, calc.Symbol, utils.FormatPrice(calc.EntryPrice))
			out.Printf("  position size:   %s\n", utils.FormatUSD(calc.PositionSize))
			out.Printf("  margin used:     %s (%.0fx)\n", utils.FormatUSD(calc.MarginUsed), calc.Leverage)
			out.Printf("  max loss:        %s (%.2f%% stop)\n", utils.FormatUSD(calc.MaxLossAmount), calc.ExpectedLossPercent)
			out.Printf("  initial order:   %s\n", utils.FormatUSD(calc.InitialAmount))

			if len(calc.DCALevels) > 0 {
				out.Println()
				table := NewTable(out, "LEVEL", "DROP", "PRICE", "AMOUNT", "CUMULATIVE", "AVG ENTRY")
				for _, lvl := range calc.DCALevels {
					table.AddRow(
						fmt.Sprintf("%d", lvl.Level),
						fmt.Sprintf("%.1f%%", lvl.PriceDropPercent),
						utils.FormatPrice(lvl.EntryPrice),
						utils.FormatUSD(lvl.Amount),
						utils.FormatUSD(lvl.CumulativeAmount),
						utils.FormatPrice(lvl.AverageEntry),
					)
				}
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "trading pair, e.g. BTC/USDT")
	cmd.Flags().StringVar(&side, "side", "BUY", "BUY or SELL")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "stop-loss price (defaults to configured stop %)")
	cmd.Flags().Float64Var(&target, "target", 0, "take-profit price")
	cmd.Flags().Float64Var(&balance, "balance", 0, "available balance in USD")
	cmd.Flags().Float64Var(&riskPct, "risk", 0, "risk percentage per trade")
	cmd.Flags().Float64Var(&leverage, "leverage", 0, "leverage multiplier")
	cmd.Flags().BoolVar(&noDCA, "no-dca", false, "disable the DCA ladder")
	cmd.Flags().IntVar(&levels, "levels", 0, "number of DCA levels")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("entry")

	return cmd
}
