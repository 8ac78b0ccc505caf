package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dca-trader/internal/cache"
	"dca-trader/internal/execution"
	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

func newTradeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Execute and manage trades",
	}
	cmd.AddCommand(newTradeOpenCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	return cmd
}

func newTradeOpenCmd(app *App) *cobra.Command {
	var (
		symbol string
		side   string
		entry  float64
		stop   float64
		target float64
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Size, assess, and execute a trade",
		Example: `  dca-trader trade open --symbol BTC/USDT --entry 50000 --stop 47500
  dca-trader trade open --symbol ETH/USDT --side SELL --entry 3000 --stop 3150 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			settings := app.botSettings()
			params := app.Params.Get()

			signal := &models.Signal{
				ID:              uuid.NewString(),
				Symbol:          symbol,
				SignalType:      models.Side(side),
				EntryPrice:      entry,
				StopLossPrice:   stop,
				TakeProfitPrice: target,
				ReceivedAt:      time.Now(),
			}

			calc, err := app.Calculator.ComputeTradeSizing(
				signal, &settings,
				params.AccountBalance, settings.RiskPercentage, settings.Leverage,
				settings.EnableDCA, settings.DCALevelCount,
			)
			if err != nil {
				return err
			}
			if calc == nil {
				return fmt.Errorf("nothing to compute: check symbol, entry price, and balance")
			}

			assessment := app.Assessor.AssessTradeRisk(
				symbol, entry, calc.StopLossPrice, calc.TakeProfitPrice,
				app.Stats.Snapshot(symbol), params,
			)
			out.Printf("Risk: %.0f (%s)\n", assessment.RiskScore, out.Recommendation(string(assessment.Recommendation)))

			payload := execution.BuildExecutionPayload(calc, signal, &settings)
			if dryRun {
				out.Warning("Dry run, not executing")
				return out.JSON(payload)
			}

			trades, err := app.openStore()
			if err != nil {
				return err
			}
			defer trades.Close()

			limiter := cache.NewRateLimiter(10, time.Minute)
			defer limiter.Stop()

			executor := execution.NewExecutor(app.Adapters, trades, limiter, app.Logger)
			result, err := executor.Execute(cmd.Context(), payload)
			if err != nil {
				return err
			}

			out.Success("Trade opened: %s %s for %s",
				calc.Side, calc.Symbol, utils.FormatUSD(calc.PositionSize))
			out.Printf("  trade id:      %s\n", result.TradeID)
			out.Printf("  initial order: %s\n", result.InitialOrderID)
			out.Printf("  dca orders:    %d\n", len(result.DCAOrderIDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "trading pair, e.g. BTC/USDT")
	cmd.Flags().StringVar(&side, "side", "BUY", "BUY or SELL")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price")
	cmd.Flags().Float64Var(&stop, "stop", 0, "stop-loss price")
	cmd.Flags().Float64Var(&target, "target", 0, "take-profit price")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the payload without executing")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("entry")

	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	var pnl float64

	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Mark a trade closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trades, err := app.openStore()
			if err != nil {
				return err
			}
			defer trades.Close()

			if err := trades.CloseTrade(cmd.Context(), args[0], pnl, time.Now()); err != nil {
				return err
			}
			NewOutput(cmd).Success("Trade %s closed with P&L %s", args[0], utils.FormatPnL(pnl))
			return nil
		},
	}

	cmd.Flags().Float64Var(&pnl, "pnl", 0, "realized P&L in USD")
	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open trades",
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
			if out.IsJSON() {
				return out.JSON(open)
			}
			if len(open) == 0 {
				out.Println("No open trades")
				return nil
			}

			table := NewTable(out, "ID", "SYMBOL", "SIDE", "SIZE", "ENTRY", "PNL", "OPENED")
			for _, record := range open {
				table.AddRow(
					record.ID,
					record.Symbol,
					string(record.Side),
					utils.FormatUSD(record.PositionSize),
					utils.FormatPrice(record.EntryPrice),
					out.FormatPnL(record.UnrealizedPnL),
					record.OpenedAt.Local().Format("Jan 02 15:04"),
				)
			}
			table.Render()
			return nil
		},
	}
}
