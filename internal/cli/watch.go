package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dca-trader/internal/marketdata"
	"dca-trader/internal/models"
	"dca-trader/pkg/utils"
)

func newWatchCmd(app *App) *cobra.Command {
	var (
		symbols []string
		futures bool
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live prices and volatility stats",
		Long: `Subscribes to live price streams for the given symbols and keeps
rolling volatility and volume statistics. Runs until interrupted.`,
		Example: `  dca-trader watch --symbols BTC/USDT,ETH/USDT
  dca-trader watch --symbols BTC/USDT --futures`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)
			if len(symbols) == 0 {
				return fmt.Errorf("at least one symbol is required")
			}

			handler := func(tick marketdata.Tick) {
				if quiet {
					return
				}
				out.Printf("%s  %-12s %s  vol %s\n",
					tick.Timestamp.Format("15:04:05"),
					tick.Symbol,
					utils.FormatPrice(tick.Price),
					utils.FormatCompact(tick.Volume24h))
			}

			ticker := marketdata.NewTicker(symbols, futures, app.Stats, handler, app.Logger)
			ticker.Start(cmd.Context())

			out.Info("Watching %d symbols, press Ctrl-C to stop", len(symbols))

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-cmd.Context().Done():
			}
			ticker.Stop()

			out.Println()
			for _, symbol := range symbols {
				snap := app.Stats.Snapshot(utils.NormalizeSymbol(symbol))
				if snap == nil {
					continue
				}
				printSnapshot(out, snap)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to watch (e.g. BTC/USDT,ETH/USDT)")
	cmd.Flags().BoolVar(&futures, "futures", false, "use the futures price stream")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-tick output")
	return cmd
}

func printSnapshot(out *Output, snap *models.MarketData) {
	out.Printf("%-12s price %s  volatility %.2f%%  24h volume %s\n",
		snap.Symbol,
		utils.FormatPrice(snap.Price),
		snap.Volatility*100,
		utils.FormatCompact(snap.Volume24h))
}
