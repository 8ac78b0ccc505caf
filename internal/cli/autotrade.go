package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dca-trader/internal/autotrader"
	"dca-trader/internal/cache"
	"dca-trader/internal/execution"
	"dca-trader/internal/models"
	"dca-trader/internal/notify"
)

func newAutotradeCmd(app *App) *cobra.Command {
	var signalFile string

	cmd := &cobra.Command{
		Use:   "autotrade",
		Short: "Run a signal through the auto-trading pipeline",
		Long: `Reads a JSON signal from a file (or stdin with -) and runs it
through the full pipeline: filter, sizing, risk assessment, portfolio
check, then execution.`,
		Example: `  dca-trader autotrade --signal signal.json
  echo '{"symbol":"BTC/USDT","signal_type":"BUY","entry_price":50000,"stop_loss_price":47500,"confidence":80}' | dca-trader autotrade --signal -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd)

			signal, err := readSignal(signalFile)
			if err != nil {
				return err
			}

			trades, err := app.openStore()
			if err != nil {
				return err
			}
			defer trades.Close()

			limiter := cache.NewRateLimiter(10, time.Minute)
			defer limiter.Stop()

			settings := app.botSettings()
			executor := execution.NewExecutor(app.Adapters, trades, limiter, app.Logger)

			var notifier notify.Notifier = notify.NopNotifier{}
			if !out.IsJSON() {
				notifier = notify.NewTerminalNotifier()
			}

			trader := autotrader.New(
				&settings, app.Params, app.Calculator, app.Assessor, app.Analyzer,
				executor, trades, app.Stats, notifier, app.Logger,
			)

			result, err := trader.HandleSignal(cmd.Context(), signal)
			if err != nil {
				return err
			}

			if out.IsJSON() {
				return out.JSON(result)
			}
			if result.Executed {
				out.Success("Signal executed (trade %s)", result.Execution.TradeID)
			} else {
				out.Warning("Signal blocked: %s", result.BlockReason)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&signalFile, "signal", "-", "path to a JSON signal file, or - for stdin")
	return cmd
}

func readSignal(path string) (*models.Signal, error) {
	var reader io.Reader = os.Stdin
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening signal file: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var signal models.Signal
	if err := json.NewDecoder(reader).Decode(&signal); err != nil {
		return nil, fmt.Errorf("parsing signal: %w", err)
	}
	if signal.ID == "" {
		signal.ID = uuid.NewString()
	}
	if signal.ReceivedAt.IsZero() {
		signal.ReceivedAt = time.Now()
	}
	return &signal, nil
}
