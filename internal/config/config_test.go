package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dca-trader/internal/errors"
)

func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "binance", cfg.Trading.DefaultExchange)
	assert.Equal(t, 2.0, cfg.Risk.RiskPercentage)
	assert.Equal(t, 3, cfg.DCA.LevelCount)
	assert.False(t, cfg.AutoTrader.Enabled)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
leverage = 3.0

[risk]
risk_percentage = 1.5

[dca]
level_count = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 3.0, cfg.Trading.Leverage)
	assert.Equal(t, 1.5, cfg.Risk.RiskPercentage)
	assert.Equal(t, 5, cfg.DCA.LevelCount)
	// Untouched values keep defaults.
	assert.Equal(t, 5.0, cfg.Risk.DefaultStopLossPct)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := `
[trading]
leverage = 0.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "trading.leverage", verr.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"initial order over 100", func(c *Config) { c.Trading.InitialOrderPct = 150 }, "trading.initial_order_pct"},
		{"zero risk", func(c *Config) { c.Risk.RiskPercentage = 0 }, "risk.risk_percentage"},
		{"stop at 100", func(c *Config) { c.Risk.DefaultStopLossPct = 100 }, "risk.default_stop_loss_pct"},
		{"negative level count", func(c *Config) { c.DCA.LevelCount = -1 }, "dca.level_count"},
		{"offset out of range", func(c *Config) { c.DCA.CustomOffsets = []float64{2, 150} }, "dca.custom_offsets[1]"},
		{"bad direction", func(c *Config) { c.AutoTrader.AllowedDirections = []string{"HOLD"} }, "autotrader.allowed_directions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, cfg.Validate(), &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Trading.Leverage = 2
	cfg.Risk.MaxConcurrent = 3
	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.Trading.Leverage)
	assert.Equal(t, 3, loaded.Risk.MaxConcurrent)
}
