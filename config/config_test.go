package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 0.00025, cfg.Costs.CommissionRate, 1e-12)
	assert.InDelta(t, 5.0, cfg.Costs.CommissionMin, 1e-12)
	assert.InDelta(t, 0.001, cfg.Costs.StampTaxRate, 1e-12)
	assert.InDelta(t, 0.15, cfg.Risk.MaxDrawdownLimit, 1e-12)
	assert.Equal(t, 8, cfg.Risk.MaxPositions)
	assert.Equal(t, "atr", cfg.Sizing.Method)
	assert.InDelta(t, 1_000_000, cfg.Backtest.InitialCapital, 1e-6)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero capital", func(c *Config) { c.Backtest.InitialCapital = 0 }, "initial_capital"},
		{"negative commission", func(c *Config) { c.Costs.CommissionRate = -0.001 }, "cost rates"},
		{"drawdown out of range", func(c *Config) { c.Risk.MaxDrawdownLimit = 1.5 }, "max_drawdown_limit"},
		{"zero position cap", func(c *Config) { c.Risk.MaxSinglePosition = 0 }, "max_single_position"},
		{"zero positions", func(c *Config) { c.Risk.MaxPositions = 0 }, "max_positions"},
		{"unknown method", func(c *Config) { c.Sizing.Method = "martingale" }, "sizing.method"},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }, "journal.type"},
		{"csv journal without paths", func(c *Config) { c.Journal.Type = "csv" }, "trades_file"},
		{"sqlite journal without path", func(c *Config) { c.Journal.Type = "sqlite" }, "db_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveAndLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backtest.yaml")

	cfg := Default()
	cfg.Backtest.InitialCapital = 500_000
	cfg.Sizing.Method = "kelly"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 500_000, loaded.Backtest.InitialCapital, 1e-6)
	assert.Equal(t, "kelly", loaded.Sizing.Method)
	assert.InDelta(t, cfg.Costs.LimitTolerance, loaded.Costs.LimitTolerance, 1e-12)
}

func TestSaveAndLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backtest.json")

	cfg := Default()
	cfg.Risk.MaxPositions = 5
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Risk.MaxPositions)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	writeConfig(t, path, "backtest:\n  initial_capital: 250000\n")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 250_000, loaded.Backtest.InitialCapital, 1e-6)
	assert.InDelta(t, 0.00025, loaded.Costs.CommissionRate, 1e-12, "untouched defaults survive")
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	writeConfig(t, path, "backtest:\n  initial_capital: -5\n")

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "invalid config")

	_, err = LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
