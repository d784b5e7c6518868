package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config collects every tunable of a simulation run. It is built once and
// passed into the broker, risk manager and sizer constructors so independent
// simulations can run side by side with different parameters.
type Config struct {
	Costs    CostsConfig    `json:"costs" yaml:"costs"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Sizing   SizingConfig   `json:"sizing" yaml:"sizing"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// CostsConfig models the frictional costs of the matching engine.
type CostsConfig struct {
	CommissionRate float64 `json:"commission_rate" yaml:"commission_rate"`
	CommissionMin  float64 `json:"commission_min" yaml:"commission_min"`
	StampTaxRate   float64 `json:"stamp_tax_rate" yaml:"stamp_tax_rate"` // sells only
	SlippageRate   float64 `json:"slippage_rate" yaml:"slippage_rate"`

	// LimitTolerance widens the limit-lock detection band around the
	// theoretical limit price to absorb rounding noise in exchange data.
	LimitTolerance float64 `json:"limit_tolerance" yaml:"limit_tolerance"`
}

// RiskConfig holds the stop thresholds and exposure caps.
type RiskConfig struct {
	MaxDrawdownLimit     float64 `json:"max_drawdown_limit" yaml:"max_drawdown_limit"`
	HardStop             float64 `json:"hard_stop" yaml:"hard_stop"`
	TrailingStop         float64 `json:"trailing_stop" yaml:"trailing_stop"`
	TimeStopDays         int     `json:"time_stop_days" yaml:"time_stop_days"`
	VolatilityMultiplier float64 `json:"volatility_multiplier" yaml:"volatility_multiplier"`
	MaxSinglePosition    float64 `json:"max_single_position" yaml:"max_single_position"`
	MaxSectorExposure    float64 `json:"max_sector_exposure" yaml:"max_sector_exposure"`
	MaxPositions         int     `json:"max_positions" yaml:"max_positions"`
}

// SizingConfig selects and parameterizes the position-sizing policy.
type SizingConfig struct {
	Method          string  `json:"method" yaml:"method"` // kelly, atr, risk_parity, equal
	ATRRiskPerTrade float64 `json:"atr_risk_per_trade" yaml:"atr_risk_per_trade"`
	KellyFraction   float64 `json:"kelly_fraction" yaml:"kelly_fraction"`
}

// BacktestConfig holds the run-level parameters.
type BacktestConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	Benchmark      string  `json:"benchmark" yaml:"benchmark"`
}

// JournalConfig selects where trade and equity records are persisted.
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml) or indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the core cannot run with.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("backtest.initial_capital must be positive")
	}
	if c.Costs.CommissionRate < 0 || c.Costs.StampTaxRate < 0 || c.Costs.SlippageRate < 0 {
		return fmt.Errorf("cost rates must be non-negative")
	}
	if c.Risk.MaxDrawdownLimit <= 0 || c.Risk.MaxDrawdownLimit >= 1 {
		return fmt.Errorf("risk.max_drawdown_limit must be in (0, 1)")
	}
	if c.Risk.MaxSinglePosition <= 0 || c.Risk.MaxSinglePosition > 1 {
		return fmt.Errorf("risk.max_single_position must be in (0, 1]")
	}
	if c.Risk.MaxPositions <= 0 {
		return fmt.Errorf("risk.max_positions must be positive")
	}
	switch c.Sizing.Method {
	case "kelly", "atr", "risk_parity", "equal":
	default:
		return fmt.Errorf("sizing.method must be kelly, atr, risk_parity or equal")
	}
	if c.Journal.Type != "" && c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && (c.Journal.TradesFile == "" || c.Journal.EquityFile == "") {
		return fmt.Errorf("journal trades_file and equity_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}
	return nil
}

// Default returns the standard A-share cost and risk parameters.
func Default() *Config {
	return &Config{
		Costs: CostsConfig{
			CommissionRate: 0.00025,
			CommissionMin:  5.0,
			StampTaxRate:   0.001,
			SlippageRate:   0.001,
			LimitTolerance: 0.002,
		},
		Risk: RiskConfig{
			MaxDrawdownLimit:     0.15,
			HardStop:             0.08,
			TrailingStop:         0.10,
			TimeStopDays:         20,
			VolatilityMultiplier: 2,
			MaxSinglePosition:    0.25,
			MaxSectorExposure:    0.40,
			MaxPositions:         8,
		},
		Sizing: SizingConfig{
			Method:          "atr",
			ATRRiskPerTrade: 0.02,
			KellyFraction:   0.25,
		},
		Backtest: BacktestConfig{
			InitialCapital: 1_000_000,
			RiskFreeRate:   0.03,
			Benchmark:      "sh000300",
		},
	}
}
