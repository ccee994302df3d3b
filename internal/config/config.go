// Package config defines all configuration for the cross-price arbitrage
// scanner. Config is loaded from a YAML file (default:
// configs/config.yaml) with sensitive fields overridable via ARB_* env vars.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Wallet     WalletConfig     `mapstructure:"wallet"`
	API        APIConfig        `mapstructure:"api"`
	CrossPrice CrossPriceConfig `mapstructure:"cross_price"`
	Paper      PaperConfig      `mapstructure:"paper"`
	Risk       RiskConfig       `mapstructure:"risk"`
	Loop       LoopConfig       `mapstructure:"loop"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
}

// WalletConfig holds the Ethereum wallet used for order signing. Only
// exercised by the (secondary) signer path; paper trading never reads it.
type WalletConfig struct {
	PrivateKey    string `mapstructure:"private_key"`
	SignatureType int    `mapstructure:"signature_type"`
	FunderAddress string `mapstructure:"funder_address"`
	ChainID       int    `mapstructure:"chain_id"`
}

// APIConfig holds the remote quote-service endpoint.
type APIConfig struct {
	GammaBaseURL string `mapstructure:"gamma_base_url"`
	WSMarketURL  string `mapstructure:"ws_market_url"`
}

// CrossPriceConfig is the immutable policy bound to the detector. Validated
// at construction: 0 ≤ min_spread < max_spread ≤ 1, min_time_remaining <
// max_time_remaining, fee_rate in [0, 0.1].
type CrossPriceConfig struct {
	MinSpread        float64       `mapstructure:"min_spread"`
	MaxSpread        float64       `mapstructure:"max_spread"`
	MinTimeRemaining time.Duration `mapstructure:"min_time_remaining"`
	MaxTimeRemaining time.Duration `mapstructure:"max_time_remaining"`
	MaxPosition      float64       `mapstructure:"max_position"`
	FeeRate          float64       `mapstructure:"fee_rate"`
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
}

// Validate checks the numeric ranges spec.md §3 requires.
func (c CrossPriceConfig) Validate() error {
	if c.MinSpread < 0 || c.MinSpread >= c.MaxSpread {
		return fmt.Errorf("cross_price: min_spread must be >= 0 and < max_spread")
	}
	if c.MaxSpread > 1 {
		return fmt.Errorf("cross_price: max_spread must be <= 1")
	}
	if c.MinTimeRemaining >= c.MaxTimeRemaining {
		return fmt.Errorf("cross_price: min_time_remaining must be < max_time_remaining")
	}
	if c.FeeRate < 0 || c.FeeRate > 0.1 {
		return fmt.Errorf("cross_price: fee_rate must be in [0, 0.1]")
	}
	if c.MaxPosition <= 0 {
		return fmt.Errorf("cross_price: max_position must be > 0")
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("cross_price: max_concurrent must be > 0")
	}
	return nil
}

// PaperConfig tunes the paper-trading simulator.
type PaperConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	MinPosition    float64 `mapstructure:"min_position"`
}

// RiskConfig bounds the aggregate-exposure and daily-loss safety net.
type RiskConfig struct {
	MaxAggregateExposure float64       `mapstructure:"max_aggregate_exposure"`
	MaxDailyLoss         float64       `mapstructure:"max_daily_loss"`
	CooldownAfter        time.Duration `mapstructure:"cooldown_after"`
}

// LoopConfig tunes the scan loop's cadence.
type LoopConfig struct {
	ScanInterval    time.Duration `mapstructure:"scan_interval"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	SleepInterval   time.Duration `mapstructure:"sleep_interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DashboardConfig controls the optional read-only status server.
type DashboardConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads config from a YAML file with env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// An explicit SetConfigFile path that does not exist surfaces as a
		// plain file-not-found error rather than ConfigFileNotFoundError;
		// both fall back to the defaults.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("ARB_PRIVATE_KEY"); key != "" {
		cfg.Wallet.PrivateKey = key
	}

	return &cfg, nil
}

// setDefaults seeds the scan-mode defaults from the original implementation:
// min_spread 0.5%, max_spread 15%, 30s-15m window, $100 max position, no fee.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.gamma_base_url", "https://gamma-api.polymarket.com")
	v.SetDefault("api.ws_market_url", "wss://ws-subscriptions-clob.polymarket.com/ws/market")
	v.SetDefault("cross_price.min_spread", 0.005)
	v.SetDefault("cross_price.max_spread", 0.15)
	v.SetDefault("cross_price.min_time_remaining", 30*time.Second)
	v.SetDefault("cross_price.max_time_remaining", 900*time.Second)
	v.SetDefault("cross_price.max_position", 100.0)
	v.SetDefault("cross_price.fee_rate", 0.0)
	v.SetDefault("cross_price.max_concurrent", 10)
	v.SetDefault("paper.initial_balance", 1000.0)
	v.SetDefault("paper.min_position", 10.0)
	v.SetDefault("risk.max_aggregate_exposure", 500.0)
	v.SetDefault("risk.max_daily_loss", 100.0)
	v.SetDefault("risk.cooldown_after", 15*time.Minute)
	v.SetDefault("loop.scan_interval", 30*time.Second)
	v.SetDefault("loop.refresh_interval", 5*time.Minute)
	v.SetDefault("loop.sleep_interval", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("dashboard.enabled", false)
	v.SetDefault("dashboard.port", 8090)
}

// PaperDefaults returns the tighter window the original `paper` CLI command
// uses: 1%-10% spread, 60s-10m window, $50 per trade.
func PaperDefaults() CrossPriceConfig {
	return CrossPriceConfig{
		MinSpread:        0.01,
		MaxSpread:        0.10,
		MinTimeRemaining: 60 * time.Second,
		MaxTimeRemaining: 600 * time.Second,
		MaxPosition:      50.0,
		FeeRate:          0,
		MaxConcurrent:    10,
	}
}

// ScanDefaults returns the wider window the `scan` CLI command uses.
func ScanDefaults() CrossPriceConfig {
	return CrossPriceConfig{
		MinSpread:        0.005,
		MaxSpread:        0.15,
		MinTimeRemaining: 30 * time.Second,
		MaxTimeRemaining: 900 * time.Second,
		MaxPosition:      100.0,
		FeeRate:          0,
		MaxConcurrent:    10,
	}
}
