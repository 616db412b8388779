// Package config defines the top-level configuration for the aggregator and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Atlas-Looti/atlas-os-sub001/internal/fees"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/risk"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ATLAS_* environment variables.
type Config struct {
	Wallet      WalletConfig       `toml:"wallet"`
	Hyperliquid HyperliquidConfig  `toml:"hyperliquid"`
	Morpho      MorphoConfig       `toml:"morpho"`
	ZeroX       ZeroXConfig        `toml:"zerox"`
	Builder     fees.BuilderFee    `toml:"builder"`
	Trading     risk.TradingConfig `toml:"trading"`
	Risk        risk.Config        `toml:"risk"`
	Postgres    PostgresConfig     `toml:"postgres"`
	Redis       RedisConfig        `toml:"redis"`
	S3          S3Config           `toml:"s3"`
	Sync        SyncConfig         `toml:"sync"`
	Mode        string             `toml:"mode"`
	LogLevel    string             `toml:"log_level"`
}

// WalletConfig holds the signing key material. The agent key signs orders
// on behalf of the account at Address once approved on the venue.
type WalletConfig struct {
	Address          string `toml:"address"`
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// HyperliquidConfig holds Hyperliquid endpoints and network selection.
type HyperliquidConfig struct {
	BaseURL string `toml:"base_url"`
	WsURL   string `toml:"ws_url"`
	Testnet bool   `toml:"testnet"`
}

// MorphoConfig holds Morpho Blue API parameters.
type MorphoConfig struct {
	Endpoint string `toml:"endpoint"`
	Chain    string `toml:"chain"`
	Enabled  bool   `toml:"enabled"`
}

// ZeroXConfig holds 0x Swap API parameters.
type ZeroXConfig struct {
	BaseURL     string `toml:"base_url"`
	APIKey      string `toml:"api_key"`
	Chain       string `toml:"chain"`
	SlippageBps int    `toml:"slippage_bps"`
	Enabled     bool   `toml:"enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
	Enabled       bool   `toml:"enabled"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Enabled    bool   `toml:"enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Enabled        bool   `toml:"enabled"`
}

// SyncConfig controls the fill/order history sync loop.
type SyncConfig struct {
	Interval   duration `toml:"interval"`
	TickerTTL  duration `toml:"ticker_ttl"`
	OrderLimit int      `toml:"order_limit"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Hyperliquid: HyperliquidConfig{
			BaseURL: "https://api.hyperliquid.xyz",
			WsURL:   "wss://api.hyperliquid.xyz/ws",
		},
		Morpho: MorphoConfig{
			Endpoint: "https://blue-api.morpho.org/graphql",
			Chain:    "ethereum",
			Enabled:  true,
		},
		ZeroX: ZeroXConfig{
			BaseURL:     "https://api.0x.org",
			Chain:       "ethereum",
			SlippageBps: 100,
			Enabled:     false,
		},
		Builder: fees.Default(),
		Trading: risk.DefaultTradingConfig(),
		Risk:    risk.DefaultConfig(),
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "atlas",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
			Enabled:       false,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			Enabled:    false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "atlas-exports",
			UseSSL:         false,
			ForcePathStyle: true,
			Enabled:        false,
		},
		Sync: SyncConfig{
			Interval:   duration{5 * time.Minute},
			TickerTTL:  duration{30 * time.Second},
			OrderLimit: 100,
		},
		Mode:     "status",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"status": true,
	"sync":   true,
	"stream": true,
	"export": true,
	"fetch":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validChains enumerates the chain names accepted by the venue configs.
var validChains = map[string]bool{
	"ethereum": true,
	"arbitrum": true,
	"base":     true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: status, sync, stream, export, fetch)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet key material is optional: without it the app runs read-only.
	if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
		errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
	}

	if c.Hyperliquid.BaseURL == "" {
		errs = append(errs, "hyperliquid: base_url must not be empty")
	}

	if c.Morpho.Enabled {
		if c.Morpho.Endpoint == "" {
			errs = append(errs, "morpho: endpoint must not be empty when enabled")
		}
		if !validChains[strings.ToLower(c.Morpho.Chain)] {
			errs = append(errs, fmt.Sprintf("morpho: unknown chain %q (valid: ethereum, arbitrum, base)", c.Morpho.Chain))
		}
	}

	if c.ZeroX.Enabled {
		if c.ZeroX.APIKey == "" {
			errs = append(errs, "zerox: api_key is required when enabled")
		}
		if !validChains[strings.ToLower(c.ZeroX.Chain)] {
			errs = append(errs, fmt.Sprintf("zerox: unknown chain %q (valid: ethereum, arbitrum, base)", c.ZeroX.Chain))
		}
		if c.ZeroX.SlippageBps <= 0 || c.ZeroX.SlippageBps > 10_000 {
			errs = append(errs, fmt.Sprintf("zerox: slippage_bps must be 1-10000, got %d", c.ZeroX.SlippageBps))
		}
	}

	if c.Builder.Enabled() && !strings.HasPrefix(c.Builder.Address, "0x") {
		errs = append(errs, fmt.Sprintf("builder: address %q is not a hex address", c.Builder.Address))
	}

	if c.Risk.MaxRiskPct <= 0 || c.Risk.MaxRiskPct >= 1 {
		errs = append(errs, fmt.Sprintf("risk: max_risk_pct must be in (0, 1), got %g", c.Risk.MaxRiskPct))
	}
	if c.Risk.MaxLeverage < 1 {
		errs = append(errs, "risk: max_leverage must be >= 1")
	}
	if c.Risk.MaxPositions < 1 {
		errs = append(errs, "risk: max_positions must be >= 1")
	}
	if c.Trading.DefaultLeverage < 1 {
		errs = append(errs, "trading: default_leverage must be >= 1")
	}
	if c.Trading.DefaultLeverage > c.Risk.MaxLeverage {
		errs = append(errs, "trading: default_leverage must not exceed risk.max_leverage")
	}

	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	mode := strings.ToLower(c.Mode)
	if (mode == "sync" || mode == "export") && !c.Postgres.Enabled {
		errs = append(errs, fmt.Sprintf("postgres must be enabled for mode %q", c.Mode))
	}
	if (mode == "export" || mode == "fetch") && !c.S3.Enabled {
		errs = append(errs, fmt.Sprintf("s3 must be enabled for mode %q", c.Mode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
