package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ATLAS_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ATLAS_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.Address, "ATLAS_WALLET_ADDRESS")
	setStr(&cfg.Wallet.PrivateKey, "ATLAS_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "ATLAS_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "ATLAS_WALLET_KEY_PASSWORD")

	// ── Hyperliquid ──
	setStr(&cfg.Hyperliquid.BaseURL, "ATLAS_HYPERLIQUID_BASE_URL")
	setStr(&cfg.Hyperliquid.WsURL, "ATLAS_HYPERLIQUID_WS_URL")
	setBool(&cfg.Hyperliquid.Testnet, "ATLAS_HYPERLIQUID_TESTNET")

	// ── Morpho ──
	setStr(&cfg.Morpho.Endpoint, "ATLAS_MORPHO_ENDPOINT")
	setStr(&cfg.Morpho.Chain, "ATLAS_MORPHO_CHAIN")
	setBool(&cfg.Morpho.Enabled, "ATLAS_MORPHO_ENABLED")

	// ── 0x ──
	setStr(&cfg.ZeroX.BaseURL, "ATLAS_ZEROX_BASE_URL")
	setStr(&cfg.ZeroX.APIKey, "ATLAS_ZEROX_API_KEY")
	setStr(&cfg.ZeroX.Chain, "ATLAS_ZEROX_CHAIN")
	setInt(&cfg.ZeroX.SlippageBps, "ATLAS_ZEROX_SLIPPAGE_BPS")
	setBool(&cfg.ZeroX.Enabled, "ATLAS_ZEROX_ENABLED")

	// ── Builder fee ──
	setStr(&cfg.Builder.Address, "ATLAS_BUILDER_ADDRESS")
	setUint16(&cfg.Builder.Bps, "ATLAS_BUILDER_BPS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ATLAS_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ATLAS_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ATLAS_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ATLAS_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ATLAS_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ATLAS_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ATLAS_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ATLAS_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ATLAS_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ATLAS_POSTGRES_RUN_MIGRATIONS")
	setBool(&cfg.Postgres.Enabled, "ATLAS_POSTGRES_ENABLED")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ATLAS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ATLAS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ATLAS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ATLAS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ATLAS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ATLAS_REDIS_TLS_ENABLED")
	setBool(&cfg.Redis.Enabled, "ATLAS_REDIS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ATLAS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ATLAS_S3_REGION")
	setStr(&cfg.S3.Bucket, "ATLAS_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ATLAS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ATLAS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ATLAS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ATLAS_S3_FORCE_PATH_STYLE")
	setBool(&cfg.S3.Enabled, "ATLAS_S3_ENABLED")

	// ── Sync ──
	setDuration(&cfg.Sync.Interval, "ATLAS_SYNC_INTERVAL")
	setDuration(&cfg.Sync.TickerTTL, "ATLAS_SYNC_TICKER_TTL")
	setInt(&cfg.Sync.OrderLimit, "ATLAS_SYNC_ORDER_LIMIT")

	// ── Risk ──
	setFloat64(&cfg.Risk.MaxRiskPct, "ATLAS_RISK_MAX_RISK_PCT")
	setUint32(&cfg.Risk.MaxLeverage, "ATLAS_RISK_MAX_LEVERAGE")
	setUint32(&cfg.Risk.MaxPositions, "ATLAS_RISK_MAX_POSITIONS")
	setFloat64(&cfg.Risk.MaxExposureMultiplier, "ATLAS_RISK_MAX_EXPOSURE_MULTIPLIER")
	setFloat64(&cfg.Risk.DefaultStopPct, "ATLAS_RISK_DEFAULT_STOP_PCT")
	setFloat64(&cfg.Risk.RewardRiskRatio, "ATLAS_RISK_REWARD_RISK_RATIO")

	// ── Top-level ──
	setStr(&cfg.Mode, "ATLAS_MODE")
	setStr(&cfg.LogLevel, "ATLAS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setUint16(dst *uint16, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 16); err == nil {
			*dst = uint16(n)
		}
	}
}

func setUint32(dst *uint32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
