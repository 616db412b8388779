package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "sync"
log_level = "debug"

[hyperliquid]
testnet = true

[postgres]
enabled = true
database = "atlas_test"

[risk]
max_leverage = 10

[trading]
default_leverage = 3

[sync]
interval = "1m"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sync", cfg.Mode)
	assert.True(t, cfg.Hyperliquid.Testnet)
	assert.Equal(t, "atlas_test", cfg.Postgres.Database)
	// Untouched fields keep their defaults.
	assert.Equal(t, "https://api.hyperliquid.xyz", cfg.Hyperliquid.BaseURL)
	assert.Equal(t, uint32(10), cfg.Risk.MaxLeverage)
	assert.Equal(t, uint32(3), cfg.Trading.DefaultLeverage)
	assert.Equal(t, "1m0s", cfg.Sync.Interval.String())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_MODE", "stream")
	t.Setenv("ATLAS_WALLET_PRIVATE_KEY", "0xabc")
	t.Setenv("ATLAS_RISK_MAX_LEVERAGE", "15")
	t.Setenv("ATLAS_HYPERLIQUID_TESTNET", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stream", cfg.Mode)
	assert.Equal(t, "0xabc", cfg.Wallet.PrivateKey)
	assert.Equal(t, uint32(15), cfg.Risk.MaxLeverage)
	assert.True(t, cfg.Hyperliquid.Testnet)
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "nonsense"
	cfg.LogLevel = "loud"
	cfg.Hyperliquid.BaseURL = ""
	cfg.Risk.MaxLeverage = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "unknown log_level")
	assert.Contains(t, err.Error(), "hyperliquid: base_url")
	assert.Contains(t, err.Error(), "max_leverage")
}

func TestValidateModeRequirements(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "export"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres must be enabled")
	assert.Contains(t, err.Error(), "s3 must be enabled")

	cfg.Postgres.Enabled = true
	cfg.S3.Enabled = true
	require.NoError(t, cfg.Validate())

	// fetch needs object storage but no database.
	cfg.Mode = "fetch"
	cfg.Postgres.Enabled = false
	require.NoError(t, cfg.Validate())
	cfg.S3.Enabled = false
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3 must be enabled")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "secret-key"
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "s3-secret"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Wallet.PrivateKey)
	assert.Equal(t, "***", red.Postgres.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	// Original is untouched.
	assert.Equal(t, "secret-key", cfg.Wallet.PrivateKey)
	// Non-secret fields survive.
	assert.Equal(t, cfg.Hyperliquid.BaseURL, red.Hyperliquid.BaseURL)
}
