package config

import "github.com/Atlas-Looti/atlas-os-sub001/internal/risk"

// RedactedConfig returns a shallow copy of cfg with sensitive fields
// replaced by the redaction placeholder "***". Use this when logging or
// printing the active configuration so secrets are never accidentally
// exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Wallet.PrivateKey)
	redact(&out.Wallet.KeyPassword)

	redact(&out.ZeroX.APIKey)

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	redact(&out.Redis.Password)

	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Copy maps so mutations to the redacted copy do not affect the
	// original.
	if cfg.Trading.Lots.Assets != nil {
		out.Trading.Lots.Assets = make(map[string]float64, len(cfg.Trading.Lots.Assets))
		for k, v := range cfg.Trading.Lots.Assets {
			out.Trading.Lots.Assets[k] = v
		}
	}
	if cfg.Risk.AssetOverrides != nil {
		out.Risk.AssetOverrides = make(map[string]risk.AssetOverride, len(cfg.Risk.AssetOverrides))
		for k, v := range cfg.Risk.AssetOverrides {
			out.Risk.AssetOverrides[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
