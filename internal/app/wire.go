package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/Atlas-Looti/atlas-os-sub001/internal/blob/s3"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/cache/redis"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/config"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/crypto"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/domain"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/orchestrator"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/platform/hyperliquid"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/platform/morpho"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/platform/zerox"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/service"
	"github.com/Atlas-Looti/atlas-os-sub001/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Orchestrator *orchestrator.Orchestrator

	// Signer is nil when no wallet key is configured; the app then runs
	// read-only.
	Signer *crypto.Signer

	// Hyperliquid is the concrete adapter, kept alongside its registry
	// entry for websocket streaming.
	Hyperliquid *hyperliquid.Adapter
	WSURL       string

	// Optional storage-backed services. Nil when the backing store is
	// disabled in config.
	History     *service.HistoryService
	Export      *service.ExportService
	Archiver    *s3blob.Archiver
	BlobReader  domain.BlobReader
	TickerCache domain.TickerCache
	PriceBus    *redis.PriceBus
}

// chainFromName maps a config chain name to the domain chain id.
func chainFromName(name string) domain.Chain {
	switch strings.ToLower(name) {
	case "arbitrum":
		return domain.ChainArbitrum
	case "base":
		return domain.ChainBase
	default:
		return domain.ChainEthereum
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Signer (optional: without key material the app is read-only) ---
	if cfg.Wallet.PrivateKey != "" || cfg.Wallet.EncryptedKeyPath != "" {
		keyHex, err := crypto.LoadKey(crypto.KeyConfig{
			RawPrivateKey:    cfg.Wallet.PrivateKey,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: load key: %w", err)
		}
		signer, err := crypto.NewSigner(keyHex)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: signer: %w", err)
		}
		deps.Signer = signer
		logger.Info("signer loaded", slog.String("agent_address", signer.Address().Hex()))
	} else {
		logger.Info("no wallet key configured; running read-only")
	}

	// --- Venue adapters and registry ---
	orch := orchestrator.New(logger)
	deps.Orchestrator = orch

	hl := hyperliquid.New(hyperliquid.Config{
		BaseURL: cfg.Hyperliquid.BaseURL,
		Testnet: cfg.Hyperliquid.Testnet,
		Address: cfg.Wallet.Address,
		Signer:  deps.Signer,
		Fee:     cfg.Builder,
		Logger:  logger,
	})
	deps.Hyperliquid = hl
	deps.WSURL = cfg.Hyperliquid.WsURL
	orch.RegisterPerp(hl)

	if cfg.Morpho.Enabled {
		orch.RegisterLending(morpho.New(morpho.Config{
			Endpoint: cfg.Morpho.Endpoint,
			Chain:    chainFromName(cfg.Morpho.Chain),
			Logger:   logger,
		}))
	}

	if cfg.ZeroX.Enabled {
		orch.RegisterSwap(zerox.New(zerox.Config{
			BaseURL:     cfg.ZeroX.BaseURL,
			APIKey:      cfg.ZeroX.APIKey,
			Chain:       chainFromName(cfg.ZeroX.Chain),
			SlippageBps: uint32(cfg.ZeroX.SlippageBps),
			Fee:         cfg.Builder,
			Logger:      logger,
		}))
	}

	// --- Redis (optional) ---
	var locks service.Locker
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.TickerCache = redis.NewTickerCache(redisClient, cfg.Sync.TickerTTL.Duration)
		deps.PriceBus = redis.NewPriceBus(redisClient)
		locks = redis.NewLockManager(redisClient)
	}

	// --- PostgreSQL (optional) ---
	var fills *postgres.FillStore
	var orders *postgres.OrderStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		fills = postgres.NewFillStore(pool)
		orders = postgres.NewOrderStore(pool)
		deps.History = service.NewHistoryService(fills, orders, locks, logger)
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		writer := s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		if fills != nil {
			deps.Export = service.NewExportService(fills, writer, logger)
			deps.Archiver = s3blob.NewArchiver(writer, fills, orders, logger)
		}
	}

	return deps, cleanup, nil
}
