package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/suimarket/kioskwatch/internal/blob/s3"
	"github.com/suimarket/kioskwatch/internal/cache/redis"
	"github.com/suimarket/kioskwatch/internal/config"
	"github.com/suimarket/kioskwatch/internal/domain"
	"github.com/suimarket/kioskwatch/internal/kiosk"
	"github.com/suimarket/kioskwatch/internal/notify"
	"github.com/suimarket/kioskwatch/internal/store/postgres"
	"github.com/suimarket/kioskwatch/internal/sui"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Ledger access
	Sui     *sui.Client
	Matcher *kiosk.Matcher

	// Reconciliation core
	Listings *kiosk.Service

	// Optional infrastructure; nil when the corresponding section is
	// disabled in the configuration.
	SignalBus *redis.SignalBus
	Snapshots *postgres.SnapshotStore
	Archiver  *s3blob.SnapshotArchiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Sui fullnode client ---
	rpcURL := cfg.Sui.ResolveRPCURL()
	if rpcURL == "" {
		return nil, nil, fmt.Errorf("wire: no RPC URL for network %q", cfg.Sui.Network)
	}
	deps.Sui = sui.NewClient(rpcURL)
	deps.Matcher = kiosk.NewMatcher(cfg.Market.ModuleName, cfg.Market.StructName, cfg.Market.AllowedPublishers)

	// --- Redis (display cache + signal bus) ---
	var displayCache kiosk.DisplayCache
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

		displayCache = redis.NewDisplayCache(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Reconciliation core ---
	reconciler := kiosk.NewReconciler(deps.Sui, deps.Matcher, logger)
	hydrator := kiosk.NewHydrator(deps.Sui, displayCache, logger)
	deps.Listings = kiosk.NewService(reconciler, hydrator, logger)

	// --- PostgreSQL snapshot store ---
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

		deps.Snapshots = postgres.NewSnapshotStore(pgClient.Pool())
	}

	// --- S3 snapshot archiver ---
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
		if err := s3Client.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Archiver = s3blob.NewSnapshotArchiver(s3Client)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramBotToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramBotToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	network := domain.Network(strings.ToLower(cfg.Sui.Network))
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, network, logger)

	return deps, cleanup, nil
}
