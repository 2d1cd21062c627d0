// Package app assembles the components shared by the binaries from a Config.
package app

import (
	"context"
	"fmt"
	"log"

	"token-launchpad/internal/config"
	"token-launchpad/internal/deploy"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/enrich"
	"token-launchpad/internal/httpx"
	"token-launchpad/internal/notify"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
	chstore "token-launchpad/internal/storage/clickhouse"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/storage/migrations"
	pgstore "token-launchpad/internal/storage/postgres"
	"token-launchpad/internal/tokensource"
)

// OpenStore connects the configured run state backend, applying migrations
// when enabled. The returned cleanup closes the connection.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.RunStateStore, func(), error) {
	capacity := cfg.Store.LogCapacity

	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Println("Using in-memory run state (lost on restart)")
		return observability.InstrumentStore(memory.NewRunStateStore(capacity), config.BackendMemory), func() {}, nil

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Store.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		store := pgstore.NewRunStateStore(pool, capacity)
		return observability.InstrumentStore(store, config.BackendPostgres), pool.Close, nil

	case config.BackendClickHouse:
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Store.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Store.ClickHouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Store.ClickHouseDSN)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w: %w", storage.ErrUnavailable, err)
		}
		store := chstore.NewRunStateStore(conn, capacity)
		return observability.InstrumentStore(store, config.BackendClickHouse), func() { conn.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// NewSource builds the rotating fetcher over every public provider.
func NewSource(cfg *config.Config, logger *log.Logger) *tokensource.Fetcher {
	client := httpx.New(
		httpx.WithTimeout(cfg.Sources.Timeout),
		httpx.WithMaxRetries(cfg.Sources.MaxRetries),
	)
	return tokensource.NewFetcher(tokensource.Options{
		Sources: tokensource.DefaultSources(client, tokensource.Endpoints{
			DexScreener:   cfg.Sources.DexScreener,
			GeckoTerminal: cfg.Sources.GeckoTerminal,
			CoinGecko:     cfg.Sources.CoinGecko,
		}),
		Timeout:   cfg.Sources.Timeout,
		Logger:    logger,
		OnFetched: observability.RecordSourceFetch,
	})
}

// NewRegistry returns the built-in protocol variant tables.
func NewRegistry() *deploy.Registry {
	return deploy.NewRegistry(deploy.DefaultAgents(), deploy.DefaultLaunchpads())
}

// NewDeployer builds the protocol pipeline, or a stub in dry-run mode.
func NewDeployer(cfg *config.Config, registry *deploy.Registry, logger *log.Logger) orchestrator.Deployer {
	if cfg.Deploy.DryRun {
		logger.Println("Dry run: deployments are simulated")
		return observability.InstrumentDeployer(deploy.NewStub())
	}
	client := httpx.New(httpx.WithTimeout(cfg.Deploy.HTTPTimeout))
	opts := deploy.Options{
		Client:   client,
		Registry: registry,
		Logger:   logger,
	}
	if cfg.Deploy.Enrich {
		opts.Describer = enrich.NewWebsite(client)
	}
	return observability.InstrumentDeployer(deploy.New(opts))
}

// NewNotifier returns a Telegram notifier when configured, else a log notifier.
func NewNotifier(cfg *config.Config, logger *log.Logger) (orchestrator.Notifier, error) {
	if cfg.Telegram.Token == "" {
		return notify.NewLogger(logger), nil
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		return nil, err
	}
	return tg, nil
}

// ValidateTarget rejects runs naming an unknown agent or launchpad.
func ValidateTarget(registry *deploy.Registry) func(domain.Target) error {
	return func(t domain.Target) error {
		if _, err := registry.Agent(t.Agent); err != nil {
			return err
		}
		_, err := registry.Launchpad(t.Launchpad)
		return err
	}
}
