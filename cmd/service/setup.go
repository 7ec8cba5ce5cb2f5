package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/leonid6372/paper-trading/internal/common/clients/yahoo"
	"github.com/leonid6372/paper-trading/internal/common/config"
	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/common/repositories/memory"
	"github.com/leonid6372/paper-trading/internal/common/repositories/postgres"
	"github.com/leonid6372/paper-trading/internal/trading"
	"github.com/leonid6372/paper-trading/migrations"
	"github.com/leonid6372/paper-trading/pkg/goosemigrate"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

func setConfigFlag(f *flag.FlagSet, configPath *string) {
	f.StringVar(configPath, "config", "", "YAML config path; environment only when empty")
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := log.Init(cfg.Log.Level, cfg.Log.Encoding); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newMigrator(cfg *config.Config) *goosemigrate.Migrator {
	return goosemigrate.NewMigrator(cfg.GetPostgresURL(), migrations.FS, postgres.SchemaName)
}

func newQuoteClient(cfg *config.Config) (*yahoo.Client, error) {
	return yahoo.NewClient(yahoo.ClientConfig{
		BaseURL:         cfg.Quotes.BaseURL,
		UserAgent:       cfg.Quotes.UserAgent,
		Timeout:         cfg.Quotes.Timeout,
		RateLimitPerMin: cfg.Quotes.RateLimitPerMin,
	})
}

// newService wires the configured storage and the quote client. The returned
// close function releases storage resources.
func newService(ctx context.Context, cfg *config.Config) (*trading.Service, func(), error) {
	quotes, err := newQuoteClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init quote client: %w", err)
	}

	var (
		deps    trading.Dependencies
		closeFn = func() {}
	)

	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage, state is lost on exit")

		store := memory.NewStore(nil)
		deps = trading.Dependencies{
			Transactor: store.Transactor(),
			Portfolio:  store.PortfolioRepository(),
			Trades:     store.TradesRepository(),
		}

	default:
		log.Info("init postgres...")
		pool, err := postgres.OpenPool(ctx, cfg.GetPostgresURL(), cfg.Postgres.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres init failed: %w", err)
		}

		log.Info("applying migrations...")
		if err := newMigrator(cfg).Up(); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrations up failed: %w", err)
		}

		deps = trading.Dependencies{
			Transactor: postgres.NewTransactor(pool),
			Portfolio:  postgres.NewPortfolioRepository(pool),
			Trades:     postgres.NewTradesRepository(pool),
		}
		closeFn = pool.Close
	}

	deps.Quotes = quotes
	logProvider(quotes)

	return trading.New(deps, cfg.Quotes.MaxConcurrency), closeFn, nil
}

func logProvider(p domain.QuoteProvider) {
	log.Info("quote provider ready", zap.String("provider", p.Name()))
}
