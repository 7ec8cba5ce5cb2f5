package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"
	"github.com/leonid6372/paper-trading/internal/api"
	"github.com/leonid6372/paper-trading/internal/common/config"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

type serveCmd struct {
	configPath string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "Run the paper trading HTTP API." }
func (*serveCmd) Usage() string {
	return `serve [-config path]:
  Apply pending migrations and serve the HTTP API until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	setConfigFlag(f, &c.configPath)
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer func() {
		if err := log.Sync(); err != nil {
			log.Error("log sync failed", zap.Error(err))
		}
	}()

	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("service starting...", zap.String("env", cfg.Env), zap.String("storage", cfg.Storage))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	service, closeStorage, err := newService(ctx, cfg)
	if err != nil {
		log.Error("service init failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer closeStorage()

	server := api.New(&cfg.HTTP, service)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	log.Info("service starting complete")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case err := <-serveErr:
		log.Error("http server stopped", zap.Error(err))
		return subcommands.ExitFailure
	}

	log.Info("service shutting down...")

	if err := server.Stop(context.Background()); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}

	log.Info("service shut down complete")

	return subcommands.ExitSuccess
}
