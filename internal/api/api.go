// Package api exposes the trading service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonid6372/paper-trading/internal/common/config"
	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

type TradeService interface {
	Execute(ctx context.Context, req domain.TradeRequest) (*domain.TradeResult, error)
	Quote(ctx context.Context, ticker string) (*domain.Quote, error)
	Quotes(ctx context.Context, tickers []string) map[string]domain.QuoteResult
	Portfolio(ctx context.Context, username string) (domain.Portfolio, error)
	History(ctx context.Context, username string) ([]*domain.Trade, error)
	Ping(ctx context.Context) error
}

type API struct {
	Router *gin.Engine
	cfg    *config.HTTP
	server *http.Server

	service TradeService
}

func New(cfg *config.HTTP, service TradeService) *API {
	router := gin.New()
	router.RedirectTrailingSlash = false

	a := &API{
		Router:  router,
		cfg:     cfg,
		service: service,
	}

	a.setupMiddlewares()
	a.setupRoutes()

	a.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a
}

func (a *API) setupMiddlewares() {
	a.Router.Use(
		a.accessLogMiddleware,
		a.recoveryMiddleware,
		a.timeoutMiddleware,
	)
}

func (a *API) setupRoutes() {
	a.Router.GET("/", a.rootHandler)
	a.Router.GET("/health", a.healthHandler)

	a.Router.GET("/stock/:ticker", a.stockHandler)

	a.handleSlash(http.MethodGet, "/stocks", a.stocksHandler)
	a.handleSlash(http.MethodPost, "/trade", a.tradeHandler)

	a.Router.GET("/portfolio/:username", a.portfolioHandler)
	a.Router.GET("/transactions/:username", a.transactionsHandler)
}

// handleSlash registers path both with and without the trailing slash.
func (a *API) handleSlash(method, path string, handler gin.HandlerFunc) {
	a.Router.Handle(method, path, handler)
	a.Router.Handle(method, path+"/", handler)
}

// Start blocks serving HTTP until Stop is called.
func (a *API) Start() error {
	log.Info("http server listening", zap.String("addr", a.cfg.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve http: %w", err)
	}

	return nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout())
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	return nil
}

func (a *API) shutdownTimeout() time.Duration {
	if a.cfg.ShutdownTimeout > 0 {
		return a.cfg.ShutdownTimeout
	}

	return 10 * time.Second
}
