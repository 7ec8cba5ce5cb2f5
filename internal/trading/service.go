// Package trading executes simulated trades against the portfolio and the
// trade ledger, pricing them with the latest market quote.
package trading

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
	"github.com/leonid6372/paper-trading/pkg/errs"
	"github.com/leonid6372/paper-trading/pkg/format"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrency = 4

type Service struct {
	quotes     domain.QuoteProvider
	transactor domain.Transactor
	portfolio  domain.PortfolioRepository
	trades     domain.TradesRepository

	maxConcurrency int
}

type Dependencies struct {
	Quotes     domain.QuoteProvider
	Transactor domain.Transactor
	Portfolio  domain.PortfolioRepository
	Trades     domain.TradesRepository
}

// New returns a Service. maxConcurrency bounds parallel provider calls of
// Quotes; values below 1 use the default.
func New(deps Dependencies, maxConcurrency int) *Service {
	if maxConcurrency < 1 {
		maxConcurrency = defaultMaxConcurrency
	}

	return &Service{
		quotes:         deps.Quotes,
		transactor:     deps.Transactor,
		portfolio:      deps.Portfolio,
		trades:         deps.Trades,
		maxConcurrency: maxConcurrency,
	}
}

// Execute validates and applies a trade. Rejections wrap one of the tradeerrs
// sentinels and leave the portfolio and the ledger untouched. On success the
// result reflects the state after the trade.
func (s *Service) Execute(ctx context.Context, req domain.TradeRequest) (*domain.TradeResult, error) {
	if req.Action != domain.ActionBuy && req.Action != domain.ActionSell {
		return nil, fmt.Errorf("%w: got %q", tradeerrs.ErrInvalidAction, req.Action)
	}

	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d", tradeerrs.ErrInvalidQuantity, req.Quantity)
	}

	if strings.TrimSpace(req.Username) == "" {
		return nil, tradeerrs.ErrInvalidUsername
	}

	quote, err := s.Quote(ctx, req.Ticker)
	if err != nil {
		return nil, err
	}

	delta := req.Quantity
	if req.Action == domain.ActionSell {
		delta = -req.Quantity
	}

	var trade *domain.Trade
	err = s.transactor.WithinTransaction(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Portfolio.LockUser(ctx, req.Username); err != nil {
			return err
		}

		held, err := repos.Portfolio.GetHolding(ctx, req.Username, quote.Ticker)
		if err != nil {
			return err
		}

		switch req.Action {
		case domain.ActionBuy:
			if held > math.MaxInt64-req.Quantity {
				return fmt.Errorf("%w: holding %d %s cannot grow by %d",
					tradeerrs.ErrInvalidQuantity, held, quote.Ticker, req.Quantity)
			}
		case domain.ActionSell:
			if held < req.Quantity {
				return fmt.Errorf("%w: holding %d %s, requested %d",
					tradeerrs.ErrInsufficientShares, held, quote.Ticker, req.Quantity)
			}
		}

		if _, err := repos.Portfolio.AdjustHolding(ctx, req.Username, quote.Ticker, delta); err != nil {
			return err
		}

		trade, err = repos.Trades.AppendTrade(ctx, &domain.Trade{
			Username: req.Username,
			Ticker:   quote.Ticker,
			Quantity: req.Quantity,
			Price:    quote.Last,
			Action:   req.Action,
		})

		return err
	})
	if err != nil {
		if tradeerrs.IsRejection(err) {
			log.Info("trade rejected",
				zap.String("username", req.Username),
				zap.String("ticker", quote.Ticker),
				zap.Error(err),
			)

			return nil, err
		}

		return nil, errs.NewStack(fmt.Errorf("failed to execute trade: %w", err))
	}

	log.Info("trade executed",
		zap.Int64("trade_id", trade.ID),
		zap.String("username", trade.Username),
		zap.String("ticker", trade.Ticker),
		zap.String("action", trade.Action),
		zap.Int64("quantity", trade.Quantity),
		zap.String("price", trade.Price.String()),
	)

	portfolio, err := s.Portfolio(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	history, err := s.History(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	return &domain.TradeResult{
		Message:   confirmation(trade),
		Trade:     trade,
		Portfolio: portfolio,
		History:   history,
	}, nil
}

func confirmation(trade *domain.Trade) string {
	verb := "Bought"
	if trade.Action == domain.ActionSell {
		verb = "Sold"
	}

	noun := "shares"
	if trade.Quantity == 1 {
		noun = "share"
	}

	return fmt.Sprintf("%s %s %s of %s at %s",
		verb, format.Quantity(trade.Quantity), noun, trade.Ticker, format.Money(trade.Price))
}

// Quote returns the latest quote of ticker. An unknown ticker fails with
// ErrUnknownTicker, a provider failure with ErrQuoteUnavailable.
func (s *Service) Quote(ctx context.Context, ticker string) (*domain.Quote, error) {
	quote, err := s.quotes.GetLatestQuote(ctx, ticker)
	if err == nil {
		return quote, nil
	}

	var providerErr *tradeerrs.ProviderError
	switch {
	case errors.Is(err, tradeerrs.ErrQuoteNotFound):
		return nil, fmt.Errorf("%w: %q", tradeerrs.ErrUnknownTicker, strings.ToUpper(strings.TrimSpace(ticker)))
	case errors.As(err, &providerErr):
		log.Warn("quote provider failed",
			zap.String("provider", providerErr.Provider),
			zap.String("ticker", ticker),
			zap.Error(providerErr.Err),
		)
		return nil, fmt.Errorf("%w: %w", tradeerrs.ErrQuoteUnavailable, providerErr)
	default:
		return nil, errs.NewStack(fmt.Errorf("failed to get quote of %q: %w", ticker, err))
	}
}

// Quotes looks up every distinct raw ticker, in parallel, and keys the
// outcomes by the raw string as given.
func (s *Service) Quotes(ctx context.Context, tickers []string) map[string]domain.QuoteResult {
	results := make(map[string]domain.QuoteResult, len(tickers))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.maxConcurrency)

	seen := make(map[string]struct{}, len(tickers))
	for _, raw := range tickers {
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}

		raw := raw
		g.Go(func() error {
			quote, err := s.Quote(ctx, raw)

			mu.Lock()
			results[raw] = domain.QuoteResult{Quote: quote, Err: err}
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	return results
}

func (s *Service) Portfolio(ctx context.Context, username string) (domain.Portfolio, error) {
	portfolio, err := s.portfolio.GetUserPortfolio(ctx, username)
	if err != nil {
		return nil, errs.NewStack(fmt.Errorf("failed to get portfolio: %w", err))
	}

	return portfolio, nil
}

func (s *Service) History(ctx context.Context, username string) ([]*domain.Trade, error) {
	trades, err := s.trades.GetUserTrades(ctx, username)
	if err != nil {
		return nil, errs.NewStack(fmt.Errorf("failed to get trade history: %w", err))
	}

	return trades, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.transactor.Ping(ctx)
}
