package trading

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/common/repositories/memory"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
	"github.com/leonid6372/paper-trading/pkg/log"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeProvider struct {
	prices map[string]string
	fail   map[string]error
	calls  atomic.Int64
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) GetLatestQuote(_ context.Context, ticker string) (*domain.Quote, error) {
	p.calls.Add(1)

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if err, ok := p.fail[ticker]; ok {
		return nil, err
	}

	price, ok := p.prices[ticker]
	if !ok {
		return nil, tradeerrs.ErrQuoteNotFound
	}

	last := decimal.RequireFromString(price)
	return &domain.Quote{Ticker: ticker, Last: last, Open: last, High: last, Low: last, Volume: 1000}, nil
}

func newTestService(t *testing.T) (*Service, *fakeProvider) {
	t.Helper()

	provider := &fakeProvider{
		prices: map[string]string{"AAPL": "150.00", "MSFT": "1234.5"},
		fail: map[string]error{
			"DOWN": &tradeerrs.ProviderError{Provider: "fake", Err: errors.New("status 503")},
		},
	}
	store := memory.NewStore(nil)

	return New(Dependencies{
		Quotes:     provider,
		Transactor: store.Transactor(),
		Portfolio:  store.PortfolioRepository(),
		Trades:     store.TradesRepository(),
	}, 2), provider
}

func TestService_BuyThenSell(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	bought, err := svc.Execute(ctx, domain.TradeRequest{Username: "alice", Ticker: "aapl", Quantity: 10, Action: domain.ActionBuy})
	if err != nil {
		t.Fatalf("Execute(buy) error = %v", err)
	}
	if bought.Message != "Bought 10 shares of AAPL at $150.00" {
		t.Errorf("Message = %q", bought.Message)
	}
	if bought.Portfolio["AAPL"] != 10 {
		t.Errorf("Portfolio = %v, want AAPL:10", bought.Portfolio)
	}
	if len(bought.History) != 1 {
		t.Fatalf("History has %d records, want 1", len(bought.History))
	}

	sold, err := svc.Execute(ctx, domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 10, Action: domain.ActionSell})
	if err != nil {
		t.Fatalf("Execute(sell) error = %v", err)
	}
	if sold.Message != "Sold 10 shares of AAPL at $150.00" {
		t.Errorf("Message = %q", sold.Message)
	}
	if len(sold.Portfolio) != 0 {
		t.Errorf("Portfolio = %v, want empty", sold.Portfolio)
	}
	if len(sold.History) != 2 {
		t.Fatalf("History has %d records, want 2", len(sold.History))
	}

	first, second := sold.History[0], sold.History[1]
	if first.Action != domain.ActionBuy || second.Action != domain.ActionSell {
		t.Errorf("History actions = %s, %s; want buy, sell", first.Action, second.Action)
	}
	if !second.Price.Equal(decimal.NewFromInt(150)) || second.Quantity != 10 || second.Ticker != "AAPL" {
		t.Errorf("sell record = %+v", second)
	}
}

func TestService_Message(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	res, err := svc.Execute(ctx, domain.TradeRequest{Username: "bob", Ticker: "MSFT", Quantity: 1, Action: domain.ActionBuy})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Message != "Bought 1 share of MSFT at $1,234.50" {
		t.Errorf("Message = %q", res.Message)
	}
}

func TestService_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.TradeRequest
		want error
	}{
		{
			name: "blank username",
			req:  domain.TradeRequest{Username: "  ", Ticker: "AAPL", Quantity: 1, Action: domain.ActionBuy},
			want: tradeerrs.ErrInvalidUsername,
		},
		{
			name: "unknown action",
			req:  domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 1, Action: "hold"},
			want: tradeerrs.ErrInvalidAction,
		},
		{
			name: "action is case sensitive",
			req:  domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 1, Action: "BUY"},
			want: tradeerrs.ErrInvalidAction,
		},
		{
			name: "zero quantity",
			req:  domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 0, Action: domain.ActionBuy},
			want: tradeerrs.ErrInvalidQuantity,
		},
		{
			name: "negative quantity",
			req:  domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: -5, Action: domain.ActionSell},
			want: tradeerrs.ErrInvalidQuantity,
		},
		{
			name: "unknown ticker",
			req:  domain.TradeRequest{Username: "alice", Ticker: "BAD", Quantity: 1, Action: domain.ActionBuy},
			want: tradeerrs.ErrUnknownTicker,
		},
		{
			name: "provider down",
			req:  domain.TradeRequest{Username: "alice", Ticker: "DOWN", Quantity: 1, Action: domain.ActionBuy},
			want: tradeerrs.ErrQuoteUnavailable,
		},
		{
			name: "holding would overflow",
			req:  domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: math.MaxInt64, Action: domain.ActionBuy},
			want: tradeerrs.ErrInvalidQuantity,
		},
		{
			name: "blank username with bad action",
			req:  domain.TradeRequest{Username: "", Ticker: "AAPL", Quantity: 1, Action: "hold"},
			want: tradeerrs.ErrInvalidAction,
		},
		{
			name: "blank username with zero quantity",
			req:  domain.TradeRequest{Username: "", Ticker: "AAPL", Quantity: 0, Action: domain.ActionBuy},
			want: tradeerrs.ErrInvalidQuantity,
		},
		{
			name: "oversell",
			req:  domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 11, Action: domain.ActionSell},
			want: tradeerrs.ErrInsufficientShares,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			if _, err := svc.Execute(ctx, domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 10, Action: domain.ActionBuy}); err != nil {
				t.Fatalf("seed buy error = %v", err)
			}

			_, err := svc.Execute(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Execute() error = %v, want %v", err, tt.want)
			}
			if !tradeerrs.IsRejection(err) {
				t.Errorf("IsRejection(%v) = false", err)
			}

			portfolio, _ := svc.Portfolio(ctx, "alice")
			history, _ := svc.History(ctx, "alice")
			if portfolio["AAPL"] != 10 || len(portfolio) != 1 || len(history) != 1 {
				t.Errorf("state changed after rejection: portfolio %v, %d records", portfolio, len(history))
			}
		})
	}
}

func TestService_ValidationSkipsQuote(t *testing.T) {
	svc, provider := newTestService(t)

	_, err := svc.Execute(context.Background(), domain.TradeRequest{Username: "alice", Ticker: "AAPL", Quantity: 0, Action: domain.ActionBuy})
	if !errors.Is(err, tradeerrs.ErrInvalidQuantity) {
		t.Fatalf("Execute() error = %v", err)
	}
	if n := provider.calls.Load(); n != 0 {
		t.Errorf("provider called %d times, want 0", n)
	}
}

func TestService_ProviderDiagnosticKept(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Quote(context.Background(), "DOWN")

	var providerErr *tradeerrs.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Quote() error = %v, want a ProviderError in the chain", err)
	}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("Quote() error = %q, want the provider diagnostic", err)
	}
}

func TestService_BuyUpToMaxHolding(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	for _, qty := range []int64{1, math.MaxInt64 - 1} {
		if _, err := svc.Execute(ctx, domain.TradeRequest{Username: "erin", Ticker: "AAPL", Quantity: qty, Action: domain.ActionBuy}); err != nil {
			t.Fatalf("Execute(buy %d) error = %v", qty, err)
		}
	}

	portfolio, _ := svc.Portfolio(ctx, "erin")
	if portfolio["AAPL"] != math.MaxInt64 {
		t.Errorf("holding = %d, want %d", portfolio["AAPL"], int64(math.MaxInt64))
	}
}

func TestService_ProviderFailureLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(log.Replace(zap.New(core)))

	svc, _ := newTestService(t)
	if _, err := svc.Quote(context.Background(), "DOWN"); !errors.Is(err, tradeerrs.ErrQuoteUnavailable) {
		t.Fatalf("Quote() error = %v", err)
	}

	if n := logs.FilterLevelExact(zapcore.ErrorLevel).Len(); n != 0 {
		t.Errorf("error entries = %d, want 0", n)
	}

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	if len(warns) != 1 {
		t.Fatalf("warn entries = %d, want 1", len(warns))
	}
	if got := warns[0].ContextMap()["provider"]; got != "fake" {
		t.Errorf("provider field = %v, want fake", got)
	}
}

func TestService_HoldingMatchesLedger(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			action := domain.ActionBuy
			if i%3 == 0 {
				action = domain.ActionSell
			}
			_, _ = svc.Execute(ctx, domain.TradeRequest{Username: "carol", Ticker: "AAPL", Quantity: int64(i%4 + 1), Action: action})
		}(i)
	}
	wg.Wait()

	history, err := svc.History(ctx, "carol")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	var net int64
	for _, trade := range history {
		switch trade.Action {
		case domain.ActionBuy:
			net += trade.Quantity
		case domain.ActionSell:
			net -= trade.Quantity
		}
		if net < 0 {
			t.Fatalf("ledger goes negative at trade %d", trade.ID)
		}
	}

	portfolio, err := svc.Portfolio(ctx, "carol")
	if err != nil {
		t.Fatalf("Portfolio() error = %v", err)
	}
	if portfolio["AAPL"] != net {
		t.Errorf("holding = %d, ledger net = %d", portfolio["AAPL"], net)
	}
}

func TestService_Quotes(t *testing.T) {
	svc, provider := newTestService(t)

	results := svc.Quotes(context.Background(), []string{"AAPL", " msft", "BAD", "DOWN", "AAPL"})

	if len(results) != 4 {
		t.Fatalf("Quotes() returned %d results, want 4", len(results))
	}
	if n := provider.calls.Load(); n != 4 {
		t.Errorf("provider called %d times, want 4", n)
	}

	if r := results["AAPL"]; r.Err != nil || r.Quote.Ticker != "AAPL" {
		t.Errorf("AAPL = %+v", r)
	}
	if r := results[" msft"]; r.Err != nil || r.Quote.Ticker != "MSFT" {
		t.Errorf("\" msft\" = %+v", r)
	}
	if r := results["BAD"]; !errors.Is(r.Err, tradeerrs.ErrUnknownTicker) {
		t.Errorf("BAD error = %v, want ErrUnknownTicker", r.Err)
	}
	if r := results["DOWN"]; !errors.Is(r.Err, tradeerrs.ErrQuoteUnavailable) {
		t.Errorf("DOWN error = %v, want ErrQuoteUnavailable", r.Err)
	}
}
