package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
	"github.com/shopspring/decimal"
)

func TestPortfolioRepository_AdjustHolding(t *testing.T) {
	ctx := context.Background()
	repo := NewStore(nil).PortfolioRepository()

	steps := []struct {
		delta int64
		want  int64
	}{
		{delta: 10, want: 10},
		{delta: 5, want: 15},
		{delta: -3, want: 12},
		{delta: 0, want: 12},
		{delta: -12, want: 0},
	}

	for _, step := range steps {
		got, err := repo.AdjustHolding(ctx, "alice", "AAPL", step.delta)
		if err != nil {
			t.Fatalf("AdjustHolding(%d) error = %v", step.delta, err)
		}
		if got != step.want {
			t.Fatalf("AdjustHolding(%d) = %d, want %d", step.delta, got, step.want)
		}
	}

	portfolio, err := repo.GetUserPortfolio(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserPortfolio() error = %v", err)
	}
	if len(portfolio) != 0 {
		t.Errorf("GetUserPortfolio() = %v, want empty after reaching zero", portfolio)
	}
}

func TestPortfolioRepository_AdjustHoldingBelowZero(t *testing.T) {
	ctx := context.Background()
	repo := NewStore(nil).PortfolioRepository()

	if _, err := repo.AdjustHolding(ctx, "bob", "MSFT", -1); !errors.Is(err, tradeerrs.ErrNegativeHolding) {
		t.Fatalf("AdjustHolding(-1) on empty holding error = %v, want ErrNegativeHolding", err)
	}

	got, err := repo.GetHolding(ctx, "bob", "MSFT")
	if err != nil {
		t.Fatalf("GetHolding() error = %v", err)
	}
	if got != 0 {
		t.Errorf("GetHolding() = %d, want 0", got)
	}
}

func TestPortfolioRepository_GetUserPortfolioFiltersUser(t *testing.T) {
	ctx := context.Background()
	repo := NewStore(nil).PortfolioRepository()

	for _, h := range []struct {
		user, ticker string
		qty          int64
	}{
		{"alice", "AAPL", 3},
		{"alice", "MSFT", 7},
		{"bob", "AAPL", 1},
	} {
		if _, err := repo.AdjustHolding(ctx, h.user, h.ticker, h.qty); err != nil {
			t.Fatalf("AdjustHolding() error = %v", err)
		}
	}

	portfolio, err := repo.GetUserPortfolio(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserPortfolio() error = %v", err)
	}
	if len(portfolio) != 2 || portfolio["AAPL"] != 3 || portfolio["MSFT"] != 7 {
		t.Errorf("GetUserPortfolio() = %v, want map[AAPL:3 MSFT:7]", portfolio)
	}
}

func TestTradesRepository_AppendTrade(t *testing.T) {
	ctx := context.Background()

	clock := []time.Time{
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC), // clock went backwards
		time.Date(2024, 5, 1, 15, 0, 0, 0, time.FixedZone("CEST", 2*60*60)),
	}
	i := 0
	store := NewStore(func() time.Time {
		now := clock[i]
		i++
		return now
	})
	repo := store.TradesRepository()

	for n := 0; n < len(clock); n++ {
		if _, err := repo.AppendTrade(ctx, &domain.Trade{
			ID:        99,
			Username:  "alice",
			Ticker:    "AAPL",
			Quantity:  1,
			Price:     decimal.NewFromInt(150),
			Action:    domain.ActionBuy,
			CreatedAt: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("AppendTrade() error = %v", err)
		}
	}

	trades, err := repo.GetUserTrades(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserTrades() error = %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("GetUserTrades() returned %d trades, want 3", len(trades))
	}

	for n, trade := range trades {
		if trade.ID != int64(n+1) {
			t.Errorf("trade[%d].ID = %d, want %d", n, trade.ID, n+1)
		}
		if n > 0 && trade.CreatedAt.Before(trades[n-1].CreatedAt) {
			t.Errorf("trade[%d] timestamp %v is before previous %v", n, trade.CreatedAt, trades[n-1].CreatedAt)
		}
		if trade.CreatedAt.Location() != time.UTC {
			t.Errorf("trade[%d] location = %v, want UTC", n, trade.CreatedAt.Location())
		}
	}

	if got := trades[1].Timestamp(); got != "2024-05-01 12:00:00" {
		t.Errorf("trade[1].Timestamp() = %q, want %q", got, "2024-05-01 12:00:00")
	}
	if got := trades[2].Timestamp(); got != "2024-05-01 13:00:00" {
		t.Errorf("trade[2].Timestamp() = %q, want %q", got, "2024-05-01 13:00:00")
	}

	trades[0].Quantity = 1000
	again, _ := repo.GetUserTrades(ctx, "alice")
	if again[0].Quantity != 1 {
		t.Error("GetUserTrades() exposes stored records to mutation")
	}
}

func TestTransactor_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	errBoom := errors.New("boom")

	if _, err := store.PortfolioRepository().AdjustHolding(ctx, "alice", "AAPL", 5); err != nil {
		t.Fatalf("AdjustHolding() error = %v", err)
	}

	err := store.Transactor().WithinTransaction(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if _, err := repos.Portfolio.AdjustHolding(ctx, "alice", "AAPL", -5); err != nil {
			return err
		}
		if _, err := repos.Trades.AppendTrade(ctx, &domain.Trade{Username: "alice", Ticker: "AAPL", Quantity: 5, Action: domain.ActionSell}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithinTransaction() error = %v, want errBoom", err)
	}

	holding, _ := store.PortfolioRepository().GetHolding(ctx, "alice", "AAPL")
	trades, _ := store.TradesRepository().GetUserTrades(ctx, "alice")
	if holding != 5 || len(trades) != 0 {
		t.Errorf("after rollback holding = %d, trades = %d; want 5, 0", holding, len(trades))
	}

	trade, err := store.TradesRepository().AppendTrade(ctx, &domain.Trade{Username: "alice", Ticker: "AAPL", Quantity: 1, Action: domain.ActionBuy})
	if err != nil {
		t.Fatalf("AppendTrade() error = %v", err)
	}
	if trade.ID != 1 {
		t.Errorf("ID after rollback = %d, want 1", trade.ID)
	}
}

func TestTransactor_Serialises(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	txm := store.Transactor()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := txm.WithinTransaction(ctx, func(ctx context.Context, repos domain.Repositories) error {
				current, err := repos.Portfolio.GetHolding(ctx, "dave", "NVDA")
				if err != nil {
					return err
				}
				if current > 0 {
					if _, err := repos.Portfolio.AdjustHolding(ctx, "dave", "NVDA", -current); err != nil {
						return err
					}
				}
				_, err = repos.Portfolio.AdjustHolding(ctx, "dave", "NVDA", current+1)
				return err
			})
			if err != nil {
				t.Errorf("WithinTransaction() error = %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.PortfolioRepository().GetHolding(ctx, "dave", "NVDA")
	if got != workers {
		t.Errorf("GetHolding() = %d, want %d", got, workers)
	}
}
