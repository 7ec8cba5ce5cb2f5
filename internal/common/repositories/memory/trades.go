package memory

import (
	"context"

	"github.com/leonid6372/paper-trading/internal/common/domain"
)

type tradesRepository struct {
	store *Store
	inTx  bool
}

// AppendTrade assigns the next ID and the current UTC time. Timestamps never
// go backwards even if the wall clock does.
func (tr *tradesRepository) AppendTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	defer tr.store.lock(tr.inTx)()

	s := tr.store

	createdAt := s.now().UTC()
	if n := len(s.trades); n > 0 && createdAt.Before(s.trades[n-1].CreatedAt) {
		createdAt = s.trades[n-1].CreatedAt
	}

	s.lastID++
	stored := &domain.Trade{
		ID:        s.lastID,
		Username:  trade.Username,
		Ticker:    trade.Ticker,
		Quantity:  trade.Quantity,
		Price:     trade.Price,
		Action:    trade.Action,
		CreatedAt: createdAt,
	}
	s.trades = append(s.trades, stored)

	res := *stored
	return &res, nil
}

func (tr *tradesRepository) GetUserTrades(ctx context.Context, username string) ([]*domain.Trade, error) {
	defer tr.store.lock(tr.inTx)()

	trades := []*domain.Trade{}
	for _, trade := range tr.store.trades {
		if trade.Username == username {
			t := *trade
			trades = append(trades, &t)
		}
	}

	return trades, nil
}
