package memory

import (
	"context"
	"fmt"

	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
)

type portfolioRepository struct {
	store *Store
	inTx  bool
}

func (pr *portfolioRepository) LockUser(ctx context.Context, username string) error {
	return ctx.Err()
}

func (pr *portfolioRepository) GetHolding(ctx context.Context, username, ticker string) (int64, error) {
	defer pr.store.lock(pr.inTx)()

	return pr.store.holdings[holdingKey{username: username, ticker: ticker}], nil
}

func (pr *portfolioRepository) AdjustHolding(ctx context.Context, username, ticker string, delta int64) (int64, error) {
	defer pr.store.lock(pr.inTx)()

	key := holdingKey{username: username, ticker: ticker}
	quantity := pr.store.holdings[key] + delta

	switch {
	case quantity < 0:
		return 0, fmt.Errorf("%w: %s %s by %d", tradeerrs.ErrNegativeHolding, username, ticker, delta)
	case quantity == 0:
		delete(pr.store.holdings, key)
	default:
		pr.store.holdings[key] = quantity
	}

	return quantity, nil
}

func (pr *portfolioRepository) GetUserPortfolio(ctx context.Context, username string) (domain.Portfolio, error) {
	defer pr.store.lock(pr.inTx)()

	portfolio := domain.Portfolio{}
	for key, quantity := range pr.store.holdings {
		if key.username == username {
			portfolio[key.ticker] = quantity
		}
	}

	return portfolio, nil
}
