// Package memory keeps portfolio holdings and trades in process memory.
// It backs the "memory" storage mode and the service tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/leonid6372/paper-trading/internal/common/domain"
)

type holdingKey struct {
	username string
	ticker   string
}

type Store struct {
	mu sync.Mutex

	now func() time.Time

	holdings map[holdingKey]int64
	trades   []*domain.Trade
	lastID   int64
}

// NewStore returns an empty store. now defaults to time.Now.
func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}

	return &Store{
		now:      now,
		holdings: map[holdingKey]int64{},
	}
}

func (s *Store) PortfolioRepository() domain.PortfolioRepository {
	return &portfolioRepository{store: s}
}

func (s *Store) TradesRepository() domain.TradesRepository {
	return &tradesRepository{store: s}
}

func (s *Store) Transactor() domain.Transactor {
	return &transactor{store: s}
}

// lock acquires the store mutex unless the caller already runs inside a
// transaction, which holds it for its whole duration.
func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}

	s.mu.Lock()
	return s.mu.Unlock
}

type transactor struct {
	store *Store
}

// WithinTransaction holds the store mutex while fn runs, so transactions are
// fully serialised. State is restored when fn fails.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s := t.store

	s.mu.Lock()
	defer s.mu.Unlock()

	holdings := maps.Clone(s.holdings)
	tradesLen := len(s.trades)
	lastID := s.lastID

	repos := domain.Repositories{
		Portfolio: &portfolioRepository{store: s, inTx: true},
		Trades:    &tradesRepository{store: s, inTx: true},
	}

	if err := fn(ctx, repos); err != nil {
		s.holdings = holdings
		s.trades = s.trades[:tradesLen]
		s.lastID = lastID

		return err
	}

	return nil
}

func (t *transactor) Ping(ctx context.Context) error {
	return ctx.Err()
}
