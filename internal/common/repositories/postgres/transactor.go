package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/pkg/errs"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

type transactor struct {
	psql *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) domain.Transactor {
	return &transactor{
		psql: pool,
	}
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	tx, err := t.psql.Begin(ctx)
	if err != nil {
		return errs.NewStack(err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error("failed to rollback transaction", zap.Error(err))
		}
	}()

	repos := domain.Repositories{
		Portfolio: &portfolioRepository{psql: tx},
		Trades:    &tradesRepository{psql: tx},
	}

	if err := fn(ctx, repos); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

func (t *transactor) Ping(ctx context.Context) error {
	if err := t.psql.Ping(ctx); err != nil {
		return errs.NewStack(err)
	}

	return nil
}
