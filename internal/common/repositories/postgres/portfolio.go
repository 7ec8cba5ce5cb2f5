package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
	"github.com/leonid6372/paper-trading/pkg/errs"
)

type portfolioRepository struct {
	psql querier
}

func NewPortfolioRepository(pool *pgxpool.Pool) domain.PortfolioRepository {
	return &portfolioRepository{
		psql: pool,
	}
}

// LockUser takes a transaction-scoped advisory lock. Outside a transaction the
// lock is released as soon as the statement completes.
func (pr *portfolioRepository) LockUser(ctx context.Context, username string) error {
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
	if _, err := pr.psql.Exec(ctx, query, "portfolio:"+username); err != nil {
		return errs.NewStack(err)
	}

	return nil
}

func (pr *portfolioRepository) GetHolding(ctx context.Context, username, ticker string) (int64, error) {
	query := `SELECT quantity FROM paper_trading.portfolio WHERE username = $1 AND ticker = $2`
	var quantity int64
	if err := pr.psql.QueryRow(ctx, query, username, ticker).Scan(&quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}

		return 0, errs.NewStack(err)
	}

	return quantity, nil
}

func (pr *portfolioRepository) AdjustHolding(ctx context.Context, username, ticker string, delta int64) (int64, error) {
	switch {
	case delta > 0:
		return pr.increaseHolding(ctx, username, ticker, delta)
	case delta < 0:
		return pr.decreaseHolding(ctx, username, ticker, delta)
	default:
		return pr.GetHolding(ctx, username, ticker)
	}
}

func (pr *portfolioRepository) increaseHolding(ctx context.Context, username, ticker string, delta int64) (int64, error) {
	query := `INSERT INTO paper_trading.portfolio(username, ticker, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (username, ticker) DO UPDATE
			SET quantity = portfolio.quantity + EXCLUDED.quantity,
				updated_at = NOW()
		RETURNING quantity`
	var quantity int64
	if err := pr.psql.QueryRow(ctx, query, username, ticker, delta).Scan(&quantity); err != nil {
		return 0, errs.NewStack(err)
	}

	return quantity, nil
}

// decreaseHolding updates the row, or deletes it when the delta brings it to
// exactly zero. No row is returned when the holding would go negative.
func (pr *portfolioRepository) decreaseHolding(ctx context.Context, username, ticker string, delta int64) (int64, error) {
	query := `WITH updated AS (
			UPDATE paper_trading.portfolio
			SET quantity = quantity + $3,
				updated_at = NOW()
			WHERE username = $1 AND ticker = $2 AND quantity + $3 > 0
			RETURNING quantity
		), deleted AS (
			DELETE FROM paper_trading.portfolio
			WHERE username = $1 AND ticker = $2 AND quantity + $3 = 0
			RETURNING 0::BIGINT AS quantity
		)
		SELECT quantity FROM updated
		UNION ALL
		SELECT quantity FROM deleted`
	var quantity int64
	if err := pr.psql.QueryRow(ctx, query, username, ticker, delta).Scan(&quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.NewStack(fmt.Errorf("%w: %s %s by %d", tradeerrs.ErrNegativeHolding, username, ticker, delta))
		}

		return 0, errs.NewStack(err)
	}

	return quantity, nil
}

func (pr *portfolioRepository) GetUserPortfolio(ctx context.Context, username string) (domain.Portfolio, error) {
	query := `SELECT
			ticker,
			quantity
		FROM paper_trading.portfolio
		WHERE username = $1 AND quantity > 0
		ORDER BY ticker ASC`
	rows, err := pr.psql.Query(ctx, query, username)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	portfolio := domain.Portfolio{}
	for rows.Next() {
		holding := &Holding{}
		if err := rows.Scan(
			&holding.Ticker,
			&holding.Quantity,
		); err != nil {
			return nil, errs.NewStack(err)
		}

		portfolio[holding.Ticker] = holding.Quantity
	}

	if err := rows.Err(); err != nil {
		return nil, errs.NewStack(err)
	}

	return portfolio, nil
}
