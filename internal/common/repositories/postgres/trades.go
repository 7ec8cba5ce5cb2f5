package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/leonid6372/paper-trading/pkg/errs"
)

type tradesRepository struct {
	psql querier
}

func NewTradesRepository(pool *pgxpool.Pool) domain.TradesRepository {
	return &tradesRepository{
		psql: pool,
	}
}

// AppendTrade ignores trade.ID and trade.CreatedAt: both are assigned by the database.
func (tr *tradesRepository) AppendTrade(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	query := `INSERT INTO paper_trading.trades(username, ticker, quantity, price, action)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	row := &Trade{
		Username: trade.Username,
		Ticker:   trade.Ticker,
		Quantity: trade.Quantity,
		Price:    trade.Price,
		Action:   trade.Action,
	}
	if err := tr.psql.QueryRow(ctx,
		query,
		row.Username,
		row.Ticker,
		row.Quantity,
		row.Price,
		row.Action,
	).Scan(&row.ID, &row.CreatedAt); err != nil {
		return nil, errs.NewStack(err)
	}

	return row.CreateDomain(), nil
}

func (tr *tradesRepository) GetUserTrades(ctx context.Context, username string) ([]*domain.Trade, error) {
	query := `SELECT
			id,
			username,
			ticker,
			quantity,
			price,
			action,
			created_at
		FROM paper_trading.trades
		WHERE username = $1
		ORDER BY id ASC`
	rows, err := tr.psql.Query(ctx, query, username)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	trades := []*domain.Trade{}
	for rows.Next() {
		trade := &Trade{}
		if err := rows.Scan(
			&trade.ID,
			&trade.Username,
			&trade.Ticker,
			&trade.Quantity,
			&trade.Price,
			&trade.Action,
			&trade.CreatedAt,
		); err != nil {
			return nil, errs.NewStack(err)
		}
		trades = append(trades, trade.CreateDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, errs.NewStack(err)
	}

	return trades, nil
}
