package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/shopspring/decimal"
)

// SchemaName is the schema holding every table of the service.
const SchemaName = "paper_trading"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Trade struct {
	ID int64 `db:"id"`

	Username string          `db:"username"`
	Ticker   string          `db:"ticker"`
	Quantity int64           `db:"quantity"`
	Price    decimal.Decimal `db:"price"`
	Action   string          `db:"action"`

	CreatedAt time.Time `db:"created_at"`
}

func (t *Trade) CreateDomain() *domain.Trade {
	trade := &domain.Trade{
		ID:        t.ID,
		Username:  t.Username,
		Ticker:    t.Ticker,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Action:    t.Action,
		CreatedAt: t.CreatedAt.UTC(),
	}

	return trade
}

type Holding struct {
	Ticker   string `db:"ticker"`
	Quantity int64  `db:"quantity"`
}
