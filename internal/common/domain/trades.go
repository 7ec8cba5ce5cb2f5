package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type TradesRepository interface {
	// AppendTrade stores trade and returns it with the assigned ID and CreatedAt.
	AppendTrade(ctx context.Context, trade *Trade) (*Trade, error)
	// GetUserTrades returns the trades of username ordered by ascending ID.
	GetUserTrades(ctx context.Context, username string) ([]*Trade, error)
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls back every write made through them.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}

type Repositories struct {
	Portfolio PortfolioRepository
	Trades    TradesRepository
}

type Trade struct {
	ID int64 `json:"id"`

	Username string          `json:"username"`
	Ticker   string          `json:"ticker"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Action   string          `json:"action"`

	CreatedAt time.Time `json:"created_at"`
}

// Timestamp returns CreatedAt in UTC formatted with TimestampLayout.
func (t *Trade) Timestamp() string {
	return t.CreatedAt.UTC().Format(TimestampLayout)
}

type TradeRequest struct {
	Username string
	Ticker   string
	Quantity int64
	Action   string
}

type TradeResult struct {
	Message   string
	Trade     *Trade
	Portfolio Portfolio
	History   []*Trade
}
