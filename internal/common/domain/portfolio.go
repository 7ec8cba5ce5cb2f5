package domain

import "context"

type PortfolioRepository interface {
	// LockUser serialises trades of username until the surrounding transaction ends.
	LockUser(ctx context.Context, username string) error
	GetHolding(ctx context.Context, username, ticker string) (int64, error)
	// AdjustHolding applies delta to the holding and returns the new quantity.
	// The row is removed when the quantity reaches zero. Sufficiency is not checked here.
	AdjustHolding(ctx context.Context, username, ticker string, delta int64) (int64, error)
	GetUserPortfolio(ctx context.Context, username string) (Portfolio, error)
}

// Portfolio maps ticker to the quantity held. Zero holdings are never present.
type Portfolio map[string]int64
