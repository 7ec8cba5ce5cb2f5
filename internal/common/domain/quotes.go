package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type QuoteProvider interface {
	Name() string
	// GetLatestQuote returns the most recent daily bar of ticker.
	// It fails with tradeerrs.ErrQuoteNotFound or a *tradeerrs.ProviderError.
	GetLatestQuote(ctx context.Context, ticker string) (*Quote, error)
}

type Quote struct {
	Ticker string          `json:"ticker"`
	Last   decimal.Decimal `json:"last"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Volume int64           `json:"volume"`
}

// QuoteResult is the outcome of one lookup in a batch: either Quote or Err is set.
type QuoteResult struct {
	Quote *Quote
	Err   error
}
