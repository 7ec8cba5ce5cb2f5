package tradeerrs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidUsername    = errors.New("username is required")
	ErrInvalidAction      = errors.New("invalid action, use 'buy' or 'sell'")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrUnknownTicker      = errors.New("invalid ticker symbol or no data available")
	ErrQuoteUnavailable   = errors.New("quote is temporarily unavailable")
	ErrInsufficientShares = errors.New("not enough shares to sell")

	ErrQuoteNotFound = errors.New("no quote data for ticker")
)

// ProviderError is a failure of the market-data provider itself: transport,
// rate limiting or a malformed response.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRejection reports whether err is a user-correctable trade rejection.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidUsername,
		ErrInvalidAction,
		ErrInvalidQuantity,
		ErrUnknownTicker,
		ErrQuoteUnavailable,
		ErrInsufficientShares,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// ErrNegativeHolding is returned by stores asked to apply a delta that was not
// validated first. It is an internal fault, never a user rejection.
var ErrNegativeHolding = errors.New("holding cannot go below zero")
