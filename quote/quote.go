// Package quote resolves ticker symbols to current prices.
//
// The ledger engine only depends on the Provider contract; the HTTP client
// and the static in-memory table are interchangeable implementations.
package quote

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol is returned when a provider cannot resolve a symbol.
// Timeouts and transport failures are reported as distinct errors by the
// HTTP provider; callers that treat a slow quote as "unknown" do that
// mapping themselves.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Quote is a point-in-time price for one symbol. It may already be stale
// by the time the caller sees it; the trade engine freezes it for the
// duration of a single trade.
type Quote struct {
	Symbol string
	Name   string
	Price  decimal.Decimal
}

// Provider looks up the current quote for a symbol. Implementations must
// be safe for concurrent use and should honor ctx cancellation.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}
