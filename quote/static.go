package quote

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Static is an in-memory quote table for simulations and tests. Prices can
// be updated concurrently with lookups.
type Static struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewStatic builds a provider from a fixed set of quotes. Symbols are
// normalized to upper case.
func NewStatic(quotes ...Quote) *Static {
	s := &Static{quotes: make(map[string]Quote, len(quotes))}
	for _, q := range quotes {
		s.Set(q)
	}
	return s
}

// Set adds or replaces the quote for q.Symbol.
func (s *Static) Set(q Quote) {
	q.Symbol = strings.ToUpper(q.Symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[q.Symbol] = q
}

// SetPrice updates only the price of an already-listed symbol. Unlisted
// symbols are ignored.
func (s *Static) SetPrice(symbol string, price decimal.Decimal) {
	symbol = strings.ToUpper(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()
	if q, ok := s.quotes[symbol]; ok {
		q.Price = price
		s.quotes[symbol] = q
	}
}

// Lookup returns the stored quote or ErrUnknownSymbol.
func (s *Static) Lookup(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quotes[strings.ToUpper(symbol)]
	if !ok {
		return Quote{}, ErrUnknownSymbol
	}
	return q, nil
}
