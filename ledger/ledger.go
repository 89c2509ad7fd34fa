// Package ledger implements the brokerage account ledger: an append-only
// transaction log per user, cash balances, and the trade engine that
// validates and atomically commits buys and sells against them.
//
// Positions are never stored; they are derived on demand by summing the
// log, so they always reflect committed history.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags a transaction as a purchase or a sale.
type Kind string

const (
	Buy  Kind = "BUY"
	Sell Kind = "SELL"
)

// Transaction is one immutable entry in the log. Quantity is signed:
// positive for shares acquired, negative for shares relinquished. Price is
// the per-share quote captured at execution and is never adjusted.
type Transaction struct {
	ID        string
	UserID    string
	Symbol    string
	Name      string
	Price     decimal.Decimal
	Quantity  int64
	Kind      Kind
	CreatedAt time.Time
}

// User is an account holder. Cash is mutated only by the trade engine and
// explicit deposits; it never goes negative.
type User struct {
	ID        string
	Username  string
	Cash      decimal.Decimal
	CreatedAt time.Time
}

// Position is the aggregated share count for one user/symbol pair. Name is
// the company name recorded on the symbol's transactions.
type Position struct {
	Symbol   string
	Name     string
	Quantity int64
}

// Holding is a position joined with a live quote.
type Holding struct {
	Symbol   string
	Name     string
	Quantity int64
	Price    decimal.Decimal
	Value    decimal.Decimal
}

// Portfolio is the full account view: open holdings valued at current
// prices, the cash balance, and their sum.
type Portfolio struct {
	Holdings   []Holding
	Cash       decimal.Decimal
	GrandTotal decimal.Decimal
}
