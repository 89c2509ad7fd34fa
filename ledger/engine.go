package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/finvault/brokerage/quote"
)

// Engine orchestrates trades: it validates inputs, fetches a quote, checks
// the ledger invariants against current state, and atomically commits the
// transaction plus the cash update.
//
// The quote is fetched once per trade, before the per-user lock is taken,
// and that price is frozen through validation and commit. Re-querying
// between check and commit would open a time-of-check/time-of-use gap.
type Engine struct {
	store  *Store
	quotes quote.Provider
	locks  *userLocks
	log    *zap.Logger

	quoteTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithQuoteTimeout bounds each quote lookup. A lookup that exceeds the
// timeout rejects the trade as an unknown symbol; no side effects occur.
func WithQuoteTimeout(d time.Duration) Option {
	return func(e *Engine) { e.quoteTimeout = d }
}

// NewEngine wires the trade engine to its store and quote provider.
func NewEngine(store *Store, quotes quote.Provider, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		quotes: quotes,
		locks:  newUserLocks(),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Buy purchases qty shares of symbol at the current quoted price and
// returns the committed transaction id. Rejections (ErrInvalidQuantity,
// ErrUnknownSymbol, ErrInsufficientFunds) leave the ledger untouched.
func (e *Engine) Buy(ctx context.Context, userID, symbol string, qty int64) (string, error) {
	if qty <= 0 {
		return "", ErrInvalidQuantity
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return "", err
	}
	cost := q.Price.Mul(decimal.NewFromInt(qty))

	mu := e.locks.forUser(userID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := e.store.Balance(ctx, userID)
	if err != nil {
		return "", err
	}
	if cost.GreaterThan(balance) {
		e.log.Debug("buy rejected",
			zap.String("user_id", userID),
			zap.String("symbol", q.Symbol),
			zap.String("cost", cost.String()),
			zap.String("balance", balance.String()))
		return "", ErrInsufficientFunds
	}

	txnID, err := e.store.Commit(ctx, Transaction{
		UserID:   userID,
		Symbol:   q.Symbol,
		Name:     q.Name,
		Price:    q.Price,
		Quantity: qty,
		Kind:     Buy,
	}, balance.Sub(cost))
	if err != nil {
		return "", err
	}

	e.log.Info("buy committed",
		zap.String("txn_id", txnID),
		zap.String("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("quantity", qty),
		zap.String("price", q.Price.String()))
	return txnID, nil
}

// Sell relinquishes qty shares of symbol at the current quoted price and
// returns the committed transaction id. Selling more shares than the log
// shows held is rejected with ErrInsufficientShares.
func (e *Engine) Sell(ctx context.Context, userID, symbol string, qty int64) (string, error) {
	if qty <= 0 {
		return "", ErrInvalidQuantity
	}

	q, err := e.lookup(ctx, symbol)
	if err != nil {
		return "", err
	}
	proceeds := q.Price.Mul(decimal.NewFromInt(qty))

	mu := e.locks.forUser(userID)
	mu.Lock()
	defer mu.Unlock()

	held, err := e.store.QuantityHeld(ctx, userID, q.Symbol)
	if err != nil {
		return "", err
	}
	if qty > held {
		e.log.Debug("sell rejected",
			zap.String("user_id", userID),
			zap.String("symbol", q.Symbol),
			zap.Int64("quantity", qty),
			zap.Int64("held", held))
		return "", ErrInsufficientShares
	}

	balance, err := e.store.Balance(ctx, userID)
	if err != nil {
		return "", err
	}

	txnID, err := e.store.Commit(ctx, Transaction{
		UserID:   userID,
		Symbol:   q.Symbol,
		Name:     q.Name,
		Price:    q.Price,
		Quantity: -qty,
		Kind:     Sell,
	}, balance.Add(proceeds))
	if err != nil {
		return "", err
	}

	e.log.Info("sell committed",
		zap.String("txn_id", txnID),
		zap.String("user_id", userID),
		zap.String("symbol", q.Symbol),
		zap.Int64("quantity", qty),
		zap.String("price", q.Price.String()))
	return txnID, nil
}

// AddCash deposits amount into the user's account. Rejects non-positive
// amounts with ErrInvalidAmount.
func (e *Engine) AddCash(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	// Deposits take the same lock as trades so a concurrent commit cannot
	// overwrite the credited balance.
	mu := e.locks.forUser(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.Credit(ctx, userID, amount); err != nil {
		return err
	}

	e.log.Info("cash deposited",
		zap.String("user_id", userID),
		zap.String("amount", amount.String()))
	return nil
}

// Portfolio returns the user's open holdings valued at current quotes,
// their cash balance, and the grand total. Quote lookups happen outside
// any lock; a holding whose symbol can no longer be quoted fails the whole
// call.
func (e *Engine) Portfolio(ctx context.Context, userID string) (Portfolio, error) {
	positions, err := e.store.Holdings(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}

	cash, err := e.store.Balance(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{
		Holdings:   make([]Holding, 0, len(positions)),
		Cash:       cash,
		GrandTotal: cash,
	}
	for _, pos := range positions {
		q, err := e.lookup(ctx, pos.Symbol)
		if err != nil {
			return Portfolio{}, err
		}

		value := q.Price.Mul(decimal.NewFromInt(pos.Quantity))
		p.Holdings = append(p.Holdings, Holding{
			Symbol:   pos.Symbol,
			Name:     pos.Name,
			Quantity: pos.Quantity,
			Price:    q.Price,
			Value:    value,
		})
		p.GrandTotal = p.GrandTotal.Add(value)
	}
	return p, nil
}

// History returns the user's full transaction log, oldest first. Pure
// projection: no validation, no side effects.
func (e *Engine) History(ctx context.Context, userID string) ([]Transaction, error) {
	return e.store.Transactions(ctx, userID, "")
}

// Quote resolves a symbol without trading.
func (e *Engine) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	return e.lookup(ctx, symbol)
}

// lookup fetches a quote with the configured timeout. Every failure mode
// (including a timed-out lookup) maps to ErrUnknownSymbol so callers see a
// single no-side-effect rejection; the underlying cause is logged.
func (e *Engine) lookup(ctx context.Context, symbol string) (quote.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return quote.Quote{}, ErrUnknownSymbol
	}

	if e.quoteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.quoteTimeout)
		defer cancel()
	}

	q, err := e.quotes.Lookup(ctx, symbol)
	if err != nil {
		e.log.Debug("quote lookup failed",
			zap.String("symbol", symbol),
			zap.Error(err))
		return quote.Quote{}, ErrUnknownSymbol
	}
	return q, nil
}
