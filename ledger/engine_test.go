package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finvault/brokerage/quote"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *Store, User) {
	t.Helper()

	s, _ := newTestStore(t)
	u := newTestUser(t, s, "10000")

	quotes := quote.NewStatic(
		quote.Quote{Symbol: "AAPL", Name: "Apple Inc", Price: mustDec(t, "100")},
		quote.Quote{Symbol: "NFLX", Name: "Netflix Inc", Price: mustDec(t, "250.50")},
	)

	return NewEngine(s, quotes, opts...), s, u
}

func TestBuy(t *testing.T) {
	t.Parallel()

	e, s, u := newTestEngine(t)
	ctx := context.Background()

	txnID, err := e.Buy(ctx, u.ID, "aapl", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, txnID)

	balance, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDec(t, "9000")))

	held, err := s.QuantityHeld(ctx, u.ID, "AAPL")
	require.NoError(t, err)
	assert.EqualValues(t, 10, held)

	// Symbol is normalized before storage.
	txns, err := e.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "AAPL", txns[0].Symbol)
	assert.Equal(t, Buy, txns[0].Kind)
	assert.EqualValues(t, 10, txns[0].Quantity)
	assert.True(t, txns[0].Price.Equal(mustDec(t, "100")))
}

func TestBuyRejections(t *testing.T) {
	t.Parallel()

	e, s, u := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Buy(ctx, u.ID, "AAPL", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.Buy(ctx, u.ID, "AAPL", -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.Buy(ctx, u.ID, "ZZZZ", 1)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	// 101 shares at 100 exceeds the 10000 balance.
	_, err = e.Buy(ctx, u.ID, "AAPL", 101)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// An exactly-affordable buy is allowed.
	_, err = e.Buy(ctx, u.ID, "AAPL", 100)
	assert.NoError(t, err)

	// No rejected trade left a trace.
	txns, err := e.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	balance, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestSellRejections(t *testing.T) {
	t.Parallel()

	e, s, u := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Buy(ctx, u.ID, "AAPL", 10)
	require.NoError(t, err)

	_, err = e.Sell(ctx, u.ID, "AAPL", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.Sell(ctx, u.ID, "ZZZZ", 1)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	// Selling 15 of 10 held changes nothing.
	_, err = e.Sell(ctx, u.ID, "AAPL", 15)
	assert.ErrorIs(t, err, ErrInsufficientShares)

	balance, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDec(t, "9000")))

	held, err := s.QuantityHeld(ctx, u.ID, "AAPL")
	require.NoError(t, err)
	assert.EqualValues(t, 10, held)

	// Never-held symbol: same rejection.
	_, err = e.Sell(ctx, u.ID, "NFLX", 1)
	assert.ErrorIs(t, err, ErrInsufficientShares)
}

func TestBuySellRoundTrip(t *testing.T) {
	t.Parallel()

	e, s, u := newTestEngine(t)
	ctx := context.Background()

	before, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)

	_, err = e.Buy(ctx, u.ID, "NFLX", 7)
	require.NoError(t, err)
	_, err = e.Sell(ctx, u.ID, "NFLX", 7)
	require.NoError(t, err)

	// Same price both ways, so cash returns to its pre-buy value.
	after, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.Equal(before), "got %s want %s", after, before)

	held, err := s.QuantityHeld(ctx, u.ID, "NFLX")
	require.NoError(t, err)
	assert.EqualValues(t, 0, held)

	txns, err := e.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.Equal(t, Buy, txns[0].Kind)
	assert.Equal(t, Sell, txns[1].Kind)
	assert.EqualValues(t, 7, txns[0].Quantity)
	assert.EqualValues(t, -7, txns[1].Quantity)
}

func TestInsufficientFundsSmallBalance(t *testing.T) {
	t.Parallel()

	e, s, _ := newTestEngine(t)
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "broke", mustDec(t, "50"))
	require.NoError(t, err)

	_, err = e.Buy(ctx, u.ID, "AAPL", 1)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	txns, err := e.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestAddCash(t *testing.T) {
	t.Parallel()

	e, s, u := newTestEngine(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.AddCash(ctx, u.ID, mustDec(t, "0")), ErrInvalidAmount)
	assert.ErrorIs(t, e.AddCash(ctx, u.ID, mustDec(t, "-10")), ErrInvalidAmount)

	require.NoError(t, e.AddCash(ctx, u.ID, mustDec(t, "2500.75")))

	balance, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDec(t, "12500.75")))

	// Deposits are not trades and never appear in the log.
	txns, err := e.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestPortfolio(t *testing.T) {
	t.Parallel()

	e, _, u := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Buy(ctx, u.ID, "AAPL", 10)
	require.NoError(t, err)
	_, err = e.Buy(ctx, u.ID, "NFLX", 2)
	require.NoError(t, err)
	_, err = e.Sell(ctx, u.ID, "NFLX", 2)
	require.NoError(t, err)

	p, err := e.Portfolio(ctx, u.ID)
	require.NoError(t, err)

	// The closed NFLX position is filtered out of the holdings view.
	require.Len(t, p.Holdings, 1)
	h := p.Holdings[0]
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, "Apple Inc", h.Name)
	assert.EqualValues(t, 10, h.Quantity)
	assert.True(t, h.Price.Equal(mustDec(t, "100")))
	assert.True(t, h.Value.Equal(mustDec(t, "1000")))

	assert.True(t, p.Cash.Equal(mustDec(t, "9000")))
	assert.True(t, p.GrandTotal.Equal(mustDec(t, "10000")))

	// Idempotent with no intervening trades.
	again, err := e.Portfolio(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestQuote(t *testing.T) {
	t.Parallel()

	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	q, err := e.Quote(ctx, " nflx ")
	require.NoError(t, err)
	assert.Equal(t, "NFLX", q.Symbol)
	assert.True(t, q.Price.Equal(mustDec(t, "250.50")))

	_, err = e.Quote(ctx, "ZZZZ")
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	_, err = e.Quote(ctx, "")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

// slowProvider blocks until its context is done.
type slowProvider struct{}

func (slowProvider) Lookup(ctx context.Context, symbol string) (quote.Quote, error) {
	<-ctx.Done()
	return quote.Quote{}, ctx.Err()
}

func TestQuoteTimeoutRejectsTrade(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	u := newTestUser(t, s, "10000")
	e := NewEngine(s, slowProvider{}, WithQuoteTimeout(10*time.Millisecond))
	ctx := context.Background()

	_, err := e.Buy(ctx, u.ID, "AAPL", 1)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	txns, err := e.History(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestConcurrentSellsOfLastShares(t *testing.T) {
	t.Parallel()

	e, s, u := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Buy(ctx, u.ID, "AAPL", 5)
	require.NoError(t, err)

	// Two simultaneous sells of the user's last 5 shares: exactly one may
	// commit.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Sell(ctx, u.ID, "AAPL", 5)
		}(i)
	}
	wg.Wait()

	var committed int
	for _, err := range errs {
		if err == nil {
			committed++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientShares)
		}
	}
	assert.Equal(t, 1, committed)

	held, err := s.QuantityHeld(ctx, u.ID, "AAPL")
	require.NoError(t, err)
	assert.EqualValues(t, 0, held)
}

func TestConcurrentBuysCannotOverdraw(t *testing.T) {
	t.Parallel()

	e, s, _ := newTestEngine(t)
	ctx := context.Background()

	// 60 shares at 100 each is affordable once, not twice.
	u, err := s.CreateUser(ctx, "carol", mustDec(t, "10000"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.Buy(ctx, u.ID, "AAPL", 60)
		}(i)
	}
	wg.Wait()

	var committed int
	for _, err := range errs {
		if err == nil {
			committed++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientFunds)
		}
	}
	assert.Equal(t, 1, committed)

	balance, err := s.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(mustDec(t, "4000")))
}
