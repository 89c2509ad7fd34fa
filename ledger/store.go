package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/finvault/brokerage/pkg/id"
)

// Store persists users and the transaction log in SQLite.
//
// Reads are safe for concurrent use. Cash-mutating calls (Credit, Debit,
// Commit) must be serialized per user by the caller; the Engine does this
// with a per-user lock. Trades for different users may commit in parallel.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database at path and ensures
// the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, storageErr("open database", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, storageErr("create schema", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser registers a new account holder with the given starting cash.
// Returns ErrDuplicateUser if the username is taken.
func (s *Store) CreateUser(ctx context.Context, username string, cash decimal.Decimal) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, errors.New("username is required")
	}
	if cash.Sign() < 0 {
		return User{}, ErrInvalidAmount
	}

	u := User{
		ID:        id.New(),
		Username:  username,
		Cash:      cash,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, cash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.Cash.String(), u.CreatedAt,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return User{}, ErrDuplicateUser
		}
		return User{}, storageErr("insert user", err)
	}
	return u, nil
}

// User returns the account with the given id, or ErrUserNotFound.
func (s *Store) User(ctx context.Context, userID string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, cash, created_at FROM users WHERE id = ?`, userID)
	return scanUser(row)
}

// UserByName returns the account with the given username, or
// ErrUserNotFound. The CLI uses this to resolve handles to ids; the engine
// itself only ever sees ids.
func (s *Store) UserByName(ctx context.Context, username string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, cash, created_at FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u    User
		cash string
	)
	err := row.Scan(&u.ID, &u.Username, &cash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, storageErr("scan user", err)
	}

	u.Cash, err = decimal.NewFromString(cash)
	if err != nil {
		return User{}, storageErr("parse cash", err)
	}
	return u, nil
}

// Balance returns the user's current cash balance.
func (s *Store) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	u, err := s.User(ctx, userID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return u.Cash, nil
}

// Credit adds amount to the user's cash balance. Rejects non-positive
// amounts with ErrInvalidAmount.
func (s *Store) Credit(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return s.adjustCash(ctx, userID, amount)
}

// Debit subtracts amount from the user's cash balance. Rejects
// non-positive amounts with ErrInvalidAmount and overdrafts with
// ErrInsufficientFunds.
func (s *Store) Debit(ctx context.Context, userID string, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return s.adjustCash(ctx, userID, amount.Neg())
}

func (s *Store) adjustCash(ctx context.Context, userID string, delta decimal.Decimal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT cash FROM users WHERE id = ?`, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return storageErr("read cash", err)
	}

	cash, err := decimal.NewFromString(raw)
	if err != nil {
		return storageErr("parse cash", err)
	}

	cash = cash.Add(delta)
	if cash.Sign() < 0 {
		return ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET cash = ? WHERE id = ?`, cash.String(), userID); err != nil {
		return storageErr("update cash", err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

// Append adds one entry to the transaction log and returns its id. Fills
// in ID and CreatedAt when unset. The log has no update or delete path.
func (s *Store) Append(ctx context.Context, txn Transaction) (string, error) {
	txn = stamped(txn)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, symbol, name, price, quantity, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.Symbol, txn.Name, txn.Price.String(),
		txn.Quantity, string(txn.Kind), txn.CreatedAt,
	)
	if err != nil {
		return "", storageErr("insert transaction", err)
	}
	return txn.ID, nil
}

// Commit atomically appends one transaction and sets the user's cash to
// newCash. Either both writes happen or neither does.
func (s *Store) Commit(ctx context.Context, txn Transaction, newCash decimal.Decimal) (string, error) {
	txn = stamped(txn)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageErr("begin", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, symbol, name, price, quantity, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.UserID, txn.Symbol, txn.Name, txn.Price.String(),
		txn.Quantity, string(txn.Kind), txn.CreatedAt,
	)
	if err != nil {
		return "", storageErr("insert transaction", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE users SET cash = ? WHERE id = ?`, newCash.String(), txn.UserID)
	if err != nil {
		return "", storageErr("update cash", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", storageErr("update cash", err)
	} else if n != 1 {
		return "", ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return "", storageErr("commit trade", err)
	}
	return txn.ID, nil
}

func stamped(txn Transaction) Transaction {
	if txn.ID == "" {
		txn.ID = id.New()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	return txn
}

// Transactions lists the user's log entries in insertion order. A
// non-empty symbol restricts the list to that symbol.
func (s *Store) Transactions(ctx context.Context, userID, symbol string) ([]Transaction, error) {
	query := `
		SELECT id, user_id, symbol, name, price, quantity, kind, created_at
		FROM transactions
		WHERE user_id = ?`
	args := []any{userID}
	if symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query transactions", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			txn   Transaction
			price string
			kind  string
		)
		if err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Symbol,
			&txn.Name,
			&price,
			&txn.Quantity,
			&kind,
			&txn.CreatedAt,
		); err != nil {
			return nil, storageErr("scan transaction", err)
		}
		txn.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, storageErr("parse price", err)
		}
		txn.Kind = Kind(kind)
		out = append(out, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query transactions", err)
	}
	return out, nil
}

// Positions aggregates the user's log by symbol, including symbols whose
// net quantity has dropped to zero. Validation paths want the raw sums;
// portfolio views want Holdings instead.
func (s *Store) Positions(ctx context.Context, userID string) ([]Position, error) {
	return s.positions(ctx, userID, false)
}

// Holdings is Positions filtered to net quantity > 0, the "current
// holdings" view.
func (s *Store) Holdings(ctx context.Context, userID string) ([]Position, error) {
	return s.positions(ctx, userID, true)
}

func (s *Store) positions(ctx context.Context, userID string, openOnly bool) ([]Position, error) {
	query := `
		SELECT symbol, name, SUM(quantity)
		FROM transactions
		WHERE user_id = ?
		GROUP BY symbol`
	if openOnly {
		query += ` HAVING SUM(quantity) > 0`
	}
	query += ` ORDER BY symbol ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, storageErr("query positions", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.Symbol, &p.Name, &p.Quantity); err != nil {
			return nil, storageErr("scan position", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query positions", err)
	}
	return out, nil
}

// QuantityHeld returns the user's net share count for one symbol. Zero for
// symbols never traded.
func (s *Store) QuantityHeld(ctx context.Context, userID, symbol string) (int64, error) {
	var held int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity), 0)
		FROM transactions
		WHERE user_id = ? AND symbol = ?`, userID, symbol).Scan(&held)
	if err != nil {
		return 0, storageErr("query held quantity", err)
	}
	return held, nil
}
