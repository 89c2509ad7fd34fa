package ledger

import "errors"

// Validation rejections. The engine returns these with no side effects
// performed; callers surface them as user-visible messages.
var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrUnknownSymbol      = errors.New("unknown symbol")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("username already taken")
)

// StorageError reports that the underlying store failed. A StorageError
// from the commit step means the commit did not happen at all; callers may
// retry the whole trade.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
