package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
)

// Profile is the player record as the callback surface needs it.
// Balances are currency-scoped decimals with two fractional digits.
type Profile struct {
	ID          uint64
	Balance     decimal.Decimal
	Currency    string
	DisplayName string
	Gender      string
	Country     string
}

// Users is the ledger store contract. Methods taking *sql.Tx run inside
// the caller's transaction so balance changes and transaction records
// commit or roll back together; non-SQL implementations ignore the tx.
type Users interface {
	Exists(tx *sql.Tx, userID uint64) error
	GetProfile(ctx context.Context, userID uint64) (*Profile, error)
	GetBalance(ctx context.Context, userID uint64) (decimal.Decimal, error)
	LockAndGetBalance(tx *sql.Tx, userID uint64) (decimal.Decimal, error)
	IncreaseBalance(tx *sql.Tx, userID uint64, amount decimal.Decimal) error
	DecreaseBalance(tx *sql.Tx, userID uint64, amount decimal.Decimal) error
	Count(ctx context.Context) (int64, error)
}
