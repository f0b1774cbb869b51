package wallettx

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateTransaction = errors.New("duplicate transaction")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

type Type string

const (
	TypeWithdraw Type = "withdraw"
	TypeDeposit  Type = "deposit"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Record is one provider transaction. transaction_id is globally unique
// in the store; round_id groups a bet with its paired win. Amounts and
// type never change after insert, status only moves to cancelled.
type Record struct {
	TransactionID string
	RoundID       string
	UserID        uint64
	Type          Type
	BetAmount     decimal.Decimal
	WinAmount     decimal.Decimal
	Currency      string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Totals aggregates a user's completed transactions.
type Totals struct {
	TotalBets     decimal.Decimal
	TotalWinnings decimal.Decimal
}

// Transactions is the transaction store contract. Insert must enforce
// transaction_id uniqueness at write time and report a second attempt
// as ErrDuplicateTransaction, never overwrite.
type Transactions interface {
	GetByTransactionID(tx *sql.Tx, transactionID string) (*Record, error)
	ExistsForRound(tx *sql.Tx, roundID string, typ Type) (bool, error)
	Insert(tx *sql.Tx, rec Record) error
	MarkCancelled(tx *sql.Tx, transactionID string) error

	ListByUserID(ctx context.Context, userID uint64) ([]Record, error)
	CountAll(ctx context.Context) (int64, error)
	SumByUserID(ctx context.Context, userID uint64) (Totals, error)
}
