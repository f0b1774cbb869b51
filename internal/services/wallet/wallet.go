// Package wallet implements the transaction reconciliation core: the
// withdraw/deposit/rollback state machine the provider callbacks drive.
//
// Every money-moving operation runs the same recipe inside a single
// database transaction:
//
//  1. Ensure the user exists.
//  2. Lock the user row (FOR UPDATE).
//  3. Run the operation's checks against the locked state.
//  4. Apply the balance delta and write the transaction record; the
//     store's unique constraint on transaction_id is the backstop for
//     races the pre-check cannot see.
//
// A concurrent redelivery of the same transaction id therefore results
// in exactly one applied effect; the loser observes the duplicate
// outcome with the balance untouched.
package wallet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/casino-wallet/internal/infra/pgutils"
	"github.com/fastprodman/casino-wallet/internal/repos/users"
	pgusers "github.com/fastprodman/casino-wallet/internal/repos/users/postgres"
	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
	pgwallettx "github.com/fastprodman/casino-wallet/internal/repos/wallettx/postgres"
)

var (
	ErrDuplicateDeposit = errors.New("duplicate deposit")
	ErrRoundNotFound    = errors.New("no bet recorded for round")
)

// Runner executes fn atomically. The SQL backend wraps fn in a database
// transaction; SerialRunner serializes calls with a mutex and passes a
// nil tx for stores that ignore it.
type Runner func(ctx context.Context, fn func(*sql.Tx) error) error

type Service struct {
	runTx Runner
	users users.Users
	txns  wallettx.Transactions
}

func New(db *sql.DB) *Service {
	return &Service{
		runTx: func(ctx context.Context, fn func(*sql.Tx) error) error {
			return pgutils.WithTx(ctx, db, fn)
		},
		users: pgusers.New(db),
		txns:  pgwallettx.New(db),
	}
}

// NewWithBackend wires the service over explicit stores and an explicit
// atomicity mechanism, for tests and non-SQL deployments.
func NewWithBackend(run Runner, u users.Users, t wallettx.Transactions) *Service {
	return &Service{runTx: run, users: u, txns: t}
}

// SerialRunner returns a Runner that serializes operations with a
// mutex, the lock-based alternative to transactional stores. Coarser
// than per-user locking, but the stores it pairs with are in-memory.
func SerialRunner() Runner {
	var mu sync.Mutex

	return func(ctx context.Context, fn func(*sql.Tx) error) error {
		mu.Lock()
		defer mu.Unlock()

		err := ctx.Err()
		if err != nil {
			return fmt.Errorf("serial runner: %w", err)
		}

		return fn(nil)
	}
}

// Result carries the balance after an operation and the balance it
// started from. Failed duplicate and insufficient-funds outcomes still
// produce a Result: the provider envelope reports the (unchanged)
// balance on those errors.
type Result struct {
	Balance       decimal.Decimal
	BeforeBalance decimal.Decimal
}

type WithdrawParams struct {
	UserID        uint64
	TransactionID string
	RoundID       string
	Amount        decimal.Decimal
	Currency      string
}

// Withdraw debits a bet. The amount must be strictly positive, else
// ErrInvalidAmount. Duplicate transaction ids fail with
// wallettx.ErrDuplicateTransaction, short balances with
// users.ErrInsufficientFunds; both leave the balance untouched and
// return it in the Result.
func (s *Service) Withdraw(ctx context.Context, p WithdrawParams) (*Result, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("withdraw amount %s: %w", p.Amount, ErrInvalidAmount)
	}

	var res *Result

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		err := s.users.Exists(tx, p.UserID)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}

		balance, err := s.users.LockAndGetBalance(tx, p.UserID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		_, err = s.txns.GetByTransactionID(tx, p.TransactionID)
		if err == nil {
			res = &Result{Balance: balance, BeforeBalance: balance}

			return wallettx.ErrDuplicateTransaction
		}

		if !errors.Is(err, wallettx.ErrTransactionNotFound) {
			return fmt.Errorf("duplicate check: %w", err)
		}

		if balance.LessThan(p.Amount) {
			res = &Result{Balance: balance, BeforeBalance: balance}

			return users.ErrInsufficientFunds
		}

		err = s.users.DecreaseBalance(tx, p.UserID, p.Amount)
		if err != nil {
			return fmt.Errorf("decrease balance: %w", err)
		}

		err = s.txns.Insert(tx, wallettx.Record{
			TransactionID: p.TransactionID,
			RoundID:       p.RoundID,
			UserID:        p.UserID,
			Type:          wallettx.TypeWithdraw,
			BetAmount:     p.Amount,
			WinAmount:     decimal.Zero,
			Currency:      p.Currency,
			Status:        wallettx.StatusCompleted,
		})
		if err != nil {
			// Lost a redelivery race: the whole tx rolls back, so the
			// debit never lands and the duplicate outcome is reported
			// against the pre-debit balance.
			if errors.Is(err, wallettx.ErrDuplicateTransaction) {
				res = &Result{Balance: balance, BeforeBalance: balance}

				return wallettx.ErrDuplicateTransaction
			}

			return fmt.Errorf("insert transaction: %w", err)
		}

		res = &Result{Balance: balance.Sub(p.Amount), BeforeBalance: balance}

		return nil
	})
	if err != nil {
		return res, fmt.Errorf("withdraw: %w", err)
	}

	return res, nil
}

type DepositParams struct {
	UserID        uint64
	TransactionID string
	RoundID       string
	WinAmount     decimal.Decimal
	Currency      string
}

// Deposit credits a win. A deposit may only follow the withdraw that
// opened its round; with no such bet on record it fails with
// ErrRoundNotFound. Duplicate transaction ids fail with
// ErrDuplicateDeposit and an unchanged balance in the Result.
func (s *Service) Deposit(ctx context.Context, p DepositParams) (*Result, error) {
	var res *Result

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		err := s.users.Exists(tx, p.UserID)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}

		balance, err := s.users.LockAndGetBalance(tx, p.UserID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		_, err = s.txns.GetByTransactionID(tx, p.TransactionID)
		if err == nil {
			res = &Result{Balance: balance, BeforeBalance: balance}

			return ErrDuplicateDeposit
		}

		if !errors.Is(err, wallettx.ErrTransactionNotFound) {
			return fmt.Errorf("duplicate check: %w", err)
		}

		hasBet, err := s.txns.ExistsForRound(tx, p.RoundID, wallettx.TypeWithdraw)
		if err != nil {
			return fmt.Errorf("round check: %w", err)
		}

		if !hasBet {
			return ErrRoundNotFound
		}

		err = s.users.IncreaseBalance(tx, p.UserID, p.WinAmount)
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		err = s.txns.Insert(tx, wallettx.Record{
			TransactionID: p.TransactionID,
			RoundID:       p.RoundID,
			UserID:        p.UserID,
			Type:          wallettx.TypeDeposit,
			BetAmount:     decimal.Zero,
			WinAmount:     p.WinAmount,
			Currency:      p.Currency,
			Status:        wallettx.StatusCompleted,
		})
		if err != nil {
			if errors.Is(err, wallettx.ErrDuplicateTransaction) {
				res = &Result{Balance: balance, BeforeBalance: balance}

				return ErrDuplicateDeposit
			}

			return fmt.Errorf("insert transaction: %w", err)
		}

		res = &Result{Balance: balance.Add(p.WinAmount), BeforeBalance: balance}

		return nil
	})
	if err != nil {
		return res, fmt.Errorf("deposit: %w", err)
	}

	return res, nil
}

// Rollback cancels a previously applied transaction and reverses its
// balance effect: a withdraw credits the bet amount back, a deposit
// debits the win amount. Another user's transaction is reported as
// wallettx.ErrTransactionNotFound. Rolling back an already-cancelled
// transaction is a no-op that reports the current balance, so provider
// retries converge instead of recomputing the reversal.
func (s *Service) Rollback(ctx context.Context, userID uint64, transactionID string) (*Result, error) {
	var res *Result

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		err := s.users.Exists(tx, userID)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}

		balance, err := s.users.LockAndGetBalance(tx, userID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		rec, err := s.txns.GetByTransactionID(tx, transactionID)
		if err != nil {
			return fmt.Errorf("lookup transaction: %w", err)
		}

		// A token must not cancel another user's transaction.
		if rec.UserID != userID {
			return wallettx.ErrTransactionNotFound
		}

		if rec.Status == wallettx.StatusCancelled {
			res = &Result{Balance: balance, BeforeBalance: balance}

			return nil
		}

		err = s.txns.MarkCancelled(tx, transactionID)
		if err != nil {
			return fmt.Errorf("mark cancelled: %w", err)
		}

		var newBalance decimal.Decimal

		switch rec.Type {
		case wallettx.TypeWithdraw:
			amount := rec.BetAmount.Abs()

			err = s.users.IncreaseBalance(tx, userID, amount)
			if err != nil {
				return fmt.Errorf("reverse withdraw: %w", err)
			}

			newBalance = balance.Add(amount)
		case wallettx.TypeDeposit:
			amount := rec.WinAmount.Abs()

			err = s.users.DecreaseBalance(tx, userID, amount)
			if err != nil {
				return fmt.Errorf("reverse deposit: %w", err)
			}

			newBalance = balance.Sub(amount)
		default:
			return fmt.Errorf("unknown transaction type %q", rec.Type)
		}

		res = &Result{Balance: newBalance, BeforeBalance: balance}

		return nil
	})
	if err != nil {
		return res, fmt.Errorf("rollback: %w", err)
	}

	return res, nil
}

// PlayerInfo returns the profile backing the getPlayerInfo command.
func (s *Service) PlayerInfo(ctx context.Context, userID uint64) (*users.Profile, error) {
	p, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("player info: %w", err)
	}

	return p, nil
}

// Balance returns the user's balance without locking.
func (s *Service) Balance(ctx context.Context, userID uint64) (decimal.Decimal, error) {
	balance, err := s.users.GetBalance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// Transactions lists a user's transactions, oldest first.
func (s *Service) Transactions(ctx context.Context, userID uint64) ([]wallettx.Record, error) {
	recs, err := s.txns.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return recs, nil
}

// TransactionCount returns the store-wide number of transactions.
func (s *Service) TransactionCount(ctx context.Context) (int64, error) {
	n, err := s.txns.CountAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}

	return n, nil
}

// Winnings aggregates a user's completed bets and wins.
func (s *Service) Winnings(ctx context.Context, userID uint64) (wallettx.Totals, error) {
	t, err := s.txns.SumByUserID(ctx, userID)
	if err != nil {
		return wallettx.Totals{}, fmt.Errorf("sum winnings: %w", err)
	}

	return t, nil
}

// UserCount returns the number of user records.
func (s *Service) UserCount(ctx context.Context) (int64, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}

	return n, nil
}
