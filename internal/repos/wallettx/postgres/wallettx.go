package wallettx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
)

var _ wallettx.Transactions = (*txRepo)(nil)

type txRepo struct{ db *sql.DB }

func New(db *sql.DB) *txRepo {
	return &txRepo{db: db}
}

const recordColumns = `
	transaction_id, round_id, user_id, type,
	bet_amount, win_amount, currency, status,
	created_at, updated_at`

func scanRecord(row *sql.Row) (*wallettx.Record, error) {
	var rec wallettx.Record

	err := row.Scan(
		&rec.TransactionID, &rec.RoundID, &rec.UserID, &rec.Type,
		&rec.BetAmount, &rec.WinAmount, &rec.Currency, &rec.Status,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, wallettx.ErrTransactionNotFound
		}

		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	return &rec, nil
}

func (r *txRepo) GetByTransactionID(tx *sql.Tx, transactionID string) (*wallettx.Record, error) {
	return scanRecord(tx.QueryRow(`
		SELECT `+recordColumns+`
		FROM wallet_transactions
		WHERE transaction_id = $1
	`, transactionID))
}

func (r *txRepo) ExistsForRound(tx *sql.Tx, roundID string, typ wallettx.Type) (bool, error) {
	var exists bool

	err := tx.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM wallet_transactions
			WHERE round_id = $1 AND type = $2
		)
	`, roundID, string(typ)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check round: %w", err)
	}

	return exists, nil
}

func (r *txRepo) Insert(tx *sql.Tx, rec wallettx.Record) error {
	_, err := tx.Exec(`
		INSERT INTO wallet_transactions
			(transaction_id, round_id, user_id, type, bet_amount, win_amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.TransactionID, rec.RoundID, rec.UserID, string(rec.Type),
		rec.BetAmount, rec.WinAmount, rec.Currency, string(rec.Status))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation
				return wallettx.ErrDuplicateTransaction
			}
		}

		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// MarkCancelled is the only status transition the store allows. The
// guard makes it a no-op for an already-cancelled record so retried
// rollbacks converge; an unknown id is ErrTransactionNotFound.
func (r *txRepo) MarkCancelled(tx *sql.Tx, transactionID string) error {
	res, err := tx.Exec(`
		UPDATE wallet_transactions
		SET status = 'cancelled', updated_at = now()
		WHERE transaction_id = $1
		  AND status <> 'cancelled'
	`, transactionID)
	if err != nil {
		return fmt.Errorf("mark cancelled: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		var exists bool

		err = tx.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM wallet_transactions WHERE transaction_id = $1)
		`, transactionID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check cancelled: %w", err)
		}

		if !exists {
			return wallettx.ErrTransactionNotFound
		}
	}

	return nil
}

func (r *txRepo) ListByUserID(ctx context.Context, userID uint64) ([]wallettx.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var recs []wallettx.Record

	for rows.Next() {
		var rec wallettx.Record

		err = rows.Scan(
			&rec.TransactionID, &rec.RoundID, &rec.UserID, &rec.Type,
			&rec.BetAmount, &rec.WinAmount, &rec.Currency, &rec.Status,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		recs = append(recs, rec)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return recs, nil
}

func (r *txRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallet_transactions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}

	return n, nil
}

func (r *txRepo) SumByUserID(ctx context.Context, userID uint64) (wallettx.Totals, error) {
	var t wallettx.Totals

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(bet_amount), 0),
			COALESCE(SUM(win_amount), 0)
		FROM wallet_transactions
		WHERE user_id = $1
		  AND status = 'completed'
	`, userID).Scan(&t.TotalBets, &t.TotalWinnings)
	if err != nil {
		return wallettx.Totals{}, fmt.Errorf("sum transactions: %w", err)
	}

	return t, nil
}
