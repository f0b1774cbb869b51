// Package memory provides a map-backed transaction store for tests and
// non-SQL deployments.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
)

var _ wallettx.Transactions = (*Repo)(nil)

type Repo struct {
	mu      sync.RWMutex
	records map[string]wallettx.Record // transaction_id -> record
	order   []string                   // insertion order, for listing
}

func New() *Repo {
	return &Repo{records: make(map[string]wallettx.Record)}
}

func (r *Repo) GetByTransactionID(_ *sql.Tx, transactionID string) (*wallettx.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[transactionID]
	if !ok {
		return nil, wallettx.ErrTransactionNotFound
	}

	return &rec, nil
}

func (r *Repo) ExistsForRound(_ *sql.Tx, roundID string, typ wallettx.Type) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records {
		if rec.RoundID == roundID && rec.Type == typ {
			return true, nil
		}
	}

	return false, nil
}

func (r *Repo) Insert(_ *sql.Tx, rec wallettx.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.records[rec.TransactionID]
	if ok {
		return wallettx.ErrDuplicateTransaction
	}

	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	r.records[rec.TransactionID] = rec
	r.order = append(r.order, rec.TransactionID)

	return nil
}

func (r *Repo) MarkCancelled(_ *sql.Tx, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[transactionID]
	if !ok {
		return wallettx.ErrTransactionNotFound
	}

	if rec.Status != wallettx.StatusCancelled {
		rec.Status = wallettx.StatusCancelled
		rec.UpdatedAt = time.Now()
		r.records[transactionID] = rec
	}

	return nil
}

func (r *Repo) ListByUserID(_ context.Context, userID uint64) ([]wallettx.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recs []wallettx.Record

	for _, id := range r.order {
		rec := r.records[id]
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}

	return recs, nil
}

func (r *Repo) CountAll(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.records)), nil
}

func (r *Repo) SumByUserID(_ context.Context, userID uint64) (wallettx.Totals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var t wallettx.Totals

	for _, rec := range r.records {
		if rec.UserID != userID || rec.Status != wallettx.StatusCompleted {
			continue
		}

		t.TotalBets = t.TotalBets.Add(rec.BetAmount)
		t.TotalWinnings = t.TotalWinnings.Add(rec.WinAmount)
	}

	return t, nil
}
