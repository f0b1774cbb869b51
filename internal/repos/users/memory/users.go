// Package memory provides a map-backed ledger store for tests and
// non-SQL deployments. The *sql.Tx parameters of the contract are
// ignored; callers serialize operations through wallet.SerialRunner.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/casino-wallet/internal/repos/users"
)

var _ users.Users = (*Repo)(nil)

type Repo struct {
	mu       sync.RWMutex
	profiles map[uint64]users.Profile
}

func New() *Repo {
	return &Repo{profiles: make(map[uint64]users.Profile)}
}

// Seed inserts or replaces a profile.
func (r *Repo) Seed(p users.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profiles[p.ID] = p
}

func (r *Repo) Exists(_ *sql.Tx, userID uint64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.profiles[userID]
	if !ok {
		return users.ErrUserNotFound
	}

	return nil
}

func (r *Repo) GetProfile(_ context.Context, userID uint64) (*users.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, users.ErrUserNotFound
	}

	return &p, nil
}

func (r *Repo) GetBalance(_ context.Context, userID uint64) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return decimal.Zero, users.ErrUserNotFound
	}

	return p.Balance, nil
}

func (r *Repo) LockAndGetBalance(_ *sql.Tx, userID uint64) (decimal.Decimal, error) {
	return r.GetBalance(context.Background(), userID)
}

func (r *Repo) IncreaseBalance(_ *sql.Tx, userID uint64, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		return users.ErrUserNotFound
	}

	p.Balance = p.Balance.Add(amount)
	r.profiles[userID] = p

	return nil
}

func (r *Repo) DecreaseBalance(_ *sql.Tx, userID uint64, amount decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[userID]
	if !ok {
		return users.ErrUserNotFound
	}

	if p.Balance.LessThan(amount) {
		return users.ErrInsufficientFunds
	}

	p.Balance = p.Balance.Sub(amount)
	r.profiles[userID] = p

	return nil
}

func (r *Repo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.profiles)), nil
}
