package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fastprodman/casino-wallet/internal/repos/users"
	memusers "github.com/fastprodman/casino-wallet/internal/repos/users/memory"
	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
	memwallettx "github.com/fastprodman/casino-wallet/internal/repos/wallettx/memory"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}

	return d
}

func newTestService(t *testing.T, balance string) (*Service, *memusers.Repo, *memwallettx.Repo) {
	t.Helper()

	u := memusers.New()
	u.Seed(users.Profile{
		ID:          1,
		Balance:     dec(t, balance),
		Currency:    "USD",
		DisplayName: "Player Name",
		Gender:      "M",
		Country:     "TR",
	})

	txns := memwallettx.New()

	return NewWithBackend(SerialRunner(), u, txns), u, txns
}

func mustBalance(t *testing.T, svc *Service, userID uint64) decimal.Decimal {
	t.Helper()

	balance, err := svc.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	return balance
}

func TestWithdraw(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("success_debits_and_records", func(t *testing.T) {
		t.Parallel()

		svc, _, txns := newTestService(t, "1000")

		res, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		if !res.Balance.Equal(dec(t, "995")) {
			t.Fatalf("balance: want 995, got %s", res.Balance)
		}

		if !res.BeforeBalance.Equal(dec(t, "1000")) {
			t.Fatalf("before_balance: want 1000, got %s", res.BeforeBalance)
		}

		rec, err := txns.GetByTransactionID(nil, "t1")
		if err != nil {
			t.Fatalf("stored record: %v", err)
		}

		if rec.Type != wallettx.TypeWithdraw || rec.Status != wallettx.StatusCompleted {
			t.Fatalf("record type/status: got %s/%s", rec.Type, rec.Status)
		}

		if !rec.BetAmount.Equal(dec(t, "5")) {
			t.Fatalf("record bet_amount: want 5, got %s", rec.BetAmount)
		}
	})

	t.Run("duplicate_keeps_balance", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")

		p := WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		}

		_, err := svc.Withdraw(ctx, p)
		if err != nil {
			t.Fatalf("first withdraw: %v", err)
		}

		res, err := svc.Withdraw(ctx, p)
		if !errors.Is(err, wallettx.ErrDuplicateTransaction) {
			t.Fatalf("want ErrDuplicateTransaction, got %v", err)
		}

		if res == nil {
			t.Fatal("duplicate outcome must still carry the balance")
		}

		if !res.Balance.Equal(dec(t, "995")) || !res.BeforeBalance.Equal(dec(t, "995")) {
			t.Fatalf("duplicate balance: want 995/995, got %s/%s", res.Balance, res.BeforeBalance)
		}

		if got := mustBalance(t, svc, 1); !got.Equal(dec(t, "995")) {
			t.Fatalf("stored balance after duplicate: want 995, got %s", got)
		}
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		t.Parallel()

		svc, _, txns := newTestService(t, "3")

		res, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if !errors.Is(err, users.ErrInsufficientFunds) {
			t.Fatalf("want ErrInsufficientFunds, got %v", err)
		}

		if !res.Balance.Equal(dec(t, "3")) {
			t.Fatalf("balance must be untouched: want 3, got %s", res.Balance)
		}

		n, _ := txns.CountAll(ctx)
		if n != 0 {
			t.Fatalf("no record may be stored, got %d", n)
		}
	})

	t.Run("zero_amount_rejected", func(t *testing.T) {
		t.Parallel()

		svc, _, txns := newTestService(t, "1000")

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: decimal.Zero, Currency: "USD",
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("want ErrInvalidAmount, got %v", err)
		}

		n, _ := txns.CountAll(ctx)
		if n != 0 {
			t.Fatalf("no record may be stored, got %d", n)
		}

		if got := mustBalance(t, svc, 1); !got.Equal(dec(t, "1000")) {
			t.Fatalf("balance must be unchanged: want 1000, got %s", got)
		}
	})

	t.Run("unknown_user", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 7, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if !errors.Is(err, users.ErrUserNotFound) {
			t.Fatalf("want ErrUserNotFound, got %v", err)
		}
	})
}

func TestDeposit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	withdrawFirst := func(t *testing.T, svc *Service) {
		t.Helper()

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "bet-1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("setup withdraw: %v", err)
		}
	}

	t.Run("credits_after_bet", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")
		withdrawFirst(t, svc)

		res, err := svc.Deposit(ctx, DepositParams{
			UserID: 1, TransactionID: "win-1", RoundID: "r1",
			WinAmount: dec(t, "10"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("deposit: %v", err)
		}

		if !res.Balance.Equal(dec(t, "1005")) || !res.BeforeBalance.Equal(dec(t, "995")) {
			t.Fatalf("balance: want 1005/995, got %s/%s", res.Balance, res.BeforeBalance)
		}
	})

	t.Run("zero_win_allowed", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")
		withdrawFirst(t, svc)

		res, err := svc.Deposit(ctx, DepositParams{
			UserID: 1, TransactionID: "win-1", RoundID: "r1",
			WinAmount: decimal.Zero, Currency: "USD",
		})
		if err != nil {
			t.Fatalf("deposit: %v", err)
		}

		if !res.Balance.Equal(dec(t, "995")) {
			t.Fatalf("balance: want 995, got %s", res.Balance)
		}
	})

	t.Run("no_bet_for_round", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")

		_, err := svc.Deposit(ctx, DepositParams{
			UserID: 1, TransactionID: "win-1", RoundID: "r9",
			WinAmount: dec(t, "20"), Currency: "USD",
		})
		if !errors.Is(err, ErrRoundNotFound) {
			t.Fatalf("want ErrRoundNotFound, got %v", err)
		}

		if got := mustBalance(t, svc, 1); !got.Equal(dec(t, "1000")) {
			t.Fatalf("balance must be unchanged: want 1000, got %s", got)
		}
	})

	t.Run("duplicate_win", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")
		withdrawFirst(t, svc)

		p := DepositParams{
			UserID: 1, TransactionID: "win-1", RoundID: "r1",
			WinAmount: dec(t, "10"), Currency: "USD",
		}

		_, err := svc.Deposit(ctx, p)
		if err != nil {
			t.Fatalf("first deposit: %v", err)
		}

		res, err := svc.Deposit(ctx, p)
		if !errors.Is(err, ErrDuplicateDeposit) {
			t.Fatalf("want ErrDuplicateDeposit, got %v", err)
		}

		if !res.Balance.Equal(dec(t, "1005")) {
			t.Fatalf("duplicate balance: want 1005, got %s", res.Balance)
		}
	})
}

func TestRollback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("withdraw_round_trip", func(t *testing.T) {
		t.Parallel()

		svc, _, txns := newTestService(t, "1000")

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "25.50"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		res, err := svc.Rollback(ctx, 1, "t1")
		if err != nil {
			t.Fatalf("rollback: %v", err)
		}

		// balance_after_rollback == balance_before_withdraw
		if !res.Balance.Equal(dec(t, "1000")) {
			t.Fatalf("balance: want 1000, got %s", res.Balance)
		}

		rec, err := txns.GetByTransactionID(nil, "t1")
		if err != nil {
			t.Fatalf("record: %v", err)
		}

		if rec.Status != wallettx.StatusCancelled {
			t.Fatalf("record status: want cancelled, got %s", rec.Status)
		}
	})

	t.Run("deposit_reversal_debits_win", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		_, err = svc.Deposit(ctx, DepositParams{
			UserID: 1, TransactionID: "t2", RoundID: "r1",
			WinAmount: dec(t, "10"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("deposit: %v", err)
		}

		res, err := svc.Rollback(ctx, 1, "t2")
		if err != nil {
			t.Fatalf("rollback: %v", err)
		}

		if !res.Balance.Equal(dec(t, "995")) || !res.BeforeBalance.Equal(dec(t, "1005")) {
			t.Fatalf("balance: want 995/1005, got %s/%s", res.Balance, res.BeforeBalance)
		}
	})

	t.Run("already_cancelled_is_noop", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		_, err = svc.Rollback(ctx, 1, "t1")
		if err != nil {
			t.Fatalf("first rollback: %v", err)
		}

		res, err := svc.Rollback(ctx, 1, "t1")
		if err != nil {
			t.Fatalf("second rollback: %v", err)
		}

		// The reversal must not be recomputed.
		if !res.Balance.Equal(dec(t, "1000")) || !res.BeforeBalance.Equal(dec(t, "1000")) {
			t.Fatalf("repeated rollback: want 1000/1000, got %s/%s", res.Balance, res.BeforeBalance)
		}
	})

	t.Run("unknown_transaction", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, "1000")

		_, err := svc.Rollback(ctx, 1, "no-such-tx")
		if !errors.Is(err, wallettx.ErrTransactionNotFound) {
			t.Fatalf("want ErrTransactionNotFound, got %v", err)
		}
	})

	t.Run("other_users_transaction", func(t *testing.T) {
		t.Parallel()

		svc, u, _ := newTestService(t, "1000")
		u.Seed(users.Profile{ID: 2, Balance: dec(t, "500"), Currency: "USD"})

		_, err := svc.Withdraw(ctx, WithdrawParams{
			UserID: 1, TransactionID: "t1", RoundID: "r1",
			Amount: dec(t, "5"), Currency: "USD",
		})
		if err != nil {
			t.Fatalf("withdraw: %v", err)
		}

		_, err = svc.Rollback(ctx, 2, "t1")
		if !errors.Is(err, wallettx.ErrTransactionNotFound) {
			t.Fatalf("want ErrTransactionNotFound, got %v", err)
		}

		// Neither ledger may move.
		if got := mustBalance(t, svc, 1); !got.Equal(dec(t, "995")) {
			t.Fatalf("owner balance: want 995, got %s", got)
		}

		if got := mustBalance(t, svc, 2); !got.Equal(dec(t, "500")) {
			t.Fatalf("other balance: want 500, got %s", got)
		}
	})
}

// TestProviderScenario walks the documented provider retry scenario
// end to end on one service instance.
func TestProviderScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService(t, "1000")

	res, err := svc.Withdraw(ctx, WithdrawParams{
		UserID: 1, TransactionID: "t1", RoundID: "r1",
		Amount: dec(t, "5"), Currency: "USD",
	})
	if err != nil || !res.Balance.Equal(dec(t, "995")) {
		t.Fatalf("withdraw t1: balance %v err %v", res, err)
	}

	_, err = svc.Withdraw(ctx, WithdrawParams{
		UserID: 1, TransactionID: "t1", RoundID: "r1",
		Amount: dec(t, "5"), Currency: "USD",
	})
	if !errors.Is(err, wallettx.ErrDuplicateTransaction) {
		t.Fatalf("redelivered t1: want duplicate, got %v", err)
	}

	if got := mustBalance(t, svc, 1); !got.Equal(dec(t, "995")) {
		t.Fatalf("after redelivery: want 995, got %s", got)
	}

	res, err = svc.Deposit(ctx, DepositParams{
		UserID: 1, TransactionID: "t2", RoundID: "r1",
		WinAmount: dec(t, "10"), Currency: "USD",
	})
	if err != nil || !res.Balance.Equal(dec(t, "1005")) {
		t.Fatalf("deposit t2: balance %v err %v", res, err)
	}

	_, err = svc.Deposit(ctx, DepositParams{
		UserID: 1, TransactionID: "t2", RoundID: "r1",
		WinAmount: dec(t, "10"), Currency: "USD",
	})
	if !errors.Is(err, ErrDuplicateDeposit) {
		t.Fatalf("redelivered t2: want duplicate deposit, got %v", err)
	}

	res, err = svc.Rollback(ctx, 1, "t1")
	if err != nil {
		t.Fatalf("rollback t1: %v", err)
	}

	// t1 was a withdraw of 5: 1005 + 5.
	if !res.Balance.Equal(dec(t, "1010")) {
		t.Fatalf("after rollback: want 1010, got %s", res.Balance)
	}
}

// TestWithdraw_ConcurrentRedelivery hammers one transaction id from
// many goroutines: exactly one debit may land, every loser must see the
// duplicate outcome.
func TestWithdraw_ConcurrentRedelivery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, txns := newTestService(t, "1000")

	const workers = 16

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.Withdraw(ctx, WithdrawParams{
				UserID: 1, TransactionID: "t-race", RoundID: "r1",
				Amount: dec(t, "5"), Currency: "USD",
			})

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, wallettx.ErrDuplicateTransaction):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if successes != 1 || duplicates != workers-1 {
		t.Fatalf("want 1 success / %d duplicates, got %d / %d", workers-1, successes, duplicates)
	}

	if got := mustBalance(t, svc, 1); !got.Equal(dec(t, "995")) {
		t.Fatalf("balance debited more than once: want 995, got %s", got)
	}

	n, _ := txns.CountAll(ctx)
	if n != 1 {
		t.Fatalf("want exactly one stored record, got %d", n)
	}
}
