package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fastprodman/casino-wallet/internal/repos/users"
	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
	"github.com/fastprodman/casino-wallet/internal/services/wallet"
)

func TestFromError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantDesc string
	}{
		{name: "invalid_token", err: wallet.ErrInvalidToken, wantCode: 102, wantDesc: "Invalid Token"},
		{name: "user_not_found", err: users.ErrUserNotFound, wantCode: 102, wantDesc: "Invalid Token"},
		{name: "insufficient_funds", err: users.ErrInsufficientFunds, wantCode: 21, wantDesc: "Not Enough Money"},
		{name: "duplicate_transaction", err: wallettx.ErrDuplicateTransaction, wantCode: 104, wantDesc: "The transaction already exists"},
		{name: "duplicate_deposit", err: wallet.ErrDuplicateDeposit, wantCode: 111, wantDesc: "The Deposit Transaction Already Received"},
		{name: "round_not_found", err: wallet.ErrRoundNotFound, wantCode: 107, wantDesc: "Transaction not found"},
		{name: "transaction_not_found", err: wallettx.ErrTransactionNotFound, wantCode: 107, wantDesc: "Transaction not found"},
		{name: "invalid_amount", err: wallet.ErrInvalidAmount, wantCode: 130, wantDesc: "Incorrect Parameters Passed"},
		{name: "unknown_error", err: errors.New("boom"), wantCode: 130, wantDesc: "General Error"},
		{
			name:     "wrapped_sentinel",
			err:      fmt.Errorf("withdraw: %w", wallettx.ErrDuplicateTransaction),
			wantCode: 104,
			wantDesc: "The transaction already exists",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := FromError(tt.err)

			if env.Result {
				t.Fatal("failure envelope must have result=false")
			}

			if env.ErrCode != tt.wantCode || env.ErrDesc != tt.wantDesc {
				t.Fatalf("want %d/%q, got %d/%q", tt.wantCode, tt.wantDesc, env.ErrCode, env.ErrDesc)
			}
		})
	}
}

func TestEnvelopeConstructors(t *testing.T) {
	t.Parallel()

	ok := OK()
	if !ok.Result || ok.ErrCode != CodeSuccess || ok.ErrDesc != DescSuccess {
		t.Fatalf("OK: %+v", ok)
	}

	fail := Fail(CodeAuthFailed)
	if fail.Result || fail.ErrDesc != DescAuthFailed {
		t.Fatalf("Fail: %+v", fail)
	}
}
