package provider

import (
	"errors"

	"github.com/fastprodman/casino-wallet/internal/repos/users"
	"github.com/fastprodman/casino-wallet/internal/repos/wallettx"
	"github.com/fastprodman/casino-wallet/internal/services/wallet"
)

// FromError maps a domain error to its contract envelope. Anything the
// taxonomy does not name collapses to 130, the provider's catch-all.
func FromError(err error) Envelope {
	switch {
	case errors.Is(err, wallet.ErrInvalidToken), errors.Is(err, users.ErrUserNotFound):
		return Fail(CodeInvalidToken)
	case errors.Is(err, users.ErrInsufficientFunds):
		return Fail(CodeInsufficientBalance)
	case errors.Is(err, wallettx.ErrDuplicateTransaction):
		return Fail(CodeDuplicateTransaction)
	case errors.Is(err, wallet.ErrDuplicateDeposit):
		return Fail(CodeDuplicateDeposit)
	case errors.Is(err, wallet.ErrRoundNotFound), errors.Is(err, wallettx.ErrTransactionNotFound):
		return Fail(CodeNotFound)
	case errors.Is(err, wallet.ErrInvalidAmount):
		return FailDesc(CodeGeneralError, DescIncorrectParams)
	default:
		return Fail(CodeGeneralError)
	}
}
