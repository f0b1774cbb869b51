// Package provider holds the wire-level error taxonomy of the game
// provider contract. Codes and descriptions are fixed by the contract
// and must match it exactly.
package provider

const (
	CodeSuccess              = 0
	CodeAuthFailed           = 8
	CodeInsufficientBalance  = 21
	CodeInvalidToken         = 102
	CodeDuplicateTransaction = 104
	CodeNotFound             = 107
	CodeDuplicateDeposit     = 111
	CodeGeneralError         = 130
)

const (
	DescSuccess          = "Success"
	DescAuthFailed       = "Authentication Failed"
	DescNotEnoughMoney   = "Not Enough Money"
	DescInvalidToken     = "Invalid Token"
	DescDuplicateTx      = "The transaction already exists"
	DescNotFound         = "Transaction not found"
	DescDuplicateDeposit = "The Deposit Transaction Already Received"
	DescGeneralError     = "General Error"
	DescIncorrectParams  = "Incorrect Parameters Passed"
)

// Describe returns the contract description for an error code.
func Describe(code int) string {
	switch code {
	case CodeSuccess:
		return DescSuccess
	case CodeAuthFailed:
		return DescAuthFailed
	case CodeInsufficientBalance:
		return DescNotEnoughMoney
	case CodeInvalidToken:
		return DescInvalidToken
	case CodeDuplicateTransaction:
		return DescDuplicateTx
	case CodeNotFound:
		return DescNotFound
	case CodeDuplicateDeposit:
		return DescDuplicateDeposit
	default:
		return DescGeneralError
	}
}

// Envelope is the response wrapper every callback answer carries,
// success or failure. Transport status is always 200; the provider
// drives its retry logic off err_code alone.
type Envelope struct {
	Result  bool   `json:"result"`
	ErrCode int    `json:"err_code"`
	ErrDesc string `json:"err_desc"`
}

// OK returns the success envelope.
func OK() Envelope {
	return Envelope{Result: true, ErrCode: CodeSuccess, ErrDesc: DescSuccess}
}

// Fail returns a failure envelope with the contract description for code.
func Fail(code int) Envelope {
	return Envelope{Result: false, ErrCode: code, ErrDesc: Describe(code)}
}

// FailDesc returns a failure envelope with an explicit description, for
// codes that carry more than one contract string (130 in particular).
func FailDesc(code int, desc string) Envelope {
	return Envelope{Result: false, ErrCode: code, ErrDesc: desc}
}
