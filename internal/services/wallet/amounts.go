package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a monetary field from the callback payload.
// Amounts are decimal with at most two fractional digits and must not
// be negative; malformed input is rejected outright rather than
// substituted with a default.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount: %w", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, ErrInvalidAmount)
	}

	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative amount %q: %w", s, ErrInvalidAmount)
	}

	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("amount %q exceeds 2 decimal places: %w", s, ErrInvalidAmount)
	}

	return d, nil
}

// ParseBetAmount parses a bet. Bets must be strictly positive; only win
// amounts may be zero.
func ParseBetAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}

	if d.IsZero() {
		return decimal.Zero, fmt.Errorf("zero bet amount: %w", ErrInvalidAmount)
	}

	return d, nil
}
