package wallet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidToken = errors.New("invalid player token")

// testToken is the literal token the provider's integration platform
// sends; it maps to the seeded test player.
const (
	testToken  = "Test"
	testUserID = 1

	tokenPrefix = "token_"
)

// ResolveToken maps an opaque player token to an internal user id.
// Recognized shapes: the provider test literal and token_<id>. Anything
// else is rejected; the resolver never guesses a default user.
func ResolveToken(token string) (uint64, error) {
	switch {
	case token == testToken:
		return testUserID, nil
	case strings.HasPrefix(token, tokenPrefix):
		id, err := strconv.ParseUint(strings.TrimPrefix(token, tokenPrefix), 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("parse token %q: %w", token, ErrInvalidToken)
		}

		return id, nil
	default:
		return 0, ErrInvalidToken
	}
}
