// Package sign implements the provider callback signature scheme:
// hex(HMAC-MD5(request_time, API_KEY)), compared verbatim against the
// signature field of the payload.
package sign

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // digest algorithm fixed by the provider contract
	"encoding/hex"
)

// Compute returns the expected signature for a request_time value.
func Compute(requestTime, key string) string {
	mac := hmac.New(md5.New, []byte(key))
	mac.Write([]byte(requestTime))

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the one computed over
// requestTime. The contract mandates exact string equality; an empty
// signature never verifies.
func Verify(signature, requestTime, key string) bool {
	if signature == "" {
		return false
	}

	return signature == Compute(requestTime, key)
}
