package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// TANChallenge is a one-time authorization code bound to a single transfer
// and to the user session that requested it. The raw code is never stored;
// only its hash is. A challenge is consumed exactly once, either by a
// successful verification or by attempt exhaustion.
type TANChallenge struct {
	ID                string
	TransferID        string
	UserID            string
	CodeHash          string
	DynamicLink       string
	ExpiresAt         time.Time
	AttemptsRemaining int
	Consumed          bool
	CreatedAt         time.Time
}

// GenerateTANCode generates a cryptographically random numeric code of the
// given length.
func GenerateTANCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// HashTANCode returns the hex-encoded SHA-256 hash of a TAN code.
func HashTANCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// TANDynamicLink binds a challenge to the transfer details it authorizes.
// A challenge only verifies against the exact transfer, amount and
// recipient it was issued for.
func TANDynamicLink(transferID string, amount decimal.Decimal, recipientRef string) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s:%s:%s", transferID, amount.String(), recipientRef))
	return hex.EncodeToString(sum[:])
}

// Check evaluates a verification attempt without mutating the challenge.
// Expiry and exhaustion are checked before the code, so neither outcome
// leaks whether the submitted code was correct.
func (c *TANChallenge) Check(now time.Time, userID, code, dynamicLink string) error {
	// Exhaustion before consumption: a challenge consumed by running out
	// of attempts keeps reporting ErrTANExhausted.
	if c.AttemptsRemaining <= 0 {
		return ErrTANExhausted
	}

	if c.Consumed {
		return ErrTANConsumed
	}

	if userID != c.UserID {
		return ErrUnauthorized
	}

	if now.After(c.ExpiresAt) {
		return ErrTANExpired
	}

	if subtle.ConstantTimeCompare([]byte(c.DynamicLink), []byte(dynamicLink)) != 1 {
		return ErrTANWrongCode
	}

	if subtle.ConstantTimeCompare([]byte(c.CodeHash), []byte(HashTANCode(code))) != 1 {
		return ErrTANWrongCode
	}

	return nil
}
