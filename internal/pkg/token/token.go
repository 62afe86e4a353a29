package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// New generates a cryptographically random 64-character hex token (32 bytes of entropy).
// Used for refresh tokens and link-based verification tokens.
func New() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// NewCode draws a 6-digit numeric code uniformly from [100000, 999999].
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}
