// Package token generates the opaque exchange-token strings.
package token

import (
	"crypto/rand"
	"encoding/hex"
)

// ExchangeTokenBytes gives 256 bits of entropy; collisions are negligible and
// the string is effectively unguessable.
const ExchangeTokenBytes = 32

// NewOpaque returns nBytes of cryptographically secure randomness as hex.
func NewOpaque(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewExchangeToken returns a fresh exchange-token string.
func NewExchangeToken() (string, error) {
	return NewOpaque(ExchangeTokenBytes)
}
