package random

import (
	"crypto/rand"
	"encoding/base64"
)

// Random provides secret generation that can be mocked for testing
type Random interface {
	// Secret returns a URL-safe string encoding n random bytes
	Secret(n int) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Secret returns n cryptographically random bytes, base64url encoded
func (r *CryptoRandom) Secret(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	// crypto/rand.Read never returns an error on supported platforms
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}
