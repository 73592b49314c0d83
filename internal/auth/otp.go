package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"math/big"
	"time"
)

const (
	// DefaultCodeTTL is how long an issued code stays valid.
	DefaultCodeTTL = 10 * time.Minute

	codeMin  = 100000
	codeSpan = 900000
)

// CodeGenerator issues and checks 6-digit one-time codes. It holds no state
// besides its clock and randomness source.
type CodeGenerator struct {
	ttl     time.Duration
	now     func() time.Time
	entropy io.Reader
}

// NewCodeGenerator builds a generator. A nil clock means time.Now.
func NewCodeGenerator(ttl time.Duration, now func() time.Time) *CodeGenerator {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	if now == nil {
		now = time.Now
	}
	return &CodeGenerator{ttl: ttl, now: now, entropy: rand.Reader}
}

// TTL returns the validity window of generated codes.
func (g *CodeGenerator) TTL() time.Duration {
	return g.ttl
}

// Generate returns a fresh code and its absolute expiry.
func (g *CodeGenerator) Generate() (string, time.Time, error) {
	n, err := rand.Int(g.entropy, big.NewInt(codeSpan))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64()+codeMin)
	return code, g.now().Add(g.ttl), nil
}

// Validate reports whether submitted equals stored and expiresAt has not passed.
// Values are compared as-is.
func (g *CodeGenerator) Validate(submitted, stored string, expiresAt time.Time) bool {
	if g.now().After(expiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
