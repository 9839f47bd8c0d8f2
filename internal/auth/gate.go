// Package auth implements the shared-password access gate and the
// server-side session table.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Gate compares candidates against the configured password.
type Gate struct {
	sum [sha256.Size]byte
}

// NewGate returns a gate for password.
func NewGate(password string) *Gate {
	return &Gate{sum: sha256.Sum256([]byte(password))}
}

// Check reports whether candidate equals the password. The comparison runs
// in constant time over fixed-length digests.
func (g *Gate) Check(candidate string) bool {
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(got[:], g.sum[:]) == 1
}

// Session returns a session whose Authorized flag is the outcome of Check.
// The CLI uses it to turn a --password flag into a session.
func (g *Gate) Session(candidate string) types.Session {
	return types.Session{ID: "cli", Authorized: g.Check(candidate)}
}
