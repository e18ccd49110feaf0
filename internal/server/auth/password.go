package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// Verifier checks the staff password. When a bcrypt hash is configured it
// takes precedence; otherwise a plaintext password is compared in constant
// time (development mode).
type Verifier struct {
	hash  []byte
	plain []byte
}

func NewVerifier(passwordHash, password string) *Verifier {
	return &Verifier{hash: []byte(passwordHash), plain: []byte(password)}
}

func (v *Verifier) Verify(candidate string) bool {
	if len(v.hash) > 0 {
		return bcrypt.CompareHashAndPassword(v.hash, []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare(v.plain, []byte(candidate)) == 1
}
