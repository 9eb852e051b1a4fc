// Package hash derives one-way values from secrets.
//
// Bcrypt stores account passwords. HMACSHA256 turns bearer-style handles, such
// as login challenge tokens, into lookup keys so the raw handle is never stored.
package hash

// Hash hashes a plaintext and verifies a plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
