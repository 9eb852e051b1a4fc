package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt after mixing in a server-side pepper.
//
// The password is first reduced to HMAC-SHA256(pepper, password) in base64, so
// passphrases longer than bcrypt's 72-byte input limit stay fully significant
// and a leaked database is useless without the pepper.
type Bcrypt struct {
	cost   int
	pepper []byte
}

// NewBcrypt returns a bcrypt hasher. Costs outside bcrypt's range fall back to
// bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: []byte(pepper)}
}

// Hash returns the bcrypt hash of plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(h.peppered(plaintext), h.cost)
}

// Verify reports whether plaintext matches hashed.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.peppered(plaintext)) == nil
}

func (h *Bcrypt) peppered(plaintext string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(plaintext))
	return base64.StdEncoding.AppendEncode(nil, mac.Sum(nil))
}
