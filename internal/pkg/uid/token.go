package uid

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"time"
)

// TokenSize is the number of bytes behind a token; the hex form is twice as long.
const TokenSize = 32

// Token generates 64-char hex tokens: a 6-byte millisecond timestamp followed
// by 26 random bytes. Tokens are unguessable and roughly time ordered.
type Token struct {
	now  func() time.Time
	rand io.Reader
}

// NewToken returns a Token generator backed by crypto/rand.
func NewToken() *Token {
	return &Token{now: time.Now, rand: rand.Reader}
}

// Generate returns a new token. It panics when the system random source
// fails, since a predictable token must never be issued.
func (g *Token) Generate() string {
	var raw [TokenSize]byte

	ts := uint64(g.now().UnixMilli())
	for i := 0; i < 6; i++ {
		raw[i] = byte(ts >> (8 * (5 - i)))
	}

	if _, err := io.ReadFull(g.rand, raw[6:]); err != nil {
		panic("uid: random source unavailable: " + err.Error())
	}

	return hex.EncodeToString(raw[:])
}
