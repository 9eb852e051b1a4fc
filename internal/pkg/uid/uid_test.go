package uid

import (
	"bytes"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUUID_Generate(t *testing.T) {
	id := NewUUID().Generate()

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("invalid uuid %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("expected v7, got %d", parsed.Version())
	}
}

func TestToken_Generate(t *testing.T) {
	g := &Token{
		now:  func() time.Time { return time.UnixMilli(0x0102030405) },
		rand: bytes.NewReader(bytes.Repeat([]byte{0xAB}, TokenSize)),
	}

	tok := g.Generate()
	if len(tok) != 2*TokenSize {
		t.Fatalf("unexpected length %d", len(tok))
	}

	raw, err := hex.DecodeString(tok)
	if err != nil {
		t.Fatalf("not hex: %v", err)
	}
	if !bytes.Equal(raw[:6], []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}) {
		t.Fatalf("unexpected timestamp prefix %x", raw[:6])
	}
	if !bytes.Equal(raw[6:], bytes.Repeat([]byte{0xAB}, TokenSize-6)) {
		t.Fatalf("unexpected random part %x", raw[6:])
	}
}

func TestToken_Unique(t *testing.T) {
	g := NewToken()
	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		tok := g.Generate()
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = struct{}{}
	}
}
