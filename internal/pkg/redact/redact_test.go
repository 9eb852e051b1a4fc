package redact

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactor_Match(t *testing.T) {
	r := New(" Session_ID ", "")

	assert.True(t, r.Match("Password"))
	assert.True(t, r.Match("challenge_token"))
	assert.True(t, r.Match("session_id"))
	assert.False(t, r.Match("user_id"))
	assert.False(t, r.Match(""))

	var nilRedactor *Redactor
	assert.False(t, nilRedactor.Match("password"))
}

func TestRedactor_Value(t *testing.T) {
	r := New()

	got := r.Value(map[string]any{
		"user_id": "u1",
		"data": map[string]any{
			"qr_code":          "data:image/png;base64,AAAA",
			"manual_entry_key": "JBSWY3DPEHPK3PXP",
		},
		"items": []any{map[string]any{"code": "123456"}},
	})

	assert.Equal(t, map[string]any{
		"user_id": "u1",
		"data": map[string]any{
			"qr_code":          Placeholder,
			"manual_entry_key": Placeholder,
		},
		"items": []any{map[string]any{"code": Placeholder}},
	}, got)

	assert.Equal(t, map[string]any{"secret": Placeholder, "id": "x"}, r.Value(map[string]string{"secret": "s", "id": "x"}))
	assert.Equal(t, 42, r.Value(42))
}

func TestRedactor_JSON(t *testing.T) {
	r := New()

	out, ok := r.JSON([]byte(`{"challenge_token":"abc","code":"000000"}`))
	require.True(t, ok)
	assert.JSONEq(t, `{"challenge_token":"[REDACTED]","code":"[REDACTED]"}`, string(out))

	_, ok = r.JSON([]byte("plain text"))
	assert.False(t, ok)

	_, ok = r.JSON([]byte("{broken"))
	assert.False(t, ok)
}

func TestRedactor_HeaderAndForm(t *testing.T) {
	r := New()

	h := http.Header{}
	h.Set("Authorization", "Bearer token")
	h.Set("Content-Type", "application/json")

	got := r.Header(h)
	assert.Equal(t, Placeholder, got.Get("Authorization"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer token", h.Get("Authorization"))

	form := r.Form(url.Values{"password": {"p"}, "email": {"a@b.c"}, "tag": {"x", "y"}})
	assert.Equal(t, map[string]any{"password": Placeholder, "email": "a@b.c", "tag": []string{"x", "y"}}, form)
}
