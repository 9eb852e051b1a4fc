// Package redact hides credential-bearing fields from logs.
//
// Every payload of a sign-in flow carries something an operator must never see
// in plain text: passwords, TOTP codes, shared secrets, challenge and access
// tokens. Those names are always redacted; configuration can add more.
package redact

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Placeholder replaces every redacted value.
const Placeholder = "[REDACTED]"

// DefaultFields are redacted by every Redactor.
var DefaultFields = []string{
	"password",
	"code",
	"secret",
	"secret_key",
	"manual_entry_key",
	"qr_code",
	"challenge_token",
	"access_token",
	"authorization",
	"cookie",
}

// Redactor matches field names case-insensitively.
type Redactor struct {
	fields map[string]struct{}
}

// New builds a Redactor over DefaultFields plus extra. Blank names are ignored.
func New(extra ...string) *Redactor {
	r := &Redactor{fields: make(map[string]struct{}, len(DefaultFields)+len(extra))}
	for _, name := range slices.Concat(DefaultFields, extra) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			r.fields[name] = struct{}{}
		}
	}
	return r
}

// Match reports whether key names a redacted field.
func (r *Redactor) Match(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.fields[strings.ToLower(key)]
	return ok
}

// Value walks decoded JSON-like data and returns a copy with redacted fields
// replaced. Values of other types are returned unchanged.
func (r *Redactor) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if r.Match(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = r.Value(item)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if r.Match(k) {
				out[k] = Placeholder
				continue
			}
			out[k] = item
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.Value(item)
		}
		return out
	default:
		return v
	}
}

// JSON redacts an encoded JSON object or array. ok is false when payload is
// not JSON.
func (r *Redactor) JSON(payload []byte) (redacted []byte, ok bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, false
	}

	out, err := json.Marshal(r.Value(decoded))
	if err != nil {
		return nil, false
	}
	return out, true
}

// Header returns a copy of h with redacted header values replaced.
func (r *Redactor) Header(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if r.Match(key) {
			out.Set(key, Placeholder)
		}
	}
	return out
}

// Form flattens url-encoded values, redacting matched keys.
func (r *Redactor) Form(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for key, vals := range values {
		switch {
		case r.Match(key):
			out[key] = Placeholder
		case len(vals) == 1:
			out[key] = vals[0]
		default:
			out[key] = vals
		}
	}
	return out
}
