package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// SecretSize is the number of random bytes in a freshly generated secret.
const SecretSize = 20

const (
	defaultPeriod = 30 * time.Second
	defaultWindow = 2
)

var (
	// ErrInvalidSecret is returned when a stored secret is empty or not valid Base32.
	ErrInvalidSecret = errors.New("otp: secret is missing or malformed")

	// ErrEntropy is returned when the random source cannot provide secret bytes.
	ErrEntropy = errors.New("otp: entropy source unavailable")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// Engine defines the TOTP operations the flows depend on.
type Engine interface {
	GenerateSecret() ([]byte, error)
	EncodeSecret(secret []byte) string
	ComputeCode(secret string, at time.Time) (string, error)
	VerifyCode(secret, code string, at time.Time) (Verification, error)
	ProvisioningURI(issuer, account, secret string) string
	Period() time.Duration
	Digits() int
	Window() int
}

// Config holds the code policy. Zero values fall back to 30s, 6 digits and a
// window of two steps on each side.
type Config struct {
	Period time.Duration
	Digits int
	Window int
}

// Verification is the outcome of VerifyCode.
//
// MatchedStep is the step offset relative to the current step, in
// [-Window, +Window]. MatchedCounter is the absolute time-step counter of the
// match, which callers use to reject a second use of the same code.
// Both are meaningful only when Valid is true.
type Verification struct {
	Valid          bool
	MatchedStep    int
	MatchedCounter uint64
}

// TOTP implements Engine with HMAC-SHA1 codes as described by RFC 6238.
type TOTP struct {
	period uint64
	digits otp.Digits
	window int
	rand   io.Reader
}

// NewTOTP constructs a TOTP engine from cfg reading secrets from crypto/rand.
func NewTOTP(cfg Config) *TOTP {
	return NewTOTPWithRand(cfg, rand.Reader)
}

// NewTOTPWithRand is NewTOTP with an explicit random source.
func NewTOTPWithRand(cfg Config, random io.Reader) *TOTP {
	period := cfg.Period
	if period < time.Second {
		period = defaultPeriod
	}

	digits := otp.Digits(cfg.Digits)
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}

	return &TOTP{
		period: uint64(period / time.Second),
		digits: digits,
		window: window,
		rand:   random,
	}
}

// Period returns the step length.
func (t *TOTP) Period() time.Duration {
	return time.Duration(t.period) * time.Second
}

// Digits returns the code length.
func (t *TOTP) Digits() int {
	return t.digits.Length()
}

// Window returns the number of tolerated steps on each side of the current one.
func (t *TOTP) Window() int {
	return t.window
}

// GenerateSecret returns SecretSize bytes from the cryptographic random source.
func (t *TOTP) GenerateSecret() ([]byte, error) {
	secret := make([]byte, SecretSize)
	if _, err := io.ReadFull(t.rand, secret); err != nil {
		return nil, errors.Join(ErrEntropy, err)
	}

	return secret, nil
}

// EncodeSecret encodes raw secret bytes as unpadded RFC 4648 Base32.
func (t *TOTP) EncodeSecret(secret []byte) string {
	return b32.EncodeToString(secret)
}

// ComputeCode returns the code for the step containing at.
func (t *TOTP) ComputeCode(secret string, at time.Time) (string, error) {
	secret, err := normalizeSecret(secret)
	if err != nil {
		return "", err
	}

	return t.codeAt(secret, t.counter(at))
}

// VerifyCode checks code against every step in the window around at.
//
// All candidate codes are computed and compared in constant time even after
// a match so the duration does not reveal which offset matched. A malformed
// code is reported as invalid, a malformed secret as ErrInvalidSecret.
func (t *TOTP) VerifyCode(secret, code string, at time.Time) (Verification, error) {
	secret, err := normalizeSecret(secret)
	if err != nil {
		return Verification{}, err
	}

	code = strings.TrimSpace(code)
	wellFormed := t.wellFormed(code)

	current := t.counter(at)
	result := Verification{}
	for offset := -t.window; offset <= t.window; offset++ {
		if offset < 0 && current < uint64(-offset) {
			continue
		}
		counter := uint64(int64(current) + int64(offset))

		expected, err := t.codeAt(secret, counter)
		if err != nil {
			return Verification{}, err
		}

		match := subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
		if match && !result.Valid {
			result = Verification{Valid: true, MatchedStep: offset, MatchedCounter: counter}
		}
	}

	if !wellFormed {
		return Verification{}, nil
	}

	return result, nil
}

// ProvisioningURI builds the otpauth URI consumed by authenticator apps:
//
//	otpauth://totp/{issuer}:{account}?secret=..&issuer=..&digits=..&period=..
//
// The parameter order is fixed. Label parts are percent-encoded with ':'
// escaped so the issuer/account separator stays unambiguous.
func (t *TOTP) ProvisioningURI(issuer, account, secret string) string {
	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(escapeLabel(issuer))
	b.WriteByte(':')
	b.WriteString(escapeLabel(account))
	b.WriteString("?secret=")
	b.WriteString(escapeQuery(secret))
	b.WriteString("&issuer=")
	b.WriteString(escapeQuery(issuer))
	b.WriteString("&digits=")
	b.WriteString(strconv.Itoa(t.digits.Length()))
	b.WriteString("&period=")
	b.WriteString(strconv.FormatUint(t.period, 10))

	return b.String()
}

func (t *TOTP) counter(at time.Time) uint64 {
	unix := at.Unix()
	if unix < 0 {
		return 0
	}

	return uint64(unix) / t.period
}

func (t *TOTP) codeAt(secret string, counter uint64) (string, error) {
	code, err := hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    t.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", ErrInvalidSecret
	}

	return code, nil
}

func (t *TOTP) wellFormed(code string) bool {
	if len(code) != t.digits.Length() {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}

func normalizeSecret(secret string) (string, error) {
	secret = strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if secret == "" {
		return "", ErrInvalidSecret
	}

	raw, err := b32.DecodeString(secret)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidSecret
	}

	return secret, nil
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
