package otp_test

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// "12345678901234567890" in Base32, the RFC 6238 appendix B SHA1 seed.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func newEngine() *otp.TOTP {
	return otp.NewTOTP(otp.Config{Period: 30 * time.Second, Digits: 6, Window: 2})
}

func TestTOTP_ComputeCode_RFCVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unix int64
		want string
	}{
		{unix: 59, want: "287082"},
		{unix: 1111111109, want: "081804"},
		{unix: 1111111111, want: "050471"},
		{unix: 1234567890, want: "005924"},
		{unix: 2000000000, want: "279037"},
	}

	e := newEngine()
	for _, tc := range tests {
		got, err := e.ComputeCode(rfcSecret, time.Unix(tc.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "unix=%d", tc.unix)
	}
}

func TestTOTP_ComputeCode_ZeroPadded(t *testing.T) {
	t.Parallel()

	code, err := newEngine().ComputeCode(rfcSecret, time.Unix(1234567890, 0))
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, "00", code[:2])
}

func TestTOTP_GenerateSecret(t *testing.T) {
	t.Parallel()

	e := newEngine()
	seen := make(map[string]struct{}, 10000)
	for range 10000 {
		raw, err := e.GenerateSecret()
		require.NoError(t, err)
		require.Len(t, raw, otp.SecretSize)

		encoded := e.EncodeSecret(raw)
		require.Len(t, encoded, 32)

		_, dup := seen[encoded]
		require.False(t, dup, "duplicate secret generated")
		seen[encoded] = struct{}{}
	}
}

func TestTOTP_VerifyCode_RoundTrip(t *testing.T) {
	t.Parallel()

	e := newEngine()
	raw, err := e.GenerateSecret()
	require.NoError(t, err)
	secret := e.EncodeSecret(raw)

	now := time.Unix(1_700_000_000, 0)
	code, err := e.ComputeCode(secret, now)
	require.NoError(t, err)

	res, err := e.VerifyCode(secret, code, now)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 0, res.MatchedStep)
	assert.Equal(t, uint64(1_700_000_000/30), res.MatchedCounter)
}

func TestTOTP_VerifyCode_Window(t *testing.T) {
	t.Parallel()

	e := newEngine()
	// Aligned to the start of a step.
	base := time.Unix(1_700_000_010, 0)

	tests := []struct {
		name     string
		codeAt   time.Time
		verifyAt time.Time
		valid    bool
		step     int
	}{
		{name: "next step accepted", codeAt: base.Add(30 * time.Second), verifyAt: base, valid: true, step: 1},
		{name: "previous step accepted", codeAt: base, verifyAt: base.Add(30 * time.Second), valid: true, step: -1},
		{name: "two steps ahead accepted", codeAt: base.Add(60 * time.Second), verifyAt: base, valid: true, step: 2},
		{name: "two steps behind accepted", codeAt: base, verifyAt: base.Add(60 * time.Second), valid: true, step: -2},
		{name: "three steps ahead rejected", codeAt: base.Add(90 * time.Second), verifyAt: base, valid: false},
		{name: "three steps behind rejected", codeAt: base, verifyAt: base.Add(90 * time.Second), valid: false},
		{name: "61s ahead from last second of a step rejected", codeAt: base.Add(29*time.Second + 61*time.Second), verifyAt: base.Add(29 * time.Second), valid: false},
		{name: "91s ahead always rejected", codeAt: base.Add(7*time.Second + 91*time.Second), verifyAt: base.Add(7 * time.Second), valid: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			code, err := e.ComputeCode(rfcSecret, tc.codeAt)
			require.NoError(t, err)

			res, err := e.VerifyCode(rfcSecret, code, tc.verifyAt)
			require.NoError(t, err)
			assert.Equal(t, tc.valid, res.Valid)
			if tc.valid {
				assert.Equal(t, tc.step, res.MatchedStep)
			}
		})
	}
}

func TestTOTP_VerifyCode_MalformedCode(t *testing.T) {
	t.Parallel()

	e := newEngine()
	now := time.Unix(59, 0)

	for _, code := range []string{"", "28708", "2870822", "28708a", "abcdef", " 287 082"} {
		res, err := e.VerifyCode(rfcSecret, code, now)
		require.NoError(t, err, "code=%q", code)
		assert.False(t, res.Valid, "code=%q", code)
	}

	res, err := e.VerifyCode(rfcSecret, " 287082 ", now)
	require.NoError(t, err)
	assert.True(t, res.Valid, "surrounding whitespace is trimmed")
}

func TestTOTP_InvalidSecret(t *testing.T) {
	t.Parallel()

	e := newEngine()
	for _, secret := range []string{"", "   ", "not-base32!", "A"} {
		_, err := e.ComputeCode(secret, time.Now())
		assert.ErrorIs(t, err, otp.ErrInvalidSecret, "secret=%q", secret)

		_, err = e.VerifyCode(secret, "123456", time.Now())
		assert.ErrorIs(t, err, otp.ErrInvalidSecret, "secret=%q", secret)
	}
}

func TestTOTP_SecretIsCaseAndPaddingInsensitive(t *testing.T) {
	t.Parallel()

	e := newEngine()
	at := time.Unix(59, 0)

	lower, err := e.ComputeCode("gezdgnbvgy3tqojqgezdgnbvgy3tqojq", at)
	require.NoError(t, err)
	assert.Equal(t, "287082", lower)

	padded, err := e.ComputeCode("JBSWY3DPEHPK3PXP====", at)
	require.NoError(t, err)
	plain, err := e.ComputeCode("JBSWY3DPEHPK3PXP", at)
	require.NoError(t, err)
	assert.Equal(t, plain, padded)
}

func TestTOTP_ProvisioningURI(t *testing.T) {
	t.Parallel()

	e := newEngine()

	tests := []struct {
		name    string
		issuer  string
		account string
		secret  string
		want    string
	}{
		{
			name:    "plain email account",
			issuer:  "Demo",
			account: "a@b.com",
			secret:  "JBSWY3DPEHPK3PXP",
			want:    "otpauth://totp/Demo:a@b.com?secret=JBSWY3DPEHPK3PXP&issuer=Demo&digits=6&period=30",
		},
		{
			name:    "spaces and separators are escaped",
			issuer:  "Two Factor:Demo",
			account: "jane doe",
			secret:  "JBSWY3DPEHPK3PXP",
			want:    "otpauth://totp/Two%20Factor%3ADemo:jane%20doe?secret=JBSWY3DPEHPK3PXP&issuer=Two%20Factor%3ADemo&digits=6&period=30",
		},
		{
			name:    "query reserved characters in issuer",
			issuer:  "A&B=C",
			account: "user",
			secret:  "JBSWY3DPEHPK3PXP",
			want:    "otpauth://totp/A&B=C:user?secret=JBSWY3DPEHPK3PXP&issuer=A%26B%3DC&digits=6&period=30",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, e.ProvisioningURI(tc.issuer, tc.account, tc.secret))
		})
	}
}

func TestNewTOTP_Defaults(t *testing.T) {
	t.Parallel()

	e := otp.NewTOTP(otp.Config{Digits: 7})
	assert.Equal(t, 30*time.Second, e.Period())
	assert.Equal(t, 6, e.Digits())
	assert.Equal(t, 2, e.Window())
}

func TestTOTP_GenerateSecret_EntropyFailure(t *testing.T) {
	t.Parallel()

	e := otp.NewTOTPWithRand(otp.Config{}, iotest.ErrReader(errors.New("boom")))
	_, err := e.GenerateSecret()
	assert.ErrorIs(t, err, otp.ErrEntropy)

	e = otp.NewTOTPWithRand(otp.Config{}, bytes.NewReader(bytes.Repeat([]byte{0x01}, otp.SecretSize)))
	raw, err := e.GenerateSecret()
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x01}, otp.SecretSize), raw)
}
