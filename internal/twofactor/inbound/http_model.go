package inbound

import "time"

type EnrollResponse struct {
	QRCode         string `json:"qr_code,omitempty"`
	ManualEntryKey string `json:"manual_entry_key,omitempty"`
	Fallback       bool   `json:"fallback"`
}

func (EnrollResponse) Message() string {
	return "Scan the QR code with your authenticator app."
}

type StatusResponse struct {
	Provisioned bool `json:"provisioned"`
	Enabled     bool `json:"enabled"`
}

type VerifyCodeRequest struct {
	Code string `json:"code"`
}

type VerifyCodeResponse struct {
	Valid bool `json:"valid"`
}

func (VerifyCodeResponse) Message() string {
	return "Verification code is valid."
}

type VerifyChallengeRequest struct {
	ChallengeToken string `json:"challenge_token"`
	Code           string `json:"code"`
}

type VerifyChallengeResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ResendCodeRequest struct {
	ChallengeToken string `json:"challenge_token"`
}

type ResendCodeResponse struct {
	Code string `json:"code"`
}
