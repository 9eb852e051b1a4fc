package inbound

import (
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/twofactor/usecase"
)

// HTTPEndpoint exposes HTTP handlers for enrollment and the login challenge.
type HTTPEndpoint struct {
	uc uc
}

// Enroll issues a new secret for the caller and returns it as a QR data URI.
func (h *HTTPEndpoint) Enroll(r *router.Request) (any, error) {
	resp, err := h.uc.Enroll(r.Context())
	if err != nil {
		return nil, err
	}

	return EnrollResponse{
		QRCode:         resp.QRCode,
		ManualEntryKey: resp.ManualEntryKey,
		Fallback:       resp.Fallback,
	}, nil
}

func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	resp, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{Provisioned: resp.Provisioned, Enabled: resp.Enabled}, nil
}

func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return VerifyCodeResponse{Valid: true}, nil
}

// VerifyChallenge completes a login started with a password and returns the session.
func (h *HTTPEndpoint) VerifyChallenge(r *router.Request) (any, error) {
	var req VerifyChallengeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyChallenge(r.Context(), usecase.VerifyChallengeInput{
		ChallengeToken: req.ChallengeToken,
		Code:           req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyChallengeResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) ResendCode(r *router.Request) (any, error) {
	var req ResendCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ResendCode(r.Context(), usecase.ResendCodeInput{ChallengeToken: req.ChallengeToken})
	if err != nil {
		return nil, err
	}

	return ResendCodeResponse{Code: resp.Code}, nil
}
