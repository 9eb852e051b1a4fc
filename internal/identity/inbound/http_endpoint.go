package inbound

import (
	"github.com/shandysiswandi/twofa/internal/identity/usecase"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for account and session endpoints.
type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{
		UserID:      resp.UserID,
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

// Login checks the password and either returns a session or, for users with
// two-factor enabled, a challenge token to finish at /twofactor/challenge/verify.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	if resp.MfaRequired {
		return LoginResponse{MfaRequired: true, ChallengeToken: resp.ChallengeToken}, nil
	}

	return LoginResponse{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresAt:   &resp.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	return nil, h.uc.Logout(r.Context())
}

func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:               resp.ID,
		UserName:         resp.UserName,
		Email:            resp.Email,
		CreatedAt:        resp.CreatedAt,
		TwoFactorEnabled: resp.TwoFactorEnabled,
		AuthMethods:      resp.Methods,
	}, nil
}
