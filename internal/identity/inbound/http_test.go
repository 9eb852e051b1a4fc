package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/twofa/internal/identity/usecase"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUC struct {
	login     usecase.LoginInput
	loggedOut bool
}

func (s *stubUC) Register(_ context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	if in.Email == "taken@example.com" {
		return nil, goerror.NewBusiness("email already registered", goerror.CodeConflict)
	}
	return &usecase.RegisterOutput{UserID: "u1", AccessToken: "tok", TokenType: "Bearer"}, nil
}

func (s *stubUC) Login(_ context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error) {
	s.login = in
	if in.Email == "mfa@example.com" {
		return &usecase.LoginOutput{MfaRequired: true, ChallengeToken: "chal"}, nil
	}
	return &usecase.LoginOutput{AccessToken: "tok", TokenType: "Bearer", ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (s *stubUC) Logout(context.Context) error {
	s.loggedOut = true
	return nil
}

func (s *stubUC) Profile(ctx context.Context) (*usecase.ProfileOutput, error) {
	clm := jwt.GetAuth(ctx)
	return &usecase.ProfileOutput{ID: clm.UserID, Email: "a@example.com", TwoFactorEnabled: true, Methods: clm.Methods}, nil
}

type stubJWT struct{}

func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	return jwt.Claims{UserID: "u1", Methods: []string{jwt.MethodPassword, jwt.MethodOTP}}, nil
}

type stubID struct{}

func (stubID) Generate() string { return "cid" }

func serve(t *testing.T, method, path, body, token string) (*stubUC, int, map[string]any) {
	t.Helper()

	r := router.NewRouter(router.Config{UUID: stubID{}, JWT: stubJWT{}, Instrument: instrument.NewNoop()})
	uc := &stubUC{}
	RegisterHTTPEndpoint(r, uc)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return uc, rec.Code, out
}

func TestRegister(t *testing.T) {
	_, code, out := serve(t, http.MethodPost, "/api/v1/identity/register", `{"email":"new@example.com","password":"Secret123!"}`, "")
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "u1", out["data"].(map[string]any)["user_id"])

	_, code, _ = serve(t, http.MethodPost, "/api/v1/identity/register", `{"email":"taken@example.com","password":"Secret123!"}`, "")
	assert.Equal(t, http.StatusConflict, code)

	_, code, _ = serve(t, http.MethodPost, "/api/v1/identity/register", `{"email":"x","unknown":1}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogin(t *testing.T) {
	uc, code, out := serve(t, http.MethodPost, "/api/v1/identity/login", `{"email":"a@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, usecase.LoginInput{Email: "a@example.com", Password: "pw"}, uc.login)
	data := out["data"].(map[string]any)
	assert.Equal(t, "tok", data["access_token"])
	assert.NotContains(t, data, "mfa_required")
	assert.NotContains(t, data, "challenge_token")

	_, code, out = serve(t, http.MethodPost, "/api/v1/identity/login", `{"email":"mfa@example.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, code)
	data = out["data"].(map[string]any)
	assert.Equal(t, true, data["mfa_required"])
	assert.Equal(t, "chal", data["challenge_token"])
	assert.NotContains(t, data, "access_token")
	assert.NotContains(t, data, "expires_at")
}

func TestAuthenticatedRoutes(t *testing.T) {
	_, code, _ := serve(t, http.MethodGet, "/api/v1/identity/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	_, code, out := serve(t, http.MethodGet, "/api/v1/identity/profile", "", "good")
	require.Equal(t, http.StatusOK, code)
	data := out["data"].(map[string]any)
	assert.Equal(t, "u1", data["id"])
	assert.Equal(t, true, data["two_factor_enabled"])
	assert.Equal(t, []any{"pwd", "otp"}, data["auth_methods"])

	uc, code, _ := serve(t, http.MethodPost, "/api/v1/identity/logout", "", "good")
	assert.Equal(t, http.StatusNoContent, code)
	assert.True(t, uc.loggedOut)
}
