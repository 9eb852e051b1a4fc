package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

type stubJWT struct{}

func (stubJWT) Verify(token string) (jwt.Claims, error) {
	if token != "good" && token != "revoked" {
		return jwt.Claims{}, jwt.ErrInvalidToken
	}
	clm := jwt.Claims{UserID: "u1"}
	clm.ID = token
	return clm, nil
}

type stubDenylist struct{}

func (stubDenylist) Revoke(context.Context, string, time.Time) error { return nil }

func (stubDenylist) IsRevoked(_ context.Context, id string) (bool, error) {
	return id == "revoked", nil
}

type stubID struct{}

func (stubID) Generate() string { return "generated-cid" }

type createdResp struct {
	ID string `json:"id"`
}

func (createdResp) StatusCode() int { return http.StatusCreated }
func (createdResp) Message() string { return "created" }

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(`
app:
  maintenance:
    endpoints: /api/v1/down
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	r := NewRouter(Config{
		Config:     cfg,
		UUID:       stubID{},
		JWT:        stubJWT{},
		Denylist:   stubDenylist{},
		Instrument: instrument.NewNoop(),
	})

	r.GET("/api/v1/me", func(req *Request) (any, error) {
		return map[string]string{"user_id": jwt.GetAuth(req.Context()).UserID}, nil
	})
	r.POST("/api/v1/open", func(req *Request) (any, error) {
		var body struct {
			Name string `json:"name"`
		}
		if err := req.DecodeBody(&body); err != nil {
			return nil, err
		}
		return createdResp{ID: body.Name}, nil
	})
	r.Public(http.MethodPost, "/api/v1/open")
	r.GET("/api/v1/fail", func(*Request) (any, error) {
		return nil, goerror.NewBusiness("invalid verification code", goerror.CodeUnauthorized)
	})
	r.Public(http.MethodGet, "/api/v1/fail")
	r.GET("/api/v1/boom", func(*Request) (any, error) {
		return nil, errors.New("raw")
	})
	r.Public(http.MethodGet, "/api/v1/boom")
	r.GET("/api/v1/panic", func(*Request) (any, error) {
		panic("kaboom")
	})
	r.Public(http.MethodGet, "/api/v1/panic")
	r.GET("/api/v1/down", func(*Request) (any, error) { return map[string]string{}, nil })
	r.Public(http.MethodGet, "/api/v1/down")

	return r
}

func do(t *testing.T, h http.Handler, method, path, body, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestRouter_Authentication(t *testing.T) {
	r := newTestRouter(t)

	rec, _ := do(t, r, http.MethodGet, "/api/v1/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec, _ = do(t, r, http.MethodGet, "/api/v1/me", "", "bad")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}

	rec, _ = do(t, r, http.MethodGet, "/api/v1/me", "", "revoked")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with revoked token, got %d", rec.Code)
	}

	rec, out := do(t, r, http.MethodGet, "/api/v1/me", "", "good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := out["data"].(map[string]any)
	if data["user_id"] != "u1" {
		t.Fatalf("unexpected data: %v", out)
	}
	if rec.Header().Get(HeaderCorrelationID) != "generated-cid" {
		t.Fatalf("missing correlation id header")
	}
}

func TestRouter_Envelope(t *testing.T) {
	r := newTestRouter(t)

	rec, out := do(t, r, http.MethodPost, "/api/v1/open", `{"name":"x"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if out["message"] != "created" {
		t.Fatalf("unexpected message: %v", out)
	}

	rec, _ = do(t, r, http.MethodPost, "/api/v1/open", `{"name":"x","extra":1}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}

	rec, out = do(t, r, http.MethodGet, "/api/v1/fail", "", "")
	if rec.Code != http.StatusUnauthorized || out["message"] != "invalid verification code" {
		t.Fatalf("unexpected business error: %d %v", rec.Code, out)
	}

	rec, out = do(t, r, http.MethodGet, "/api/v1/boom", "", "")
	if rec.Code != http.StatusInternalServerError || out["message"] != "Internal server error" {
		t.Fatalf("unexpected raw error mapping: %d %v", rec.Code, out)
	}
}

func TestRouter_RecoverAndMaintenance(t *testing.T) {
	r := newTestRouter(t)

	rec, out := do(t, r, http.MethodGet, "/api/v1/panic", "", "")
	if rec.Code != http.StatusInternalServerError || out["message"] != "Internal server error" {
		t.Fatalf("unexpected panic response: %d %v", rec.Code, out)
	}

	rec, _ = do(t, r, http.MethodGet, "/api/v1/down", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 in maintenance, got %d", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	ready := false
	r := NewRouter(Config{
		UUID:       stubID{},
		JWT:        stubJWT{},
		Instrument: instrument.NewNoop(),
		Ready:      func() bool { return ready },
	})

	rec, _ := do(t, r, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", rec.Code)
	}

	ready = true
	rec, _ = do(t, r, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 when ready, got %d", rec.Code)
	}
}
