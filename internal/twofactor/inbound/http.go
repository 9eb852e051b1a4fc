package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
	"github.com/shandysiswandi/twofa/internal/twofactor/usecase"
)

type uc interface {
	Enroll(ctx context.Context) (*usecase.EnrollOutput, error)
	Status(ctx context.Context) (*entity.Status, error)
	VerifyCode(ctx context.Context, in usecase.VerifyCodeInput) error

	VerifyChallenge(ctx context.Context, in usecase.VerifyChallengeInput) (*usecase.VerifyChallengeOutput, error)
	ResendCode(ctx context.Context, in usecase.ResendCodeInput) (*usecase.ResendCodeOutput, error)
}

// resendEnabled reports whether the debug resend route may be mounted. It is
// never mounted in production, whatever the flag says.
func resendEnabled(cfg config.Config) bool {
	return cfg.GetBool("modules.twofactor.debug_resend_code") &&
		cfg.GetString("app.env") != "production"
}

// RegisterHTTPEndpoint mounts the twofactor routes.
func RegisterHTTPEndpoint(r *router.Router, uc uc, cfg config.Config) {
	end := &HTTPEndpoint{uc: uc}

	// Enrollment (need authenticated)
	r.POST("/api/v1/twofactor/enroll", end.Enroll)
	r.GET("/api/v1/twofactor/status", end.Status)
	r.POST("/api/v1/twofactor/verify", end.VerifyCode)

	// Login challenge
	r.POST("/api/v1/twofactor/challenge/verify", end.VerifyChallenge)
	r.Public(http.MethodPost, "/api/v1/twofactor/challenge/verify")

	if resendEnabled(cfg) {
		r.POST("/api/v1/twofactor/challenge/resend", end.ResendCode)
		r.Public(http.MethodPost, "/api/v1/twofactor/challenge/resend")
	}
}
