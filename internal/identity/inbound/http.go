package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/twofa/internal/identity/usecase"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/identity/register", end.Register)
	r.POST("/api/v1/identity/login", end.Login)
	r.Public(http.MethodPost, "/api/v1/identity/register")
	r.Public(http.MethodPost, "/api/v1/identity/login")

	// need authenticated
	r.POST("/api/v1/identity/logout", end.Logout)
	r.GET("/api/v1/identity/profile", end.Profile)
}
