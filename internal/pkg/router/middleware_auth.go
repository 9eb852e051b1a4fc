package router

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

type publicEndpoints struct {
	mu     sync.RWMutex
	routes map[string]map[string]struct{}
}

func (p *publicEndpoints) add(method, path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.routes == nil {
		p.routes = make(map[string]map[string]struct{})
	}
	if p.routes[method] == nil {
		p.routes[method] = make(map[string]struct{})
	}
	p.routes[method][path] = struct{}{}
}

func (p *publicEndpoints) has(method, path string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.routes[method][path]
	return ok
}

func middlewareAuthentication(verifier jwt.Verifier, denylist jwt.Denylist, public *publicEndpoints) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public.has(r.Method, matchedRoutePath(r)) {
				next.ServeHTTP(w, r)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			if denylist != nil {
				revoked, err := denylist.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					slog.ErrorContext(r.Context(), "failed to check token revocation", "user_id", claims.UserID, "error", err)
					writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
					return
				}
				if revoked {
					writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
					return
				}
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
