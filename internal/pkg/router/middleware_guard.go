package router

import (
	"log/slog"
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/stacktrace"
)

func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			//nolint:err113,errorlint // sentinel must be re-raised as is
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			slog.ErrorContext(r.Context(), "panic while serving request",
				"route", matchedRoutePath(r),
				"because", rvr,
				"stack", stacktrace.Capture(),
			)
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}

// middlewareMaintenance answers 503 for the routes listed in
// app.maintenance.endpoints, or for every route when app.maintenance.enabled.
func middlewareMaintenance(cfg config.Config) Middleware {
	var all bool
	var routes map[string]struct{}
	if cfg != nil {
		all = cfg.GetBool("app.maintenance.enabled")
		routes = lo.SliceToMap(cfg.GetArray("app.maintenance.endpoints"), func(route string) (string, struct{}) {
			return route, struct{}{}
		})
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, blocked := routes[matchedRoutePath(r)]; all || blocked {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
