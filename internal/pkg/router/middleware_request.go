package router

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
)

const (
	// HeaderCorrelationID is echoed on every response and attached to every log line.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is accepted from proxies that do not set HeaderCorrelationID.
	HeaderRequestID = "X-Request-ID"

	maxCorrelationIDLen = 128
)

// proxyHeaders are consulted, in order, only when app.server.trust_proxy_headers is set.
var proxyHeaders = []string{"True-Client-IP", "X-Real-IP", "X-Forwarded-For"}

// middlewareRequestContext stores the caller address and the correlation ID in
// the request context.
func middlewareRequestContext(cfg config.Config, ids uid.StringID) Middleware {
	trustProxy := cfg != nil && cfg.GetBool("app.server.trust_proxy_headers")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if ip := clientIP(r, trustProxy); ip != "" {
				r.RemoteAddr = ip
				ctx = instrument.SetClientIP(ctx, ip)
			}

			cid := correlationID(r.Header.Get(HeaderCorrelationID))
			if cid == "" {
				cid = correlationID(r.Header.Get(HeaderRequestID))
			}
			if cid == "" && ids != nil {
				cid = ids.Generate()
			}
			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				ctx = instrument.SetCorrelationID(ctx, cid)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for _, name := range proxyHeaders {
			first, _, _ := strings.Cut(r.Header.Get(name), ",")
			if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
				return addr.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.String()
	}
	return ""
}

// correlationID drops values that could split a log or header line.
func correlationID(v string) string {
	if strings.ContainsAny(v, "\r\n") {
		return ""
	}
	v = strings.TrimSpace(v)
	if len(v) > maxCorrelationIDLen {
		v = v[:maxCorrelationIDLen]
	}
	return v
}
