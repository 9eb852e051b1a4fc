// Package router serves the JSON API: httprouter for matching, a fixed
// middleware chain and envelope encoding for handler results.
package router

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
)

// Handler returns a payload for the success envelope or an error for the
// error envelope.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	Config config.Config
	// UUID generates correlation IDs for requests that arrive without one.
	UUID uid.StringID
	JWT  jwt.Verifier
	// Denylist rejects tokens revoked by logout. Optional.
	Denylist   jwt.Denylist
	Instrument instrument.Instrumentation
	// Ready backs GET /health; nil means always ready.
	Ready func() bool
}

// Router is an http.Handler over httprouter with the application middleware.
type Router struct {
	hr     *httprouter.Router
	mws    []Middleware
	public *publicEndpoints
}

// NewRouter builds the router. Every endpoint requires a bearer token unless
// it is registered with Public.
func NewRouter(cfg Config) *Router {
	hr := httprouter.New()
	hr.SaveMatchedRoutePath = true
	hr.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
	})
	hr.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
	})
	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		if cfg.Ready != nil && !cfg.Ready() {
			writeJSON(w, errorResponse{Message: "not ready"}, http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, successResponse{Message: "ok"}, http.StatusOK)
	})

	public := &publicEndpoints{}
	return &Router{
		hr:     hr,
		public: public,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareRequestContext(cfg.Config, cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, cfg.Denylist, public),
		},
	}
}

// GET registers a GET endpoint.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodGet, path, h, mws)
}

// POST registers a POST endpoint.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.handle(http.MethodPost, path, h, mws)
}

// Public lets method+path through without a bearer token.
func (r *Router) Public(method, path string) {
	r.public.add(method, path)
}

func (r *Router) handle(method, path string, h Handler, extra []Middleware) {
	endpoint := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})

	mws := make([]Middleware, 0, len(r.mws)+len(extra))
	mws = append(append(mws, r.mws...), extra...)
	r.hr.Handler(method, path, Chain(endpoint, mws...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}
