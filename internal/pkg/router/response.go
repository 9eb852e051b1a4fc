package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
)

const defaultSuccessMessage = "request has been successfully"

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// statusCoder lets a response choose its HTTP status, e.g. 201 on register.
type statusCoder interface {
	StatusCode() int
}

// messager overrides the default success message.
type messager interface {
	Message() string
}

// writeError renders err as an error envelope. Anything that is not a
// *goerror.Error is reported as a bare 500 so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}
	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

// writeSuccess wraps resp in the success envelope; a nil resp or a 204 status
// produces an empty body.
func writeSuccess(w http.ResponseWriter, resp any) {
	status := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		status = sc.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := defaultSuccessMessage
	if m, ok := resp.(messager); ok {
		msg = m.Message()
	}

	writeJSON(w, successResponse{Message: msg, Data: resp}, status)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("router: failed to encode response", "error", err)
	}
}
