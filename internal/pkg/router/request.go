package router

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
)

// maxBodyBytes bounds JSON request bodies; every payload here is a handful of short fields.
const maxBodyBytes = 64 << 10

// Request is what inbound handlers receive.
type Request struct {
	*http.Request
}

// DecodeBody reads exactly one JSON object into dst. Unknown fields, trailing
// data, a non-JSON content type and oversized bodies are all format errors.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return goerror.NewInvalidFormat("Content-Type must be application/json")
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return goerror.NewInvalidFormat("Request body too large")
		}
		return goerror.NewInvalidFormat()
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}
