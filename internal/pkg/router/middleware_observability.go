package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/redact"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBody = 16 << 10

func matchedRoutePath(r *http.Request) string {
	if route := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); route != "" {
		return route
	}
	return r.URL.Path
}

// responseRecorder keeps the status, size and a bounded copy of the body.
type responseRecorder struct {
	http.ResponseWriter
	status    int
	size      int
	body      bytes.Buffer
	truncated bool
	err       error
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	keep := p
	if room := maxLoggedBody - w.body.Len(); len(keep) > room {
		keep = keep[:max(room, 0)]
		w.truncated = true
	}
	w.body.Write(keep)

	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

// SetError lets the router hand the handler error to the span.
func (w *responseRecorder) SetError(err error) { w.err = err }

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *responseRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// bodyLogger renders payloads for logs with credential fields redacted.
type bodyLogger struct {
	enabled  bool
	redactor *redact.Redactor
}

// request reads up to maxLoggedBody bytes and puts them back in front of the
// remaining stream.
func (b bodyLogger) request(r *http.Request) any {
	if !b.enabled || r.Body == nil {
		return nil
	}

	//nolint:errcheck // best effort, the handler reports read errors
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	truncated := len(head) > maxLoggedBody
	if truncated {
		head = head[:maxLoggedBody]
	}
	return b.render(r.Header.Get("Content-Type"), head, truncated)
}

func (b bodyLogger) response(w *responseRecorder) any {
	if !b.enabled {
		return nil
	}
	return b.render(w.Header().Get("Content-Type"), w.body.Bytes(), w.truncated)
}

func (b bodyLogger) render(contentType string, body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}

	var out, decoded any
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case !truncated && json.Unmarshal(body, &decoded) == nil:
		out = b.redactor.Value(decoded)
	case mediaType == "application/x-www-form-urlencoded":
		if values, err := url.ParseQuery(string(body)); err == nil {
			out = b.redactor.Form(values)
		}
	}

	if out == nil {
		if !utf8.Valid(body) {
			return "<binary body omitted>"
		}
		out = string(body)
	}
	if truncated {
		return map[string]any{"body": out, "truncated": true}
	}
	return out
}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter) httpMetrics {
	var m httpMetrics
	var err error

	m.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	m.duration, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return m
}

func (m httpMetrics) record(r *http.Request, elapsed time.Duration, attrs []attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if m.requests != nil {
		m.requests.Add(r.Context(), 1, opt)
	}
	if m.duration != nil {
		m.duration.Record(r.Context(), float64(elapsed.Microseconds())/1000, opt)
	}
}

// middlewareObservability opens the server span, logs request and response and
// records the HTTP metrics. Bodies are logged when instrument.log_http_body is set.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	bodies := bodyLogger{redactor: redact.New()}
	if cfg != nil {
		bodies.enabled = cfg.GetBool("instrument.log_http_body")
		bodies.redactor = redact.New(cfg.GetArray("instrument.log_mask_fields")...)
	}
	tracer := ins.Tracer("http.server")
	metrics := newHTTPMetrics(ins.Meter("http.server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)

			// continue a trace started upstream, if any
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.NetworkProtocolVersionKey.String(r.Proto),
					semconv.ServerAddressKey.String(r.Host),
					semconv.UserAgentOriginal(r.UserAgent()),
				),
			)
			defer span.End()
			r = r.WithContext(ctx)

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.URL.RequestURI(),
				"headers", bodies.redactor.Header(r.Header),
				"body", bodies.request(r),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			status := rec.statusCode()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(attribute.Int("http.response_content_length", rec.size))
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}
			metrics.record(r, elapsed, attrs)

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.size,
				"latency_ms", elapsed.Milliseconds(),
				"body", bodies.response(rec),
			)
		})
	}
}
