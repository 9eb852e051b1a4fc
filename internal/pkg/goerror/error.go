// Package goerror carries the error taxonomy shared by every layer: usecases
// return *Error values and the router turns them into JSON error envelopes.
//
// The client only ever sees Msg and Fields. The wrapped cause stays available
// to errors.Is and to logs, so it must never contain secret material such as a
// TOTP secret or a submitted code.
package goerror

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

var typeNames = map[Type]string{
	TypeServer:     "ERROR_TYPE_SERVER",
	TypeBusiness:   "ERROR_TYPE_BUSINESS",
	TypeValidation: "ERROR_TYPE_VALIDATION",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "ERROR_TYPE_UNKNOWN"
}

// Code is a stable identifier mapped to an HTTP status.
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeUnauthorized
	// CodeFailedPrecondition means the request is well formed but the account
	// is not in a state that allows it, e.g. no second factor was set up.
	CodeFailedPrecondition
)

type codeInfo struct {
	name   string
	status int
}

var codes = map[Code]codeInfo{
	CodeInternal:           {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:      {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:       {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeNotFound:           {"ERROR_CODE_NOT_FOUND", http.StatusNotFound},
	CodeConflict:           {"ERROR_CODE_CONFLICT", http.StatusConflict},
	CodeUnauthorized:       {"ERROR_CODE_UNAUTHORIZED", http.StatusUnauthorized},
	CodeFailedPrecondition: {"ERROR_CODE_FAILED_PRECONDITION", http.StatusBadRequest},
}

func (c Code) info() codeInfo {
	if info, ok := codes[c]; ok {
		return info
	}
	return codes[CodeInternal]
}

func (c Code) String() string { return c.info().name }

// Error is the structured error returned by usecases.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error returns the cause when present, otherwise the client message.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String is a verbose form for debugging.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v", e.errType, e.code, e.msg, e.err)
}

// LogValue renders the error as a group so log lines keep type and code apart
// from the message.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("type", e.errType.String()),
		slog.String("code", e.code.String()),
		slog.String("msg", e.msg),
	}
	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}
	return slog.GroupValue(attrs...)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int { return e.code.info().status }

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return &Error{err: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

// NewBusiness creates a business rule violation shown to the client as msg.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewBusinessCause is NewBusiness that keeps cause reachable through errors.Is
// and errors.As.
func NewBusinessCause(cause error, msg string, code Code) error {
	return &Error{err: cause, msg: msg, errType: TypeBusiness, code: code}
}

// NewInvalidInput wraps a validator error, or builds field errors from
// key/value pairs. An odd number of pairs is reported as an invalid body.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	fields := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: fields}
}

// NewInvalidFormat reports a body that could not be decoded; msgs[0], when
// given, replaces the default message.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
