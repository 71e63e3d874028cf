// Package failure defines the error values raised inside the gateway
// pipeline. Each one reports its taxonomy tag so the dispatcher can resolve a
// handler without guessing.
//
// Handlers and filters signal a failure by calling c.Error(err) on the gin
// context (or returning the error from a proxy hook); the boundary adapter
// picks it up from there.
package failure

import (
	"fmt"
	"net/http"

	"github.com/tbourn/go-gateway-errors/internal/codes"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

// GatewayError is an application error that already knows which code and
// message the client should see.
type GatewayError struct {
	Code    string
	Message string
	Cause   error
}

// New returns a GatewayError for a catalog entry.
func New(ec codes.ErrorCode) *GatewayError {
	return &GatewayError{Code: ec.Code, Message: ec.Message}
}

// Newf returns a GatewayError with an explicit code and formatted message.
func Newf(code, format string, args ...any) *GatewayError {
	return &GatewayError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a GatewayError for ec that records cause for logging.
func Wrap(ec codes.ErrorCode, cause error) *GatewayError {
	return &GatewayError{Code: ec.Code, Message: ec.Message, Cause: cause}
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error   { return e.Cause }
func (*GatewayError) Tag() taxonomy.Tag { return taxonomy.Gateway }

// StatusError is an HTTP-level failure reported by the framework itself:
// no route, method not allowed, rate limited, body too large.
type StatusError struct {
	Status int
	Reason string
}

// Status returns a StatusError. An empty reason falls back to the standard
// status text.
func Status(status int, reason string) *StatusError {
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &StatusError{Status: status, Reason: reason}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Reason)
}

func (*StatusError) Tag() taxonomy.Tag { return taxonomy.Status }

// PanicError carries a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

// Panic wraps a recovered value and the goroutine stack at recovery time.
func Panic(value any, stack []byte) *PanicError {
	return &PanicError{Value: value, Stack: stack}
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func (*PanicError) Tag() taxonomy.Tag { return taxonomy.Panic }
