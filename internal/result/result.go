// Package result defines the uniform response envelope returned by the
// gateway for both successful and failed requests.
//
// Example:
//
//	{ "code": "21030", "message": "token expired", "data": null }
//
// Envelopes are created through the factory functions below and are never
// shared between requests.
package result

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-gateway-errors/internal/codes"
)

// ErrNotSuccess is wrapped by the assertion helpers when an envelope does not
// carry the success code.
var ErrNotSuccess = errors.New("result is not successful")

// Result is the response envelope.
type Result struct {
	// Stable, machine-readable code (see package codes)
	Code string `json:"code" example:"00000"`
	// Human-readable message
	Message string `json:"message" example:"success"`
	// Optional payload; serialised as null when absent
	Data any `json:"data" swaggertype:"object"`
}

func byCode(ec codes.ErrorCode) *Result {
	return &Result{Code: ec.Code, Message: ec.Message}
}

// Success returns a success envelope carrying data.
func Success(data any) *Result {
	r := byCode(codes.Success)
	r.Data = data
	return r
}

// SuccessEmpty returns a success envelope with no payload.
func SuccessEmpty() *Result { return byCode(codes.Success) }

// Failure returns a failure envelope for a catalog entry.
func Failure(ec codes.ErrorCode) *Result { return byCode(ec) }

// FailureCode returns a failure envelope with an explicit code and message.
func FailureCode(code, message string) *Result {
	return &Result{Code: code, Message: message}
}

// FailureWithData returns a failure envelope that also carries a payload.
func FailureWithData(code, message string, data any) *Result {
	r := FailureCode(code, message)
	r.Data = data
	return r
}

// WithData sets the payload of a success envelope and returns it. It is a
// no-op on failure envelopes.
func (r *Result) WithData(data any) *Result {
	if IsSuccess(r) {
		r.Data = data
	}
	return r
}

// String implements fmt.Stringer.
func (r *Result) String() string {
	if r == nil {
		return "Result{<nil>}"
	}
	return fmt.Sprintf("Result{code=%q, message=%q, data=%v}", r.Code, r.Message, r.Data)
}

// IsSuccess reports whether r is non-nil and carries the success code.
func IsSuccess(r *Result) bool {
	return r != nil && r.Code != "" && r.Code == codes.Success.Code
}

// AssertSuccess returns an error wrapping ErrNotSuccess with message when r
// is not a success envelope.
func AssertSuccess(r *Result, message string) error {
	if IsSuccess(r) {
		return nil
	}
	return fmt.Errorf("%s: %w", message, ErrNotSuccess)
}

// AssertSuccessFunc is like AssertSuccess but builds the message lazily.
// A nil supplier yields an empty message.
func AssertSuccessFunc(r *Result, message func() string) error {
	if IsSuccess(r) {
		return nil
	}
	msg := ""
	if message != nil {
		msg = message()
	}
	return fmt.Errorf("%s: %w", msg, ErrNotSuccess)
}

// DataIfSuccess returns r's payload as T when r is a success envelope.
// An absent payload yields the zero value of T; a payload of another type is
// reported as an error.
func DataIfSuccess[T any](r *Result, message string) (T, error) {
	var zero T
	if err := AssertSuccess(r, message); err != nil {
		return zero, err
	}
	if r.Data == nil {
		return zero, nil
	}
	v, ok := r.Data.(T)
	if !ok {
		return zero, fmt.Errorf("%s: payload is %T, not %T", message, r.Data, zero)
	}
	return v, nil
}
