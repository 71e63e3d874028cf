// Package middleware contains shared Gin middleware used by the gateway.
//
// This file provides correlation IDs, the structured access log and panic
// recovery. Failures never render a body here: they are pushed onto the gin
// context (c.Error) so the error boundary renders one consistent envelope.
//
// Recommended order:
//  1. RequestID()
//  2. Logger(...)
//  3. the error boundary middleware
//  4. Recovery(...)
//
// Query strings are truncated to a capped length and scrubbed before logging.
// The request-scoped logger is stored under the "logger" gin context key.
package middleware

import (
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-gateway-errors/internal/failure"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048

	// ResultCodeKey holds the envelope code rendered for a failed request.
	ResultCodeKey = "resultCode"
	// ErrorTagKey holds the taxonomy tag the failure resolved to.
	ErrorTagKey = "errorTag"
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// An incoming X-Request-ID is reused; otherwise a new UUIDv4 is generated.
// The ID is written back to the response header and stored in the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// RequestIDFrom returns the correlation ID attached by RequestID, falling
// back to the response header and finally the request header.
func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s := asString(v); s != "" {
			return s
		}
	}
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		return rid
	}
	if c.Request != nil {
		return c.GetHeader(requestIDHeader)
	}
	return ""
}

// Logger writes a structured access log for each request and response.
//
// It stores a request-scoped zerolog.Logger in the context (key "logger")
// and logs method, route, client, scrubbed query and headers, status,
// latency, sizes and, for failures, the envelope code and taxonomy tag set
// by the error boundary.
//
// Level: error for 5xx or when gin collected errors, warn for 4xx, info
// otherwise.
func Logger(opts RedactOptions) gin.HandlerFunc {
	rd := newRedactor(opts)
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(rd.scrub(c.Request.URL.RawQuery), maxQueryLogLength)).
			// ContentLength can be -1 if unknown.
			Int64("bytes_in", c.Request.ContentLength).
			Logger()

		c.Set("logger", &l)

		c.Next()

		status := c.Writer.Status()
		ctx := l.With().
			Int("status", status).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Interface("headers", rd.headers(c.Request.Header))
		if code := c.GetString(ResultCodeKey); code != "" {
			ctx = ctx.Str("result_code", code)
		}
		if tag := c.GetString(ErrorTagKey); tag != "" {
			ctx = ctx.Str("error_tag", tag)
		}
		ev := ctx.Logger()

		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// PanicFunc receives a recovered panic converted to *failure.PanicError.
type PanicFunc func(c *gin.Context, err error)

// Recovery intercepts panics and turns them into *failure.PanicError.
//
// The panic value and stack are logged with the request ID. When onPanic is
// nil the error is attached with c.Error and the chain aborted, leaving the
// error boundary to render it; otherwise onPanic decides.
func Recovery(onPanic PanicFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			stack := debug.Stack()
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", stack).
				Msg("panic recovered")

			err := failure.Panic(rec, stack)
			if onPanic != nil {
				onPanic(c, err)
				c.Abort()
				return
			}
			_ = c.Error(err)
			c.Abort()
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If Logger() did not run, a fallback logger carrying only the request ID
// is returned. Callers can use the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Str("request_id", RequestIDFrom(c)).Logger()
	return &l
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate caps s at max bytes and appends an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
