// Package advice holds the gateway's built-in error handlers.
//
// Default covers the minimum set every deployment needs:
//
//	gateway  → the code and message carried by the error
//	status   → 10001 with the framework's reason text
//	connect  → 10002 "network error, try later"
//	timeout  → 10002 with the catalog message
//	error    → 10003 "server error" (catch-all)
//
// None of them override the HTTP status, so clients receive 200 with a
// failure code, which is what existing gateway consumers expect.
package advice

import (
	"github.com/rs/zerolog"

	"github.com/tbourn/go-gateway-errors/internal/codes"
	"github.com/tbourn/go-gateway-errors/internal/dispatch"
	"github.com/tbourn/go-gateway-errors/internal/failure"
	"github.com/tbourn/go-gateway-errors/internal/result"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

// User-facing messages for failures whose detail must stay server-side.
const (
	NetworkErrorMessage = "network error, try later"
	ServerErrorMessage  = "server error"
)

// Default is the built-in advice component.
type Default struct {
	log zerolog.Logger
}

// NewDefault returns the built-in advice logging through l.
func NewDefault(l zerolog.Logger) *Default {
	return &Default{log: l.With().Str("component", "advice").Logger()}
}

// Handlers implements dispatch.Advice.
func (a *Default) Handlers() []dispatch.Handler {
	return []dispatch.Handler{
		{Name: "gateway", Types: []taxonomy.Tag{taxonomy.Gateway}, Func: dispatch.Typed(a.gateway)},
		{Name: "status", Types: []taxonomy.Tag{taxonomy.Status}, Func: dispatch.Typed(a.status)},
		{Name: "connect", Types: []taxonomy.Tag{taxonomy.Connect}, Func: a.connect},
		{Name: "timeout", Types: []taxonomy.Tag{taxonomy.Timeout}, Func: a.timeout},
		{Name: "fallback", Types: []taxonomy.Tag{taxonomy.Root}, Func: a.fallback},
	}
}

func (a *Default) gateway(e *failure.GatewayError) *result.Result {
	return result.FailureCode(e.Code, e.Message)
}

func (a *Default) status(e *failure.StatusError) *result.Result {
	return result.FailureCode(codes.ServiceNotExist.Code, e.Reason)
}

func (a *Default) connect(err error) *result.Result {
	a.log.Error().Err(err).Msg("upstream connection failed")
	return result.FailureCode(codes.ServiceTimeout.Code, NetworkErrorMessage)
}

func (a *Default) timeout(err error) *result.Result {
	a.log.Error().Err(err).Msg("upstream timed out")
	return result.Failure(codes.ServiceTimeout)
}

func (a *Default) fallback(err error) *result.Result {
	ev := a.log.Error().Err(err)
	if p, ok := err.(*failure.PanicError); ok {
		ev = ev.Bytes("stack", p.Stack)
	}
	ev.Msg("unclassified failure")
	return result.FailureCode(codes.ServiceException.Code, ServerErrorMessage)
}
