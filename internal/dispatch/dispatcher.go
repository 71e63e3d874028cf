package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-gateway-errors/internal/observability"
	"github.com/tbourn/go-gateway-errors/internal/result"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

var (
	// ErrNoHandler is returned by Dispatch when neither the error's tag nor
	// any ancestor has a registered handler.
	ErrNoHandler = errors.New("dispatch: no handler registered")
	// ErrHandlerFailed is reported in Outcome.HandlerErr when the matched
	// handler panicked.
	ErrHandlerFailed = errors.New("dispatch: handler failed")
)

// Outcome is the result of a dispatch.
type Outcome struct {
	// Tag is the exact tag the error was classified as. It is set even when
	// no handler matched.
	Tag taxonomy.Tag
	// Status is the handler's status override; 0 means none.
	Status int
	// Result is the envelope produced by the handler. It is nil when the
	// handler failed before returning.
	Result *result.Result
	// Entry is the handler that was invoked.
	Entry *Entry
	// HandlerErr is set when the handler failed. The failure is already
	// logged and never propagated as a dispatch error.
	HandlerErr error
}

// Degraded reports whether the handler failed or produced no envelope.
func (o Outcome) Degraded() bool { return o.HandlerErr != nil || o.Result == nil }

// Dispatcher resolves and invokes handlers from a Registry.
// It is safe for concurrent use once the registry is built.
type Dispatcher struct {
	reg *Registry
	log zerolog.Logger
}

// NewDispatcher returns a Dispatcher reading from reg.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	o := buildOptions(opts)
	return &Dispatcher{reg: reg, log: o.logger}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Resolve returns the most specific handler for err: the entry for its exact
// tag if any, otherwise the nearest ancestor's along the linear chain.
func (d *Dispatcher) Resolve(err error) (*Entry, bool) {
	return d.resolveTag(d.reg.tax.TagOf(err))
}

func (d *Dispatcher) resolveTag(tag taxonomy.Tag) (*Entry, bool) {
	for _, t := range d.reg.tax.Ancestry(tag) {
		if e, ok := d.reg.table[t]; ok {
			return e, true
		}
	}
	return nil, false
}

// Dispatch is DispatchContext without a request context.
func (d *Dispatcher) Dispatch(err error) (Outcome, error) {
	return d.DispatchContext(context.Background(), err)
}

// DispatchContext resolves the handler for err and invokes it.
//
// When no handler matches, the failure is logged and ErrNoHandler is returned
// so the caller can render its own fallback. When the handler panics, the
// panic is logged with its stack and reported through Outcome.HandlerErr;
// the returned error stays nil.
func (d *Dispatcher) DispatchContext(ctx context.Context, err error) (Outcome, error) {
	tag := d.reg.tax.TagOf(err)
	entry, ok := d.resolveTag(tag)
	if !ok {
		d.log.Error().
			AnErr("error", err).
			Str("tag", string(tag)).
			Msg("no error handler registered")
		dispatchTotal.WithLabelValues(string(tag), outcomeUnhandled).Inc()
		observability.AnnotateDispatch(ctx, string(tag), "", outcomeUnhandled, err)
		return Outcome{Tag: tag}, fmt.Errorf("%w for tag %q: %v", ErrNoHandler, tag, err)
	}

	out := Outcome{Tag: tag, Status: entry.Status, Entry: entry}
	out.Result, out.HandlerErr = d.invoke(entry, err)

	outcome := outcomeHandled
	if out.HandlerErr != nil {
		outcome = outcomeHandlerFailed
	} else if out.Result == nil {
		d.log.Warn().Str("handler", entry.Name).Str("tag", string(tag)).Msg("error handler returned no result")
	}
	dispatchTotal.WithLabelValues(string(tag), outcome).Inc()
	observability.AnnotateDispatch(ctx, string(tag), entry.Name, outcome, err)
	return out, nil
}

// invoke calls the handler and converts a panic into an error.
func (d *Dispatcher) invoke(e *Entry, err error) (res *result.Result, failed error) {
	defer func() {
		if rec := recover(); rec != nil {
			failed = fmt.Errorf("%w: %s: %v", ErrHandlerFailed, e.Name, rec)
			d.log.Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("handler", e.Name).
				Str("tag", string(e.Tag)).
				AnErr("error", err).
				Msg("error handler failed")
		}
	}()
	return e.Invoke(err), nil
}
