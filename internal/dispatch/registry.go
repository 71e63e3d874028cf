// Package dispatch maps gateway errors to response envelopes.
//
// Advice components declare handlers, each bound to one or more taxonomy
// tags. At startup the host passes every advice to Build, which fills a
// table keyed by exact tag. At request time the Dispatcher walks the error's
// linear ancestry (exact tag first, Root last) and invokes the first handler
// it finds with the error as the only argument.
//
// The table is written only during Build/Register. Once the HTTP server is
// accepting requests it is read concurrently without locking, so all
// registration must finish before serving starts.
package dispatch

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-gateway-errors/internal/result"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

// HandlerFunc turns an error into a response envelope.
type HandlerFunc func(err error) *result.Result

// Handler is one error-handling method declared by an advice component.
type Handler struct {
	// Name identifies the handler in logs, metrics and the admin API.
	Name string
	// Types lists the exact tags this handler is registered for.
	Types []taxonomy.Tag
	// Status overrides the HTTP status of the response; 0 means none.
	Status int
	// Func is invoked with the error being handled.
	Func HandlerFunc
}

// Advice is a component that contributes error handlers.
type Advice interface {
	Handlers() []Handler
}

// AdviceFunc adapts a plain function to Advice.
type AdviceFunc func() []Handler

// Handlers implements Advice.
func (f AdviceFunc) Handlers() []Handler { return f() }

// Entry is a registered handler bound to one exact tag.
type Entry struct {
	Tag    taxonomy.Tag `json:"tag"`
	Name   string       `json:"name"`
	Status int          `json:"status,omitempty"`
	Invoke HandlerFunc  `json:"-"`
	// Owner is the advice that declared the handler. The registry does not
	// manage its lifecycle.
	Owner Advice `json:"-"`
}

// Option configures a Registry or Dispatcher.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger used for registration and dispatch events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With().Str("component", "dispatch").Logger()
	return o
}

// Registry is the tag → handler table.
type Registry struct {
	tax   *taxonomy.Taxonomy
	table map[taxonomy.Tag]*Entry
	order []taxonomy.Tag
	log   zerolog.Logger
}

// NewRegistry returns an empty registry sized for roughly size entries.
func NewRegistry(tax *taxonomy.Taxonomy, size int, opts ...Option) *Registry {
	if tax == nil {
		tax = taxonomy.Default()
	}
	if size < 0 {
		size = 0
	}
	o := buildOptions(opts)
	return &Registry{
		tax:   tax,
		table: make(map[taxonomy.Tag]*Entry, size),
		order: make([]taxonomy.Tag, 0, size),
		log:   o.logger,
	}
}

// Build creates a registry and registers every advice in order. It is the
// startup entry point and must complete before the first dispatch.
func Build(tax *taxonomy.Taxonomy, advices []Advice, opts ...Option) *Registry {
	r := NewRegistry(tax, len(advices), opts...)
	r.log.Info().Int("advices", len(advices)).Msg("registering error handlers")
	for _, a := range advices {
		r.Register(a)
	}
	r.log.Info().Int("handlers", len(r.order)).Msg("error handlers registered")
	return r
}

// Register adds every valid handler declared by a. A later registration for
// the same exact tag replaces the earlier one in place. Invalid handlers are
// skipped with a warning so that one bad declaration cannot stop startup.
func (r *Registry) Register(a Advice) {
	if a == nil {
		return
	}
	for _, h := range a.Handlers() {
		if reason := invalid(h); reason != "" {
			r.log.Warn().Str("handler", h.Name).Str("reason", reason).Msg("error handler skipped")
			continue
		}
		for _, tag := range h.Types {
			if tag == "" {
				r.log.Warn().Str("handler", h.Name).Msg("empty tag skipped")
				continue
			}
			if !r.tax.Known(tag) {
				r.log.Warn().Str("handler", h.Name).Str("tag", string(tag)).Msg("handler bound to undefined tag")
			}
			r.put(&Entry{Tag: tag, Name: h.Name, Invoke: h.Func, Status: h.Status, Owner: a})
		}
	}
}

func (r *Registry) put(e *Entry) {
	if prev, ok := r.table[e.Tag]; ok {
		r.log.Debug().
			Str("tag", string(e.Tag)).
			Str("previous", prev.Name).
			Str("handler", e.Name).
			Msg("error handler replaced")
	} else {
		r.order = append(r.order, e.Tag)
	}
	r.table[e.Tag] = e
}

func invalid(h Handler) string {
	switch {
	case h.Func == nil:
		return "no handler func"
	case len(h.Types) == 0:
		return "no error types declared"
	case h.Status != 0 && (h.Status < 100 || h.Status > 599):
		return "status out of range"
	}
	return ""
}

// Lookup returns the entry registered for exactly tag.
func (r *Registry) Lookup(tag taxonomy.Tag) (*Entry, bool) {
	e, ok := r.table[tag]
	return e, ok
}

// Entries returns the registered entries in first-registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, 0, len(r.order))
	for _, tag := range r.order {
		out = append(out, r.table[tag])
	}
	return out
}

// Len returns the number of registered tags.
func (r *Registry) Len() int { return len(r.order) }

// Taxonomy returns the taxonomy used to classify errors.
func (r *Registry) Taxonomy() *taxonomy.Taxonomy { return r.tax }
