package handlers

import (
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/tbourn/go-gateway-errors/internal/codes"
	"github.com/tbourn/go-gateway-errors/internal/dispatch"
	"github.com/tbourn/go-gateway-errors/internal/domain"
	"github.com/tbourn/go-gateway-errors/internal/failure"
	"github.com/tbourn/go-gateway-errors/internal/http/middleware"
	"github.com/tbourn/go-gateway-errors/internal/result"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

// attributesKey memoises the resolved failure per request so every entry
// point sees the same dispatch.
const attributesKey = "gatewayErrorAttributes"

// maxDetail caps the server-side error text kept in the journal.
const maxDetail = 4 << 10

// Recorder receives every failure the boundary renders. Record must not
// block.
type Recorder interface {
	Record(ev domain.ErrorEvent) bool
}

// Attributes is the resolved rendering of a failed request.
//
// Status and Result are what the client receives. The other fields describe
// how the failure was resolved and are never rendered.
type Attributes struct {
	Status  int            `json:"status"`
	Result  *result.Result `json:"result"`
	Tag     taxonomy.Tag   `json:"tag"`
	Handler string         `json:"handler,omitempty"`
	Outcome string         `json:"outcome"`
	// Detail is the raw error text, filled only on request.
	Detail string `json:"detail,omitempty"`

	err      error
	original *result.Result
}

// RenderOptions tunes ErrorAttributesWithOptions.
type RenderOptions struct {
	// IncludeDetail copies the raw error text into Attributes.Detail.
	IncludeDetail bool
}

// BoundaryOption configures a Boundary.
type BoundaryOption func(*Boundary)

// WithRecorder journals every rendered failure through r.
func WithRecorder(r Recorder) BoundaryOption {
	return func(b *Boundary) { b.rec = r }
}

// WithDefaultLocale sets the language used when Accept-Language is absent or
// unsupported.
func WithDefaultLocale(tag language.Tag) BoundaryOption {
	return func(b *Boundary) { b.locale = tag }
}

// Boundary turns failures left on the gin context into result envelopes.
//
// Failures reach it from handlers (c.Error), recovered panics, NoRoute and
// NoMethod, the rate limiter and proxy transport errors.
type Boundary struct {
	d      *dispatch.Dispatcher
	rec    Recorder
	locale language.Tag
}

// NewBoundary returns a Boundary resolving failures through d.
func NewBoundary(d *dispatch.Dispatcher, opts ...BoundaryOption) *Boundary {
	b := &Boundary{d: d, locale: language.English}
	for _, o := range opts {
		o(b)
	}
	return b
}

// ErrorAttributes resolves the request's failure.
func (b *Boundary) ErrorAttributes(c *gin.Context) Attributes {
	return b.ErrorAttributesWithOptions(c, RenderOptions{})
}

// ErrorAttributesWithOptions resolves the request's failure. Status and
// Result are identical to ErrorAttributes for the same request; options
// only add fields that are never rendered.
func (b *Boundary) ErrorAttributesWithOptions(c *gin.Context, opts RenderOptions) Attributes {
	a := b.resolve(c)
	if opts.IncludeDetail && a.err != nil {
		a.Detail = a.err.Error()
	}
	return a
}

// Render writes the resolved envelope with its status (200 unless the
// handler overrides it) and aborts the chain.
func (b *Boundary) Render(c *gin.Context) {
	a := b.ErrorAttributes(c)
	if c.Writer.Written() {
		middleware.LoggerFrom(c).Warn().
			Str("tag", string(a.Tag)).
			Str("code", a.Result.Code).
			Msg("response already written, failure not rendered")
		c.Abort()
		return
	}
	if rid := middleware.RequestIDFrom(c); rid != "" {
		c.Header("X-Request-ID", rid)
	}
	c.AbortWithStatusJSON(a.Status, a.Result)
}

// Middleware renders the last error on the context once the chain returns,
// unless a response was already written.
func (b *Boundary) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		b.Render(c)
	}
}

// RecoverPanic is a middleware.PanicFunc rendering the recovered panic.
func (b *Boundary) RecoverPanic(c *gin.Context, err error) {
	_ = c.Error(err)
	b.Render(c)
}

// NoRoute handles requests no route matched.
func (b *Boundary) NoRoute(c *gin.Context) {
	_ = c.Error(failure.Status(http.StatusNotFound, ""))
	b.Render(c)
}

// NoMethod handles requests whose path matched with another method.
func (b *Boundary) NoMethod(c *gin.Context) {
	_ = c.Error(failure.Status(http.StatusMethodNotAllowed, ""))
	b.Render(c)
}

func (b *Boundary) resolve(c *gin.Context) Attributes {
	if v, ok := c.Get(attributesKey); ok {
		if a, ok := v.(Attributes); ok {
			return a
		}
	}

	var err error
	if last := c.Errors.Last(); last != nil {
		err = last.Err
	}
	a := b.dispatch(c, err)

	localized := *a.original
	localized.Message = codes.Localize(localized.Code, localized.Message, c.GetHeader("Accept-Language"), b.locale)
	a.Result = &localized

	c.Set(attributesKey, a)
	c.Set(middleware.ResultCodeKey, a.Result.Code)
	c.Set(middleware.ErrorTagKey, string(a.Tag))
	b.record(c, a)
	return a
}

// dispatch runs the dispatcher and applies the boundary fallbacks: no
// handler renders 10003 with 500; a failed handler renders 10003 with the
// entry's status or 500.
func (b *Boundary) dispatch(c *gin.Context, err error) Attributes {
	out, derr := b.d.DispatchContext(c.Request.Context(), err)
	a := Attributes{
		Status: http.StatusOK,
		Tag:    out.Tag,
		err:    err,
	}
	switch {
	case derr != nil:
		a.Status = http.StatusInternalServerError
		a.Outcome = domain.OutcomeUnhandled
		a.original = result.Failure(codes.ServiceException)
	case out.Degraded():
		a.Handler = out.Entry.Name
		a.Outcome = domain.OutcomeHandlerFailed
		a.Status = http.StatusInternalServerError
		if out.Status != 0 {
			a.Status = out.Status
		}
		a.original = result.Failure(codes.ServiceException)
	default:
		a.Handler = out.Entry.Name
		a.Outcome = domain.OutcomeHandled
		if out.Status != 0 {
			a.Status = out.Status
		}
		a.original = out.Result
	}
	return a
}

func (b *Boundary) record(c *gin.Context, a Attributes) {
	if b.rec == nil {
		return
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	var detail string
	if a.err != nil {
		detail = a.err.Error()
		detail = truncateUTF8(detail, maxDetail)
	}
	ok := b.rec.Record(domain.ErrorEvent{
		RequestID: middleware.RequestIDFrom(c),
		Method:    c.Request.Method,
		Path:      path,
		Tag:       string(a.Tag),
		Handler:   a.Handler,
		Code:      a.original.Code,
		Message:   a.original.Message,
		Status:    a.Status,
		Outcome:   a.Outcome,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	})
	if !ok {
		middleware.LoggerFrom(c).Debug().Msg("error journal full, event dropped")
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
