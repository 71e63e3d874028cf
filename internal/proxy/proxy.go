// Package proxy forwards gateway routes to upstream services.
//
// Transport failures (refused dials, DNS errors, header timeouts) are not
// written by the proxy. They are attached to the gin context with c.Error so
// the error boundary resolves and renders them like any other failure.
package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tbourn/go-gateway-errors/internal/config"
	"github.com/tbourn/go-gateway-errors/internal/failure"
	"github.com/tbourn/go-gateway-errors/internal/http/middleware"
)

const dialTimeout = 5 * time.Second

type errSlotKey struct{}

// Upstream proxies one route prefix to one target.
type Upstream struct {
	prefix string
	target *url.URL
	rp     *httputil.ReverseProxy
}

// New returns an Upstream for route. timeout bounds the wait for the
// upstream's response headers.
func New(route config.Route, timeout time.Duration) *Upstream {
	u := &Upstream{prefix: route.Prefix, target: route.Target}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	u.rp = &httputil.ReverseProxy{
		Rewrite:      u.rewrite,
		Transport:    transport,
		ErrorHandler: captureError,
	}
	return u
}

// Prefix returns the route prefix served by u.
func (u *Upstream) Prefix() string { return u.prefix }

// Mount registers u on r for the bare prefix and everything below it.
func (u *Upstream) Mount(r gin.IRoutes) {
	h := u.Handler()
	r.Any(u.prefix, h)
	r.Any(u.prefix+"/*path", h)
}

// Handler proxies the request. A transport failure aborts the chain with
// the raw error on the context and nothing written.
func (u *Upstream) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var failed error
		ctx := context.WithValue(c.Request.Context(), errSlotKey{}, &failed)
		req := c.Request.WithContext(ctx)
		if rid := middleware.RequestIDFrom(c); rid != "" {
			req.Header.Set("X-Request-ID", rid)
		}

		u.rp.ServeHTTP(c.Writer, req)

		if failed != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(failed, &tooLarge) {
				failed = failure.Status(http.StatusRequestEntityTooLarge, "")
			}
			_ = c.Error(failed)
			c.Abort()
		}
	}
}

func (u *Upstream) rewrite(pr *httputil.ProxyRequest) {
	p := strings.TrimPrefix(pr.In.URL.Path, u.prefix)
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	pr.Out.URL.Path = p
	pr.Out.URL.RawPath = ""
	pr.SetURL(u.target)
	pr.SetXForwarded()
	otel.GetTextMapPropagator().Inject(pr.Out.Context(), propagation.HeaderCarrier(pr.Out.Header))
}

// captureError hands the transport error back to Handler instead of writing
// a 502 itself.
func captureError(w http.ResponseWriter, r *http.Request, err error) {
	if slot, ok := r.Context().Value(errSlotKey{}).(*error); ok {
		*slot = err
		return
	}
	w.WriteHeader(http.StatusBadGateway)
}
