// Package httpapi wires the HTTP transport (Gin) to the error boundary, the
// upstream proxies, middleware, and the admin handlers. It centralizes
// cross-cutting concerns such as tracing, correlation IDs, logging/redaction,
// panic recovery, metrics, CORS, security headers, and rate limiting.
//
// Every failure produced along the chain (proxy transport errors, panics,
// rate limiting, oversized bodies, unknown routes) is left on the gin context
// and rendered once by the boundary as a result envelope.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/go-gateway-errors/docs" // swagger spec
	"github.com/tbourn/go-gateway-errors/internal/config"
	"github.com/tbourn/go-gateway-errors/internal/failure"
	"github.com/tbourn/go-gateway-errors/internal/http/handlers"
	"github.com/tbourn/go-gateway-errors/internal/http/middleware"
	"github.com/tbourn/go-gateway-errors/internal/proxy"
)

// apiKeyHeader identifies gateway clients for rate limiting and is masked in
// access logs.
const apiKeyHeader = "X-Api-Key"

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability, the error boundary, CORS, rate limiting, the admin
// surface and one proxy per configured route.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with PII scrubbing (sees the rendered code)
//  4. Metrics
//  5. Boundary: renders whatever failure the chain leaves behind
//  6. Recovery: panics are rendered by the boundary immediately
//  7. Body size limiter
//  8. CORS
//  9. Rate limiter (per API key/IP)
func RegisterRoutes(r *gin.Engine, b *handlers.Boundary, admin *handlers.Admin, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.Logger(middleware.RedactOptions{
		MaskHeaders: []string{apiKeyHeader},
	}))

	// 4) Prometheus metrics
	r.Use(middleware.Metrics())

	// 5) + 6) Error boundary and panic recovery
	r.Use(b.Middleware())
	r.Use(middleware.Recovery(b.RecoverPanic))

	// 7) Global body size limit
	if cfg.MaxBodyBytes > 0 {
		r.Use(limitBody(cfg.MaxBodyBytes))
	}

	// 8) CORS posture (safe defaults: allow all if none configured)
	r.Use(corsMiddleware(cfg.CORS))

	// Fallbacks
	r.NoRoute(b.NoRoute)
	r.NoMethod(b.NoMethod)

	// Gateway-owned endpoints are not rate limited so probes keep working
	// under load.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}), admin.Health)

	adm := r.Group(cfg.AdminBasePath)
	adm.Use(
		gzip.Gzip(gzip.DefaultCompression),
		middleware.SecurityHeaders(middleware.SecurityOptions{
			EnableHSTS:   cfg.Security.EnableHSTS,
			HSTSMaxAge:   cfg.Security.HSTSMaxAge,
			NoStore:      true,
			EnablePolicy: true,
		}),
		// Render inside the gzip scope so failures are compressed too.
		b.Middleware(),
	)
	{
		adm.GET("/codes", admin.Codes)
		adm.GET("/handlers", admin.Handlers)
		adm.GET("/errors", admin.Errors)
		adm.GET("/errors/stats", admin.ErrorStats)
	}

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// 9) Token-bucket rate limiter per API key/IP, proxied traffic only
	if len(cfg.Routes) > 0 {
		rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByHeaderOrIP(apiKeyHeader))
		upstreams := r.Group("", rl.Handler())
		for _, route := range cfg.Routes {
			proxy.New(route, cfg.ProxyTimeout).Mount(upstreams)
		}
	}
}

// corsMiddleware returns gin-contrib/cors configured from cfg. With no
// allowlist every origin is accepted without credentials.
func corsMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", apiKeyHeader, "Accept-Language"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes. A declared Content-Length
// over the cap is rejected up front with a 413 status failure; otherwise
// http.MaxBytesReader stops reads past the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			_ = c.Error(failure.Status(http.StatusRequestEntityTooLarge, ""))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
