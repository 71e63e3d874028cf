// Package config provides gateway configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, upstream routes, rate limiting, the error journal and
// observability settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "gateway")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// JournalConfig controls the persistent error journal.
type JournalConfig struct {
	Enabled   bool          // JOURNAL_ENABLED
	DBPath    string        // JOURNAL_DB_PATH (SQLite file)
	Buffer    int           // JOURNAL_BUFFER, pending events before drops
	Retention time.Duration // JOURNAL_RETENTION, events older than this are pruned
}

// Route maps a path prefix to an upstream base URL.
type Route struct {
	Prefix string
	Target *url.URL
}

// Config holds all configuration values for the gateway.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	AdminBasePath  string // base path for admin routes

	// Gateway
	Routes        []Route       // ROUTES="/users=http://users:8080,..."
	ProxyTimeout  time.Duration // upstream response header timeout
	DefaultLocale language.Tag  // message language when Accept-Language is absent

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Error journal
	Journal JournalConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 60*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 10<<20)),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		AdminBasePath:  normalizeBasePath(getenv("ADMIN_BASE_PATH", "/_gateway")),

		// Gateway
		ProxyTimeout: getdur("PROXY_TIMEOUT", 30*time.Second),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 50.0),
		RateBurst: getint("RATE_BURST", 100),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Error journal
		Journal: JournalConfig{
			Enabled:   getbool("JOURNAL_ENABLED", true),
			DBPath:    getenv("JOURNAL_DB_PATH", "gateway-errors.db"),
			Buffer:    getint("JOURNAL_BUFFER", 1024),
			Retention: getdur("JOURNAL_RETENTION", 7*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "gateway"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- parsing ---
	routes, err := parseRoutes(getenv("ROUTES", ""))
	if err != nil {
		return cfg, err
	}
	cfg.Routes = routes

	locale, err := language.Parse(getenv("DEFAULT_LOCALE", "en"))
	if err != nil {
		return cfg, fmt.Errorf("DEFAULT_LOCALE: %w", err)
	}
	cfg.DefaultLocale = locale

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.ProxyTimeout <= 0 {
		return cfg, errors.New("PROXY_TIMEOUT must be > 0")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return cfg, errors.New("MAX_BODY_BYTES must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Journal.Enabled {
		if strings.TrimSpace(cfg.Journal.DBPath) == "" {
			return cfg, errors.New("JOURNAL_DB_PATH must not be empty")
		}
		if cfg.Journal.Buffer < 1 {
			return cfg, errors.New("JOURNAL_BUFFER must be >= 1")
		}
		if cfg.Journal.Retention <= 0 {
			return cfg, errors.New("JOURNAL_RETENTION must be > 0")
		}
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	if cfg.AdminBasePath == "/" {
		return cfg, errors.New("ADMIN_BASE_PATH must not be the root path")
	}
	for _, rt := range cfg.Routes {
		for _, reserved := range []string{"/health", "/metrics", "/swagger", cfg.AdminBasePath} {
			if overlaps(rt.Prefix, reserved) {
				return cfg, fmt.Errorf("ROUTES: prefix %q collides with gateway path %q", rt.Prefix, reserved)
			}
		}
	}

	return cfg, nil
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseRoutes parses "prefix=url" pairs separated by commas. Prefixes are
// normalized like base paths and must be unique.
func parseRoutes(s string) ([]Route, error) {
	pairs := splitCSV(s)
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make([]Route, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		prefix, target, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("ROUTES: %q is not prefix=url", p)
		}
		prefix = normalizeBasePath(prefix)
		if prefix == "/" {
			return nil, fmt.Errorf("ROUTES: %q must not proxy the root path", p)
		}
		if _, dup := seen[prefix]; dup {
			return nil, fmt.Errorf("ROUTES: duplicate prefix %q", prefix)
		}
		for other := range seen {
			if overlaps(prefix, other) {
				return nil, fmt.Errorf("ROUTES: prefix %q is nested with %q", prefix, other)
			}
		}
		u, err := url.Parse(strings.TrimSpace(target))
		if err != nil {
			return nil, fmt.Errorf("ROUTES: %q: %w", p, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("ROUTES: %q needs an absolute http(s) URL", p)
		}
		seen[prefix] = struct{}{}
		out = append(out, Route{Prefix: prefix, Target: u})
	}
	return out, nil
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}

// overlaps reports whether one path prefix equals or contains the other.
func overlaps(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}
