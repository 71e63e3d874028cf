// Command gateway runs the HTTP gateway: it proxies configured routes to
// upstream services and renders every failure as a result envelope.
//
//	@title						Gateway Errors API
//	@version					1.0
//	@description				Gateway that renders every upstream or internal failure as a uniform result envelope.
//	@BasePath					/
//	@externalDocs.description	Result codes are listed at /_gateway/codes
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-gateway-errors/internal/advice"
	"github.com/tbourn/go-gateway-errors/internal/config"
	"github.com/tbourn/go-gateway-errors/internal/dispatch"
	httpapi "github.com/tbourn/go-gateway-errors/internal/http"
	"github.com/tbourn/go-gateway-errors/internal/http/handlers"
	"github.com/tbourn/go-gateway-errors/internal/journal"
	"github.com/tbourn/go-gateway-errors/internal/observability"
	"github.com/tbourn/go-gateway-errors/internal/repo"
	"github.com/tbourn/go-gateway-errors/internal/sysutil"
	"github.com/tbourn/go-gateway-errors/internal/taxonomy"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version string

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := sysutil.ConfigureLogger(os.Stdout, cfg.LogPretty)
	sysutil.SetLogLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.Version(version)
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	var (
		db  *gorm.DB
		rec *journal.Recorder
	)
	boundaryOpts := []handlers.BoundaryOption{handlers.WithDefaultLocale(cfg.DefaultLocale)}
	if cfg.Journal.Enabled {
		db, err = repo.OpenSQLite(cfg.Journal.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Journal.DBPath).Msg("open journal db")
		}
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("migrate journal db")
		}
		rec = journal.NewRecorder(db, cfg.Journal.Buffer,
			journal.WithLogger(logger),
			journal.WithRetention(cfg.Journal.Retention),
		)
		go rec.Run(context.Background())
		boundaryOpts = append(boundaryOpts, handlers.WithRecorder(rec))
	}

	// The registry is built once here and read-only afterwards.
	reg := dispatch.Build(taxonomy.Default(),
		[]dispatch.Advice{advice.NewDefault(logger)},
		dispatch.WithLogger(logger),
	)
	d := dispatch.NewDispatcher(reg, dispatch.WithLogger(logger))
	boundary := handlers.NewBoundary(d, boundaryOpts...)

	r := gin.New()
	httpapi.RegisterRoutes(r, boundary, handlers.NewAdmin(reg, db, cfg.DefaultLocale), cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Int("routes", len(cfg.Routes)).
			Int("handlers", reg.Len()).
			Bool("journal", cfg.Journal.Enabled).
			Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if rec != nil {
		rec.Close()
		select {
		case <-rec.Done():
		case <-shutdownCtx.Done():
			log.Warn().Msg("journal did not drain before shutdown deadline")
		}
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}
