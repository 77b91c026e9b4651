package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/licensedesk/backend/internal/audit"
	"github.com/licensedesk/backend/internal/config"
	"github.com/licensedesk/backend/internal/models"
	"github.com/licensedesk/backend/internal/router"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// gin uses debug as the default mode, we use release for
	// security reasons
	gin.SetMode(cfg.GinMode)

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	output := io.Writer(os.Stdout)
	if (cfg.LogFormat == "" && gin.IsDebugging()) || cfg.LogFormat == "human" {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		err = models.ConnectPostgres(cfg.Database.DSN)
	default:
		// Create the directory for the database file
		err = os.MkdirAll(filepath.Dir(cfg.Database.DSN), os.ModePerm)
		if err != nil {
			log.Fatal().Msg(err.Error())
		}

		err = models.Connect(cfg.Database.DSN)
	}
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	r, teardown, err := router.Config(cfg.APIURL, cfg.Allotment.ValueTolerance)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}
	defer teardown()
	router.AttachRoutes(r.Group("/"))

	if cfg.Audit.Schedule != "" {
		location, err := time.LoadLocation(cfg.Audit.Timezone)
		if err != nil {
			log.Warn().Str("timezone", cfg.Audit.Timezone).Err(err).Msg("Unknown timezone for the balance audit, using UTC")
			location = time.UTC
		}

		scheduler, err := audit.NewScheduler(models.DB, cfg.Audit.Schedule, location)
		if err != nil {
			log.Fatal().Msg(err.Error())
		}

		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		log.Info().Str("schedule", cfg.Audit.Schedule).Str("timezone", location.String()).Msg("Balance audit")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msg(err.Error())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown")
	}
}
