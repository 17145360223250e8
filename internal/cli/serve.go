package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/johnwards/ciassoc/internal/config"
	"github.com/johnwards/ciassoc/internal/database"
	"github.com/johnwards/ciassoc/internal/logging"
	"github.com/johnwards/ciassoc/internal/server"
	"github.com/johnwards/ciassoc/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reference naming registry and DPS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger, cleanup, err := logging.Setup(cfg.Logging)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(logger.WithContext(ctx), cfg)
	},
}

func serve(ctx context.Context, cfg config.ServerConfig) error {
	log := zerolog.Ctx(ctx)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	s, err := server.Prepare(ctx, db, cfg.SeedFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := telemetry.NewPrometheusCollector(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: server.New(s, server.Options{
			AuthToken: cfg.AuthToken,
			Logger:    *log,
			Collector: collector,
			Gatherer:  reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("db", cfg.DBPath).Msg("starting ciassoc server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
