package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msomdec/cinelist/internal/config"
	"github.com/msomdec/cinelist/internal/handler"
	"github.com/msomdec/cinelist/internal/imaging"
	"github.com/msomdec/cinelist/internal/repository/sqlite"
	"github.com/msomdec/cinelist/internal/service"
)

const metricsNamespace = "cinelist"

func newServeCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(os.Stdout, os.Stderr, cfg.LogLevel)
			slog.SetDefault(logger)

			// Graceful shutdown on SIGINT/SIGTERM.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations applied", "path", cfg.DatabasePath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := imaging.NewPrometheusObserver(metricsNamespace, reg)
	if err != nil {
		return fmt.Errorf("register imaging metrics: %w", err)
	}
	httpMetrics, err := handler.NewHTTPMetrics(metricsNamespace, reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	normalizer := imaging.NewNormalizer(imaging.NewDrawTransformer(), cfg.Image,
		imaging.WithObserver(observer),
		imaging.WithLogger(logger.With("component", "imaging")),
	)
	profileService, err := service.NewProfileService(db.Users(), normalizer, logger.With("component", "profile"))
	if err != nil {
		return err
	}

	// 10 attempts per minute per IP; 5 uploads then one every 10s per user.
	authLimiter := service.NewTokenBucket(10.0/60, 10)
	defer authLimiter.Stop()
	uploadLimiter := service.NewTokenBucket(0.1, 5)
	defer uploadLimiter.Stop()

	metricsHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	services := handler.Services{
		Auth:          service.NewAuthService(db.Users(), cfg.JWTSecret, cfg.BcryptCost),
		Profile:       profileService,
		Favorites:     service.NewFavoriteService(db.Favorites()),
		Preferences:   service.NewPreferencesService(db.Preferences()),
		AuthLimiter:   authLimiter,
		UploadLimiter: uploadLimiter,
		CookieSecure:  cfg.CookieSecure,
		HTTPMetrics:   httpMetrics,
	}
	if cfg.MetricsAddr == "" {
		services.MetricsHandler = metricsHandler
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, services)

	servers := []*http.Server{{
		Addr:              ":" + cfg.Port,
		Handler:           handler.RequestLogger(logger, handler.SecurityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}}
	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", metricsHandler)
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
