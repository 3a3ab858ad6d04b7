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

	"github.com/irvision/portal/internal/apiclient"
	"github.com/irvision/portal/internal/config"
	"github.com/irvision/portal/internal/domain"
	"github.com/irvision/portal/internal/logger"
	"github.com/irvision/portal/internal/metrics"
	"github.com/irvision/portal/internal/revalidate"
	"github.com/irvision/portal/internal/router"
	"github.com/irvision/portal/internal/session"
	"github.com/irvision/portal/internal/shell"
	"github.com/joho/godotenv"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.InitLogger(cfg.Environment, cfg.LogJSON)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("portal exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *slog.Logger) error {
	policy, err := router.ParsePolicy(cfg.Guard.OnUnknown)
	if err != nil {
		return err
	}

	baseOrigin := apiclient.ResolveBaseOrigin(cfg.API.BaseOrigin, cfg.API.PageOrigin)
	if cfg.API.BaseOrigin == "" {
		appLogger.Debug("no PORTAL_API_BASE set, using development fallback origin",
			"page_origin", cfg.API.PageOrigin,
			"api_origin", baseOrigin,
		)
	}

	client, err := apiclient.New(apiclient.Options{
		BaseOrigin: baseOrigin,
		Timeout:    cfg.API.Timeout,
		Logger:     appLogger,
	})
	if err != nil {
		return err
	}

	appLogger.Info("portal configuration loaded",
		"environment", cfg.Environment,
		"api_origin", client.BaseOrigin(),
		"guard_on_unknown", policy,
		"revalidate", cfg.Revalidate,
		"metrics_address", cfg.MetricsAddress,
	)

	store := session.NewStore(client, appLogger)
	table, err := router.NewTable(router.DefaultRoutes())
	if err != nil {
		return err
	}
	r := router.New(table, router.NewGuard(store, policy, appLogger), appLogger)
	sh := shell.New(store, r, client, os.Stdout, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddress != "" {
		server := startMetricsServer(cfg.MetricsAddress, appLogger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				appLogger.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	if cfg.Revalidate != "" {
		scheduler, err := revalidate.New(cfg.Revalidate, store, func(previous *domain.Identity) {
			sh.SessionExpired(ctx, previous)
		}, appLogger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	err = sh.Run(ctx, os.Stdin)
	appLogger.Info("portal stopped")
	return err
}

func startMetricsServer(addr string, appLogger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		appLogger.Info("metrics listening", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("metrics server error", "error", err)
		}
	}()
	return server
}
