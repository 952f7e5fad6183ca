package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	enrollhandler "loyalty-gateway/internal/enroll/handler"
	enrollmetrics "loyalty-gateway/internal/enroll/metrics"
	enrollservice "loyalty-gateway/internal/enroll/service"
	"loyalty-gateway/internal/platform/config"
	"loyalty-gateway/internal/platform/health"
	"loyalty-gateway/internal/platform/httpserver"
	"loyalty-gateway/internal/platform/logger"
	"loyalty-gateway/internal/platform/middleware"
	profilehandler "loyalty-gateway/internal/profile/handler"
	profilemetrics "loyalty-gateway/internal/profile/metrics"
	profileservice "loyalty-gateway/internal/profile/service"
	"loyalty-gateway/internal/registry"
	registrymetrics "loyalty-gateway/internal/registry/metrics"
	"loyalty-gateway/internal/tracer"
	httptransport "loyalty-gateway/internal/transport/http"
	"loyalty-gateway/internal/verify"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing loyalty-gateway",
		"addr", cfg.Server.Addr,
		"registry_url", cfg.Registry.BaseURL,
	)

	trc := tracer.NewNoop()

	registryClient := registry.New(
		registry.Config{
			BaseURL:   cfg.Registry.BaseURL,
			AccountID: cfg.Registry.AccountID,
			Username:  cfg.Registry.Username,
			Password:  cfg.Registry.Password,
		},
		cfg.Server.RequestTimeout,
		registry.WithLogger(log),
		registry.WithMetrics(registrymetrics.New()),
		registry.WithMaxRetries(uint64(cfg.Registry.MaxRetries)),
	)

	verifyClient := verify.NewClient(
		verify.Config{
			BaseURL:  cfg.Verification.BaseURL,
			Username: cfg.Verification.Username,
			Password: cfg.Verification.Password,
		},
		cfg.Server.RequestTimeout,
		verify.WithLogger(log),
	)

	enrollSvc := enrollservice.New(registryClient,
		enrollservice.WithLogger(log),
		enrollservice.WithTracer(trc),
		enrollservice.WithMetrics(enrollmetrics.New()),
	)
	profileSvc := profileservice.New(registryClient,
		profileservice.WithLogger(log),
		profileservice.WithTracer(trc),
		profileservice.WithMetrics(profilemetrics.New()),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Enroll:  enrollhandler.New(enrollSvc, log),
		Profile: profilehandler.New(profileSvc, log),
		Verify:  verify.NewHandler(verifyClient, log),
		Health:  health.New(envOr("ENVIRONMENT", "development")),
		Logger:  log,
		Gatekeeper: middleware.GatekeeperConfig{
			Key:        cfg.Server.SecureKey,
			PublicHost: cfg.Server.PublicHost,
		},
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting http server", "addr", cfg.Server.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
