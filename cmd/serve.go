package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/santaclaude2025/session-improver/internal/analytics"
	"github.com/santaclaude2025/session-improver/internal/api"
	"github.com/santaclaude2025/session-improver/internal/logger"
	"github.com/santaclaude2025/session-improver/internal/ratelimit"
	"github.com/santaclaude2025/session-improver/internal/source"
	"github.com/santaclaude2025/session-improver/pkg/config"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transcript analysis over HTTP",
	Long: `Starts an HTTP server exposing POST /api/v1/analyze, which accepts a JSONL
transcript (optionally zstd or brotli encoded) and responds with its summary.

Tracing is exported when OTEL_* environment variables are set.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config and PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if os.Getenv("ENABLE_PPROF") == "true" {
		go startPprofServer()
	}

	// Configured via OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_HEADERS
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		logger.Warn("failed to configure OpenTelemetry", "error", err)
	} else {
		defer otelShutdown()
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	// Left as a nil interface without an endpoint so the S3 route answers 503.
	var objects api.ObjectSource
	if cfg.Storage.Endpoint != "" {
		s3, err := source.NewS3Source(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		objects = s3
		logger.Info("object storage configured", "endpoint", cfg.Storage.Endpoint)
	}

	var limiter *ratelimit.InMemoryRateLimiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.NewInMemoryRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst)
		defer limiter.Stop()
	}

	server := api.NewServer(analytics.OptionsFromThresholds(cfg.Thresholds), cfg.Server, rateLimiterOrNil(limiter), objects)
	handler := otelhttp.NewHandler(server.SetupRoutes(), "session-improver")

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	if limiter != nil {
		stats := limiter.Stats()
		logger.Info("rate limiter state", "active_clients", stats.ActiveClients, "rate_per_second", stats.RatePerSecond, "burst", stats.Burst)
	}
	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// rateLimiterOrNil keeps a nil *InMemoryRateLimiter from becoming a non-nil
// interface value.
func rateLimiterOrNil(l *ratelimit.InMemoryRateLimiter) ratelimit.RateLimiter {
	if l == nil {
		return nil
	}
	return l
}

// startPprofServer serves profiling endpoints on localhost:6060.
func startPprofServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))

	addr := "127.0.0.1:6060"
	logger.Info("pprof debug server starting", "addr", addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("pprof server failed", "error", err)
	}
}
