// Package main is the entry point for the TON swap aggregator service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fd1az/tonswap/business/gateway"
	"github.com/fd1az/tonswap/business/quoting"
	"github.com/fd1az/tonswap/business/session"
	"github.com/fd1az/tonswap/business/swap"
	"github.com/fd1az/tonswap/internal/apm"
	"github.com/fd1az/tonswap/internal/config"
	"github.com/fd1az/tonswap/internal/logger"
	"github.com/fd1az/tonswap/internal/metrics"
	"github.com/fd1az/tonswap/internal/monolith"
	"github.com/fd1az/tonswap/internal/web"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tonswap %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var out io.Writer = os.Stderr
	if cfg.App.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename: cfg.App.LogFile,
			MaxSize:  100,
			MaxAge:   14,
			Compress: true,
		}
		defer rotating.Close()
		out = io.MultiWriter(os.Stderr, rotating)
	}

	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting TON swap server",
		"version", version,
		"environment", cfg.App.Environment,
	)

	if cfg.Telemetry.Enabled {
		stop, err := startTelemetry(ctx, cfg.Telemetry, log)
		if err != nil {
			return err
		}
		defer stop()
	}

	server := web.NewServer(cfg.Server.Address, cfg.Server.ReadHeaderTimeout, cfg.Proxy.AllowedOrigins, log)
	mono := monolith.New(cfg, log, server.Router(), version)

	// Dependency order: quoting feeds swap, both feed session and gateway.
	modules := []monolith.Module{
		&quoting.Module{},
		&swap.Module{},
		&session.Module{},
		&gateway.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Server))
	defer cancel()

	return errors.Join(
		server.Shutdown(shutdownCtx),
		mono.Close(shutdownCtx),
	)
}

// startTelemetry installs the trace and meter providers and serves
// /metrics. The returned func flushes and stops them.
func startTelemetry(ctx context.Context, cfg config.TelemetryConfig, log logger.LoggerInterface) (func(), error) {
	traceProvider, err := apm.NewTraceProvider(log,
		apm.WithProvider(apm.Provider(cfg.TraceExporter)),
		apm.WithEndpoint(cfg.OTLPEndpoint),
		apm.WithHeaders(cfg.OTLPHeaders),
		apm.WithServiceName(cfg.ServiceName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "exporter", cfg.TraceExporter, "endpoint", cfg.OTLPEndpoint)

	meterProvider, err := metrics.NewMetricProvider(
		metrics.WithServiceName(cfg.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{
			Provider: metrics.PrometheusProvider,
		}),
	)
	if err != nil {
		traceProvider.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	port := cfg.PrometheusPort
	if port == 0 {
		port = 9090
	}
	promServer := metrics.NewPrometheusServer(metrics.WithPort(strconv.Itoa(port)))
	go func() {
		if err := promServer.Serve(); err != nil {
			log.Error(context.Background(), "prometheus server stopped", "error", err)
		}
	}()
	log.Info(ctx, "prometheus metrics server started", "port", port)

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = promServer.Shutdown(stopCtx)
		_ = meterProvider.Shutdown(stopCtx)
		_ = traceProvider.Stop()
	}, nil
}

func shutdownTimeout(cfg config.ServerConfig) time.Duration {
	if cfg.ShutdownTimeout > 0 {
		return cfg.ShutdownTimeout
	}
	return 10 * time.Second
}
