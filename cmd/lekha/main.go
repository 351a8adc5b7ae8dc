// Lekha is a bilingual letter assistant that turns short Telugu or English
// utterances into formal letters in Telugu, English, or both.
//
// Usage:
//
//	lekha [flags]
//	lekha --config /path/to/lekha.yaml
//
// @title       lekha API
// @version     1.0
// @description Bilingual (Telugu/English) formal letter generation.
// @BasePath    /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/nadzzz/lekha/docs"
	"github.com/nadzzz/lekha/internal/app"
	"github.com/nadzzz/lekha/internal/config"
	"github.com/nadzzz/lekha/internal/health"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/metrics"
	"github.com/nadzzz/lekha/internal/session"
	"github.com/nadzzz/lekha/internal/transport"
	grpctransport "github.com/nadzzz/lekha/internal/transport/grpc"
	httptransport "github.com/nadzzz/lekha/internal/transport/http"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/lekha.yaml)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("lekha %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("lekha starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	pipeline, err := app.NewPipeline(cfg, m)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	sessions := session.NewManager(pipeline.Dispatcher, session.Options{
		Speech:         cfg.Speech.Enabled,
		SpeechLanguage: cfg.Speech.DefaultLanguage,
		DefaultView:    message.OutputPreference(cfg.Letters.DefaultOutput),
		IdleTimeout:    cfg.Sessions.IdleTimeout,
	})

	// Initialize enabled transports.
	var transports []transport.Transport

	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, sessions))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}

	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		os.Exit(1)
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort, m)
	healthServer.SetRemoteTranslation(pipeline.Transformer.RemoteConfigured())
	healthServer.SetTransports(len(transports))
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	go sessions.Run(ctx)

	// Start all transports. The first one to fail stops the rest.
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range transports {
		g.Go(func() error {
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(gctx, pipeline.Dispatcher); err != nil {
				return fmt.Errorf("transport %s: %w", t.Name(), err)
			}
			return nil
		})
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	slog.Info("lekha ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"remote_translation", pipeline.Transformer.RemoteConfigured())

	// Block until shutdown signal or a transport failure.
	<-gctx.Done()
	healthServer.SetReady(false)
	slog.Info("shutdown signal received, draining...")

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	if err := g.Wait(); err != nil {
		slog.Error("transport failed", "error", err)
		pipeline.Close()
		os.Exit(1)
	}
	slog.Info("lekha stopped")
}
