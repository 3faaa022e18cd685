// Glados is a text-to-speech daemon. Text arrives over HTTP, gRPC or MQTT;
// every line is synthesized through a Tacotron2 and HiFi-GAN pipeline with
// a super-resolution stage and written to a 16-bit mono WAV file.
//
// Usage:
//
//	glados [flags]
//	glados --config /path/to/glados.yaml
//	glados --say "Hello, and again, welcome to the Aperture Science computer-aided enrichment center."
//
// @title       glados
// @version     1.0
// @description Text-to-speech daemon: text in, 16-bit mono WAV out.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/nadzzz/glados/docs"
	"github.com/nadzzz/glados/internal/config"
	"github.com/nadzzz/glados/internal/dispatch"
	"github.com/nadzzz/glados/internal/health"
	"github.com/nadzzz/glados/internal/metrics"
	"github.com/nadzzz/glados/internal/onnx"
	"github.com/nadzzz/glados/internal/synth"
	"github.com/nadzzz/glados/internal/transport"
	grpctransport "github.com/nadzzz/glados/internal/transport/grpc"
	httptransport "github.com/nadzzz/glados/internal/transport/http"
	mqtttransport "github.com/nadzzz/glados/internal/transport/mqtt"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/glados.yaml)")
	say := flag.String("say", "", "speak the given text to the output file and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("glados %s\n", version)
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
	slog.Info("glados starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *say != "" {
		os.Exit(runSay(ctx, cfg, *say))
	}
	os.Exit(serve(ctx, cfg))
}

// runSay loads the pipeline, speaks text once and returns the exit code.
func runSay(ctx context.Context, cfg *config.Config, text string) int {
	slog.Info("running text to speech synthesis test")
	pipeline, err := synth.Load(ctx, cfg, nil)
	if err != nil {
		slog.Error("failed to load synthesis pipeline", "error", err)
		return 1
	}
	defer onnx.Shutdown()
	defer pipeline.Close()

	if err := pipeline.Say(ctx, text); err != nil {
		slog.Error("say failed", "error", err)
		return 1
	}
	slog.Info("speech written", "path", cfg.Synthesis.OutputPath)
	return 0
}

// serve runs the daemon until ctx is cancelled and returns the exit code.
func serve(ctx context.Context, cfg *config.Config) int {
	collector := metrics.New()

	// Start health check server first so liveness works while models load.
	var metricsHandler http.Handler
	if cfg.Server.Metrics {
		metricsHandler = collector.Handler()
	}
	healthServer := health.New(cfg.Server.HealthPort, metricsHandler)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Load every model; a failure here is fatal.
	pipeline, err := synth.Load(ctx, cfg, collector)
	if err != nil {
		if errors.Is(err, synth.ErrConfigLoad) {
			slog.Error("failed to load synthesis pipeline", "error", err)
		} else {
			slog.Error("startup failed", "error", err)
		}
		return 1
	}
	defer onnx.Shutdown()
	defer pipeline.Close()

	// Initialize enabled transports.
	var transports []transport.Transport

	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port))
	}
	if cfg.Transports.MQTT.Enabled {
		transports = append(transports, mqtttransport.New(cfg.Transports.MQTT))
	}

	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		return 1
	}

	// Create the dispatcher.
	dispatcher := dispatch.New(pipeline)

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, dispatcher.Handle); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once models are loaded and transports are started.
	healthServer.SetReady(true)
	slog.Info("glados ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort,
		"sample_rate", pipeline.SampleRate(),
		"output", cfg.Synthesis.OutputPath)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("glados stopped")
	return 0
}
