package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AAROliveira/astro-ai-deepseek/internal/chat"
	"github.com/AAROliveira/astro-ai-deepseek/internal/config"
	"github.com/AAROliveira/astro-ai-deepseek/internal/metrics"
	"github.com/AAROliveira/astro-ai-deepseek/internal/models"
	"github.com/AAROliveira/astro-ai-deepseek/internal/server"
	"github.com/AAROliveira/astro-ai-deepseek/internal/synthesis"
	"github.com/AAROliveira/astro-ai-deepseek/internal/transcription"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "astro-voice-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		slog.String("stt_endpoint", cfg.STT.Endpoint),
		slog.String("stt_model", cfg.STT.Model),
		slog.String("tts_endpoint", cfg.TTS.Endpoint),
		slog.String("tts_model", cfg.TTS.Model),
		slog.Int("max_concurrent_inference", cfg.Inference.MaxConcurrent),
		slog.Bool("chat_enabled", cfg.Chat.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)
	logger.Info("Prometheus metrics initialized")

	// Load model handles once; failures degrade the endpoint, not the process
	modelSet := models.Load(ctx, models.Options{
		STT: transcription.Config{
			Endpoint:   cfg.STT.Endpoint,
			APIKey:     cfg.STT.APIKey,
			Model:      cfg.STT.Model,
			Language:   cfg.STT.Language,
			Timeout:    cfg.STT.GetTimeoutDuration(),
			MaxRetries: cfg.STT.MaxRetries,
		},
		TTS: synthesis.Config{
			Endpoint: cfg.TTS.Endpoint,
			APIKey:   cfg.TTS.APIKey,
			Model:    cfg.TTS.Model,
			Timeout:  cfg.TTS.GetTimeoutDuration(),
		},
		SentenceLanguage: cfg.TTS.SentenceLanguage,
		LoadTimeout:      cfg.Inference.GetLoadTimeout(),
		SkipSTTProbe:     cfg.STT.SkipProbe,
		SkipTTSProbe:     cfg.TTS.SkipProbe,
	}, logger)

	appMetrics.SetModelAvailable("stt", modelSet.STTAvailable())
	appMetrics.SetModelAvailable("tts", modelSet.TTSAvailable())

	deps := server.Deps{
		Models:   modelSet,
		Metrics:  appMetrics,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logger,
	}

	// Initialize chat proxy (if enabled)
	if cfg.Chat.Enabled {
		proxy, err := chat.NewProxy(chat.Config{
			Endpoint:     cfg.Chat.Endpoint,
			Model:        cfg.Chat.Model,
			SystemPrompt: cfg.Chat.SystemPrompt,
			Timeout:      cfg.Chat.GetTimeoutDuration(),
		})
		if err != nil {
			logger.Error("Failed to create chat proxy", slog.String("error", err.Error()))
			os.Exit(1)
		}
		deps.Chat = proxy
		logger.Info("Chat proxy initialized",
			slog.String("endpoint", cfg.Chat.Endpoint),
			slog.String("model", proxy.Model()),
		)
	}

	// Initialize HTTP API server
	httpServer := server.NewHTTPServer(cfg, deps)

	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.Bool("stt_available", modelSet.STTAvailable()),
		slog.Bool("tts_available", modelSet.TTSAvailable()),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// In-flight synthesis can take minutes; give it the backend timeout to finish
	shutdownTimeout := cfg.TTS.GetTimeoutDuration()
	if shutdownTimeout < 10*time.Second {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler).With(slog.String("service", serviceName))
}
