package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"

	"github.com/AAROliveira/astro-ai-deepseek/internal/chat"
	"github.com/AAROliveira/astro-ai-deepseek/internal/config"
	"github.com/AAROliveira/astro-ai-deepseek/internal/metrics"
	"github.com/AAROliveira/astro-ai-deepseek/internal/models"
	"github.com/AAROliveira/astro-ai-deepseek/internal/segment"
	"github.com/AAROliveira/astro-ai-deepseek/internal/transcription"
)

const (
	serviceName    = "astro-voice-service"
	serviceVersion = "1.0.0"
)

// ChatStreamer opens a streaming chat completion
type ChatStreamer interface {
	Open(ctx context.Context, msgs []chat.Message) (io.ReadCloser, error)
}

// Deps are the collaborators the HTTP server is built from.
// Chat may be nil, which disables /api/chat.
type Deps struct {
	Models   *models.Set
	Chat     ChatStreamer
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// HTTPServer serves the speech endpoints, the chat proxy and monitoring routes
type HTTPServer struct {
	server    *http.Server
	router    chi.Router
	logger    *slog.Logger
	config    *config.Config
	models    *models.Set
	segmenter *segment.Segmenter
	chat      ChatStreamer
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	limiter   *semaphore.Weighted // nil means unlimited

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg *config.Config, deps Deps) *HTTPServer {
	h := &HTTPServer{
		logger:    deps.Logger,
		config:    cfg,
		models:    deps.Models,
		chat:      deps.Chat,
		metrics:   deps.Metrics,
		gatherer:  deps.Gatherer,
		startTime: time.Now(),
	}

	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}

	if cfg.Inference.MaxConcurrent > 0 {
		h.limiter = semaphore.NewWeighted(int64(cfg.Inference.MaxConcurrent))
	}

	if h.models.TTSAvailable() {
		h.segmenter = segment.New(h.models.Tokenizer, h.models.TTS, segment.Options{
			Gap:        cfg.TTS.GetSilenceDuration(),
			SampleRate: cfg.TTS.SampleRate,
		}, h.logger)
	}

	h.router = chi.NewRouter()
	h.setupRoutes(h.router)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      h.router,
		ReadTimeout:  cfg.HTTP.GetReadTimeout(),
		WriteTimeout: cfg.HTTP.GetWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the routed handler without a listener
func (h *HTTPServer) Handler() http.Handler {
	return h.router
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: h.config.CORS.AllowCredentials,
		MaxAge:           600,
	}))

	// Speech endpoints, with and without the trailing slash
	for _, path := range []string{"/stt/", "/stt"} {
		r.Post(path, h.withMetrics("/stt/", h.handleSTT))
	}
	for _, path := range []string{"/tts/", "/tts"} {
		r.Post(path, h.withMetrics("/tts/", h.handleTTS))
	}

	if h.chat != nil {
		r.Post("/api/chat", h.withMetrics("/api/chat", h.handleChat))
	}

	r.Get("/health", h.withMetrics("/health", h.handleHealth))
	r.Get("/config", h.withMetrics("/config", h.handleConfig))
	r.Get("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Get("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Wrapper keeps http.Flusher so streamed responses still flush
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		handler(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, strconv.Itoa(status), duration)

		if status >= 400 {
			errorType := "client_error"
			if status >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes the {"detail": ...} error body used by the speech endpoints
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"stt": map[string]interface{}{
				"model":     h.models.STTModel,
				"available": h.models.STTAvailable(),
			},
			"tts": map[string]interface{}{
				"model":     h.models.TTSModel,
				"available": h.models.TTSAvailable(),
			},
			"chat": map[string]interface{}{
				"enabled": h.chat != nil,
			},
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	// Return sanitized configuration (remove sensitive data)
	sanitizedConfig := map[string]interface{}{
		"http": map[string]interface{}{
			"port":            h.config.HTTP.Port,
			"address":         h.config.HTTP.Address,
			"read_timeout":    h.config.HTTP.ReadTimeout,
			"write_timeout":   h.config.HTTP.WriteTimeout,
			"max_upload_size": h.config.HTTP.MaxUploadSize,
		},
		"cors": map[string]interface{}{
			"allowed_origins":   h.config.CORS.AllowedOrigins,
			"allow_credentials": h.config.CORS.AllowCredentials,
		},
		"stt": map[string]interface{}{
			"endpoint":    h.config.STT.Endpoint,
			"model":       h.config.STT.Model,
			"language":    h.config.STT.Language,
			"timeout":     h.config.STT.Timeout,
			"max_retries": h.config.STT.MaxRetries,
			// Note: API key is intentionally omitted for security
		},
		"tts": map[string]interface{}{
			"endpoint":             h.config.TTS.Endpoint,
			"model":                h.config.TTS.Model,
			"timeout":              h.config.TTS.Timeout,
			"default_voice_preset": h.config.TTS.DefaultVoicePreset,
			"silence_duration":     h.config.TTS.SilenceDuration,
			"sentence_language":    h.config.TTS.SentenceLanguage,
		},
		"inference": map[string]interface{}{
			"max_concurrent": h.config.Inference.MaxConcurrent,
			"load_timeout":   h.config.Inference.LoadTimeout,
		},
		"chat": map[string]interface{}{
			"enabled":  h.config.Chat.Enabled,
			"endpoint": h.config.Chat.Endpoint,
			"model":    h.config.Chat.Model,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	writeJSON(w, http.StatusOK, sanitizedConfig)
}

type statsReporter interface {
	GetStats() transcription.ClientStats
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
	}

	if sr, ok := h.models.STT.(statsReporter); ok {
		stats["transcription"] = sr.GetStats()
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]interface{}{
		"GET /":        "API documentation",
		"GET /health":  "Service health check",
		"GET /config":  "Get service configuration",
		"GET /stats":   "Get service statistics",
		"GET /metrics": "Prometheus metrics",
		"POST /stt/":   "Transcribe an uploaded audio file (multipart field \"audio\")",
		"POST /tts/":   "Synthesize speech from {\"text\", \"voice_preset\"} as WAV",
	}
	if h.chat != nil {
		endpoints["POST /api/chat"] = "Stream a chat completion as NDJSON"
	}

	apiDoc := map[string]interface{}{
		"service":   serviceName,
		"version":   serviceVersion,
		"endpoints": endpoints,
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, apiDoc)
}
