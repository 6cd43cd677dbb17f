package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice service
type Metrics struct {
	// Model availability
	ModelAvailable *prometheus.GaugeVec

	// Inference metrics
	InferenceRequests *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	InferenceInFlight prometheus.Gauge

	// Synthesis shape
	SynthesisSentences prometheus.Histogram
	SynthesisAudio     prometheus.Histogram

	// Upload handling
	UploadSize          prometheus.Histogram
	TempCleanupFailures prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ModelAvailable: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "voice_model_available",
			Help: "Whether a model handle loaded at startup (1) or not (0)",
		}, []string{"model"}),

		InferenceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_inference_requests_total",
			Help: "Total number of model inference calls",
		}, []string{"model", "outcome"}),
		InferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_inference_duration_seconds",
			Help:    "Duration of model inference calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5 minutes
		}, []string{"model"}),
		InferenceInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "voice_inference_in_flight",
			Help: "Current number of running inference calls",
		}),

		SynthesisSentences: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_synthesis_sentences",
			Help:    "Number of sentences per synthesis request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		}),
		SynthesisAudio: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_synthesis_audio_seconds",
			Help:    "Duration of synthesized audio returned to clients",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),

		UploadSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "voice_upload_size_bytes",
			Help:    "Size of uploaded audio files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
		}),
		TempCleanupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "voice_temp_cleanup_failures_total",
			Help: "Total number of temporary upload files that could not be removed",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voice_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voice_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// SetModelAvailable records whether the named model loaded
func (m *Metrics) SetModelAvailable(model string, available bool) {
	v := 0.0
	if available {
		v = 1
	}
	m.ModelAvailable.WithLabelValues(model).Set(v)
}

// InferenceStarted marks an inference call as running
func (m *Metrics) InferenceStarted() {
	m.InferenceInFlight.Inc()
}

// RecordInference records a finished inference call
func (m *Metrics) RecordInference(model string, err error, durationSeconds float64) {
	m.InferenceInFlight.Dec()

	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.InferenceRequests.WithLabelValues(model, outcome).Inc()
	m.InferenceDuration.WithLabelValues(model).Observe(durationSeconds)
}

// RecordSynthesis records the shape of a completed synthesis
func (m *Metrics) RecordSynthesis(sentences int, audioSeconds float64) {
	m.SynthesisSentences.Observe(float64(sentences))
	m.SynthesisAudio.Observe(audioSeconds)
}

// RecordUpload records the size of an uploaded audio file
func (m *Metrics) RecordUpload(sizeBytes int64) {
	m.UploadSize.Observe(float64(sizeBytes))
}

// RecordTempCleanupFailure increments the cleanup failure counter
func (m *Metrics) RecordTempCleanupFailure() {
	m.TempCleanupFailures.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
