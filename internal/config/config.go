package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	CORS      CORSConfig      `yaml:"cors"`
	STT       STTConfig       `yaml:"stt"`
	TTS       TTSConfig       `yaml:"tts"`
	Inference InferenceConfig `yaml:"inference"`
	Chat      ChatConfig      `yaml:"chat"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port          int    `yaml:"port"`
	Address       string `yaml:"address"`
	ReadTimeout   int    `yaml:"read_timeout"`    // seconds
	WriteTimeout  int    `yaml:"write_timeout"`   // seconds, 0 disables
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes
	TempDir       string `yaml:"temp_dir"`
}

// CORSConfig lists the browser origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// STTConfig contains transcription backend configuration
type STTConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Language   string `yaml:"language"`
	Timeout    int    `yaml:"timeout"` // seconds
	MaxRetries int    `yaml:"max_retries"`
	SkipProbe  bool   `yaml:"skip_probe"`
}

// TTSConfig contains synthesis backend configuration
type TTSConfig struct {
	Endpoint           string  `yaml:"endpoint"`
	APIKey             string  `yaml:"api_key"`
	Model              string  `yaml:"model"`
	Timeout            int     `yaml:"timeout"` // seconds
	DefaultVoicePreset string  `yaml:"default_voice_preset"`
	SampleRate         int     `yaml:"sample_rate"`
	SilenceDuration    float64 `yaml:"silence_duration"` // seconds
	SentenceLanguage   string  `yaml:"sentence_language"`
	SkipProbe          bool    `yaml:"skip_probe"`
}

// InferenceConfig controls how model calls are scheduled
type InferenceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"` // 0 means unlimited
	LoadTimeout   int `yaml:"load_timeout"`   // seconds
}

// ChatConfig contains the chat proxy configuration
type ChatConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
	Timeout      int    `yaml:"timeout"` // seconds, 0 disables
}

// OllamaConfig describes the local runtime launched by cmd/ollama
type OllamaConfig struct {
	Binary  string `yaml:"binary"`
	Model   string `yaml:"model"`
	Threads int    `yaml:"threads"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// DefaultSystemPrompt is sent ahead of every chat conversation.
const DefaultSystemPrompt = "Você é um assistente de IA chamado Gemma 3. Responda sempre como Gemma e ajude o usuário da melhor forma possível. Tente responder utilizando o mesmo idioma falado pelo usuário."

// Default returns the configuration used when a field is absent from the file
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:          8008,
			Address:       "0.0.0.0",
			ReadTimeout:   30,
			WriteTimeout:  0,
			MaxUploadSize: 25 << 20,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost",
				"http://localhost:4321",
				"http://localhost:3000",
			},
			AllowCredentials: true,
		},
		STT: STTConfig{
			Endpoint: "http://localhost:9000/v1",
			Model:    "base.en",
			Timeout:  300,
		},
		TTS: TTSConfig{
			Endpoint:           "http://localhost:8080/v1",
			Model:              "suno/bark-small",
			Timeout:            600,
			DefaultVoicePreset: "v2/en_speaker_1",
			SampleRate:         24000,
			SilenceDuration:    0.25,
			SentenceLanguage:   "english",
		},
		Inference: InferenceConfig{
			MaxConcurrent: 0,
			LoadTimeout:   30,
		},
		Chat: ChatConfig{
			Enabled:      true,
			Endpoint:     "http://localhost:11434",
			Model:        "gemma3:12b",
			SystemPrompt: DefaultSystemPrompt,
		},
		Ollama: OllamaConfig{
			Binary:  "ollama",
			Model:   "gemma3:1b",
			Threads: 16,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads and parses the configuration file on top of Default,
// then applies environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyEnv overrides endpoints and secrets from the environment.
// lookup has the signature of os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(&c.STT.Endpoint, "STT_ENDPOINT")
	set(&c.STT.APIKey, "STT_API_KEY")
	set(&c.STT.Model, "STT_MODEL")
	set(&c.TTS.Endpoint, "TTS_ENDPOINT")
	set(&c.TTS.APIKey, "TTS_API_KEY")
	set(&c.TTS.Model, "TTS_MODEL")
	set(&c.Chat.Endpoint, "OLLAMA_HOST")
	set(&c.Logging.Level, "LOG_LEVEL")
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.STT.Validate(); err != nil {
		return fmt.Errorf("stt config: %w", err)
	}

	if err := c.TTS.Validate(); err != nil {
		return fmt.Errorf("tts config: %w", err)
	}

	if err := c.Inference.Validate(); err != nil {
		return fmt.Errorf("inference config: %w", err)
	}

	if err := c.Chat.Validate(); err != nil {
		return fmt.Errorf("chat config: %w", err)
	}

	if err := c.Ollama.Validate(); err != nil {
		return fmt.Errorf("ollama config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("http address cannot be empty")
	}

	if h.ReadTimeout < 1 {
		return fmt.Errorf("read_timeout must be at least 1 second, got %d", h.ReadTimeout)
	}

	if h.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative, got %d", h.WriteTimeout)
	}

	if h.MaxUploadSize < 1024 {
		return fmt.Errorf("max_upload_size must be at least 1024 bytes, got %d", h.MaxUploadSize)
	}

	return nil
}

// Validate validates transcription backend configuration.
// An empty endpoint is allowed: the model is then reported unavailable.
func (s *STTConfig) Validate() error {
	if s.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if s.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", s.Timeout)
	}

	if s.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", s.MaxRetries)
	}

	return nil
}

// Validate validates synthesis backend configuration
func (t *TTSConfig) Validate() error {
	if t.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	if t.DefaultVoicePreset == "" {
		return fmt.Errorf("default_voice_preset cannot be empty")
	}

	if t.SampleRate < 1 {
		return fmt.Errorf("sample_rate must be positive, got %d", t.SampleRate)
	}

	if t.SilenceDuration < 0 {
		return fmt.Errorf("silence_duration cannot be negative, got %f", t.SilenceDuration)
	}

	if t.SentenceLanguage == "" {
		return fmt.Errorf("sentence_language cannot be empty")
	}

	return nil
}

// Validate validates inference scheduling configuration
func (i *InferenceConfig) Validate() error {
	if i.MaxConcurrent < 0 {
		return fmt.Errorf("max_concurrent cannot be negative, got %d", i.MaxConcurrent)
	}

	if i.LoadTimeout < 1 {
		return fmt.Errorf("load_timeout must be at least 1 second, got %d", i.LoadTimeout)
	}

	return nil
}

// Validate validates chat proxy configuration
func (c *ChatConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty when chat is enabled")
	}

	if c.Model == "" {
		return fmt.Errorf("model cannot be empty when chat is enabled")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %d", c.Timeout)
	}

	return nil
}

// Validate validates the runtime launcher configuration
func (o *OllamaConfig) Validate() error {
	if o.Binary == "" {
		return fmt.Errorf("binary cannot be empty")
	}

	if o.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if o.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", o.Threads)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output is stdout, stderr or a file path

	return nil
}

// GetReadTimeout returns the read timeout as a time.Duration
func (h *HTTPConfig) GetReadTimeout() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the write timeout as a time.Duration
func (h *HTTPConfig) GetWriteTimeout() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (s *STTConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// GetTimeoutDuration returns the synthesis timeout as a time.Duration
func (t *TTSConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// GetSilenceDuration returns the inter-sentence gap as a time.Duration
func (t *TTSConfig) GetSilenceDuration() time.Duration {
	return time.Duration(t.SilenceDuration * float64(time.Second))
}

// GetLoadTimeout returns the per-model startup probe timeout
func (i *InferenceConfig) GetLoadTimeout() time.Duration {
	return time.Duration(i.LoadTimeout) * time.Second
}

// GetTimeoutDuration returns the chat upstream timeout, zero meaning none
func (c *ChatConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}
