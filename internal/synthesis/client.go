package synthesis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AAROliveira/astro-ai-deepseek/internal/audio"
)

// Client synthesizes single utterances through an OpenAI-compatible
// /audio/speech backend serving a generative voice model (e.g. Bark on LocalAI).
// The backend is asked for WAV so the raw waveform and its sample rate survive.
type Client struct {
	config Config
	api    *openai.Client
}

// Config contains synthesis client configuration
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// NewClient creates a new synthesis client
func NewClient(config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	apiConfig := openai.DefaultConfig(config.APIKey)
	apiConfig.BaseURL = config.Endpoint
	apiConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Client{
		config: config,
		api:    openai.NewClientWithConfig(apiConfig),
	}, nil
}

// Model returns the configured model id
func (c *Client) Model() string {
	return c.config.Model
}

// Probe checks that the backend serves the configured model
func (c *Client) Probe(ctx context.Context) error {
	if _, err := c.api.GetModel(ctx, c.config.Model); err != nil {
		return fmt.Errorf("model %s not available at %s: %w", c.config.Model, c.config.Endpoint, err)
	}
	return nil
}

// Synthesize generates speech for text with the given voice preset and
// returns the decoded waveform at the model's native sample rate
func (c *Client) Synthesize(ctx context.Context, text, voicePreset string) (audio.Waveform, error) {
	resp, err := c.api.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(voicePreset),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return audio.Waveform{}, err
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to read speech response: %w", err)
	}

	w, err := audio.DecodeWAV(data)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("failed to decode speech response: %w", err)
	}

	return w, nil
}
