package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ContentType is the media type of the relayed stream
const ContentType = "application/x-ndjson"

// ErrInvalidMessages is returned when a request body does not carry a list of
// role/content messages
var ErrInvalidMessages = errors.New("invalid messages format")

var validRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// inbound keeps pointers so absent fields can be told apart from empty ones
type inbound struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// ParseRequest decodes a {"messages": [...]} body and validates every message
func ParseRequest(r io.Reader) ([]Message, error) {
	var body struct {
		Messages json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}

	raw := bytes.TrimSpace(body.Messages)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrInvalidMessages
	}

	var in []inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, ErrInvalidMessages
	}

	return validateMessages(in)
}

// validateMessages checks roles and content and returns the accepted messages
func validateMessages(in []inbound) ([]Message, error) {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		if m.Role == nil || m.Content == nil || !validRoles[*m.Role] {
			return nil, ErrInvalidMessages
		}
		out = append(out, Message{Role: *m.Role, Content: *m.Content})
	}
	return out, nil
}

// Config contains chat proxy configuration
type Config struct {
	Endpoint     string
	Model        string
	SystemPrompt string
	Timeout      time.Duration // zero disables
}

// Proxy opens streaming chat completions against an Ollama server
type Proxy struct {
	config     Config
	httpClient *http.Client
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// NewProxy creates a proxy for the Ollama server at cfg.Endpoint
func NewProxy(cfg Config) (*Proxy, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	return &Proxy{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Model returns the upstream model name
func (p *Proxy) Model() string {
	return p.config.Model
}

// Open sends msgs, preceded by the system prompt, and returns the upstream
// NDJSON body. The caller must close it.
func (p *Proxy) Open(ctx context.Context, msgs []Message) (io.ReadCloser, error) {
	all := make([]Message, 0, len(msgs)+1)
	if p.config.SystemPrompt != "" {
		all = append(all, Message{Role: "system", Content: p.config.SystemPrompt})
	}
	all = append(all, msgs...)

	payload, err := json.Marshal(chatRequest{Model: p.config.Model, Messages: all})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Endpoint+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", ContentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("chat upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return resp.Body, nil
}
