package synthesis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AAROliveira/astro-ai-deepseek/internal/audio"
)

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func newBackend(t *testing.T, speech http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models/suno/bark-small", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "suno/bark-small", "object": "model"})
	})
	if speech != nil {
		mux.HandleFunc("/v1/audio/speech", speech)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Model: "suno/bark-small"})
	assert.Error(t, err)

	_, err = NewClient(Config{Endpoint: "http://localhost/v1"})
	assert.Error(t, err)
}

func TestSynthesize(t *testing.T) {
	var got speechRequest
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&got)) {
			return
		}

		wav, err := audio.EncodePCM16([]int16{16384, -16384, 0}, 24000)
		if !assert.NoError(t, err) {
			return
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wav)
	})

	c, err := NewClient(Config{Endpoint: srv.URL + "/v1", Model: "suno/bark-small"})
	require.NoError(t, err)

	wave, err := c.Synthesize(context.Background(), "Hello.", "v2/en_speaker_1")
	require.NoError(t, err)

	assert.Equal(t, speechRequest{
		Model:          "suno/bark-small",
		Input:          "Hello.",
		Voice:          "v2/en_speaker_1",
		ResponseFormat: "wav",
	}, got)
	assert.Equal(t, 24000, wave.SampleRate)
	assert.Equal(t, []float32{0.5, -0.5, 0}, wave.Samples)
}

func TestSynthesizeBackendError(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "CUDA out of memory", "type": "server_error"},
		})
	})

	c, err := NewClient(Config{Endpoint: srv.URL + "/v1", Model: "suno/bark-small"})
	require.NoError(t, err)

	_, err = c.Synthesize(context.Background(), "Hello.", "v2/en_speaker_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

func TestSynthesizeUndecodableAudio(t *testing.T) {
	srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-not-a-wav-file-at-all"))
	})

	c, err := NewClient(Config{Endpoint: srv.URL + "/v1", Model: "suno/bark-small"})
	require.NoError(t, err)

	_, err = c.Synthesize(context.Background(), "Hello.", "v2/en_speaker_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode speech response")
}

func TestProbe(t *testing.T) {
	srv := newBackend(t, nil)

	c, err := NewClient(Config{Endpoint: srv.URL + "/v1", Model: "suno/bark-small"})
	require.NoError(t, err)
	assert.NoError(t, c.Probe(context.Background()))

	missing, err := NewClient(Config{Endpoint: srv.URL + "/v1", Model: "suno/bark"})
	require.NoError(t, err)
	assert.Error(t, missing.Probe(context.Background()))
}
