package models

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AAROliveira/astro-ai-deepseek/internal/segment"
	"github.com/AAROliveira/astro-ai-deepseek/internal/synthesis"
	"github.com/AAROliveira/astro-ai-deepseek/internal/transcription"
)

// modelServer serves GET /v1/models/{id} for the listed ids only
func modelServer(t *testing.T, ids ...string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	for _, id := range ids {
		id := id
		mux.HandleFunc("/v1/models/"+id, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"id": id, "object": "model"})
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestLoadBothAvailable(t *testing.T) {
	srv := modelServer(t, "base.en", "suno/bark-small")
	logger, _ := bufferLogger()

	set := Load(context.Background(), Options{
		STT:              transcription.Config{Endpoint: srv.URL + "/v1", Model: "base.en"},
		TTS:              synthesis.Config{Endpoint: srv.URL + "/v1", Model: "suno/bark-small"},
		SentenceLanguage: "english",
		LoadTimeout:      5 * time.Second,
	}, logger)

	assert.True(t, set.STTAvailable())
	assert.True(t, set.TTSAvailable())
	assert.IsType(t, &segment.PunktTokenizer{}, set.Tokenizer)
	assert.Equal(t, "base.en", set.STTModel)
	assert.Equal(t, "suno/bark-small", set.TTSModel)
}

func TestLoadToleratesIndividualFailure(t *testing.T) {
	srv := modelServer(t, "suno/bark-small")
	logger, logs := bufferLogger()

	set := Load(context.Background(), Options{
		STT:              transcription.Config{Endpoint: srv.URL + "/v1", Model: "base.en"},
		TTS:              synthesis.Config{Endpoint: srv.URL + "/v1", Model: "suno/bark-small"},
		SentenceLanguage: "english",
		LoadTimeout:      5 * time.Second,
	}, logger)

	require.NotNil(t, set)
	assert.False(t, set.STTAvailable())
	assert.Nil(t, set.STT, "failed handle must be a true nil interface")
	assert.True(t, set.TTSAvailable())
	assert.Contains(t, logs.String(), "Error loading STT model")
}

func TestLoadMissingEndpoint(t *testing.T) {
	logger, logs := bufferLogger()

	set := Load(context.Background(), Options{
		STT:              transcription.Config{Model: "base.en"},
		TTS:              synthesis.Config{Model: "suno/bark-small"},
		SentenceLanguage: "english",
	}, logger)

	assert.False(t, set.STTAvailable())
	assert.False(t, set.TTSAvailable())
	assert.Contains(t, logs.String(), "endpoint cannot be empty")
}

func TestLoadSkipProbe(t *testing.T) {
	logger, _ := bufferLogger()

	// nothing listens here; skipping the probe still yields handles
	set := Load(context.Background(), Options{
		STT:              transcription.Config{Endpoint: "http://127.0.0.1:1/v1", Model: "base.en"},
		TTS:              synthesis.Config{Endpoint: "http://127.0.0.1:1/v1", Model: "suno/bark-small"},
		SentenceLanguage: "english",
		SkipSTTProbe:     true,
		SkipTTSProbe:     true,
	}, logger)

	assert.True(t, set.STTAvailable())
	assert.True(t, set.TTSAvailable())
}

func TestLoadTokenizerFallback(t *testing.T) {
	logger, logs := bufferLogger()

	set := Load(context.Background(), Options{
		STT:              transcription.Config{Model: "base.en"},
		TTS:              synthesis.Config{Model: "suno/bark-small"},
		SentenceLanguage: "klingon",
	}, logger)

	assert.Equal(t, segment.WholeText{}, set.Tokenizer)
	assert.Contains(t, logs.String(), "Sentence tokenizer unavailable")
}

func TestNilSetAvailability(t *testing.T) {
	var set *Set
	assert.False(t, set.STTAvailable())
	assert.False(t, set.TTSAvailable())
}
