package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/AAROliveira/astro-ai-deepseek/internal/audio"
)

const (
	uploadField       = "audio"
	defaultUploadExt  = ".wav"
	multipartMemLimit = 8 << 20
)

// ttsRequest is the body of POST /tts/. Pointers tell absent fields from empty ones.
type ttsRequest struct {
	Text        *string `json:"text"`
	VoicePreset *string `json:"voice_preset"`
}

type sttResponse struct {
	Text string `json:"text"`
}

// infer runs fn under the inference limiter. Waiting for a slot follows the
// request context; the call itself is detached from client cancellation.
func (h *HTTPServer) infer(ctx context.Context, model string, fn func(context.Context) error) error {
	if h.limiter != nil {
		if err := h.limiter.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("waiting for inference slot: %w", err)
		}
		defer h.limiter.Release(1)
	}

	h.metrics.InferenceStarted()
	start := time.Now()
	err := fn(context.WithoutCancel(ctx))
	h.metrics.RecordInference(model, err, time.Since(start).Seconds())

	return err
}

// handleSTT implements POST /stt/
func (h *HTTPServer) handleSTT(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	if !h.models.STTAvailable() {
		logger.Warn("STT model not loaded, rejecting request")
		writeDetail(w, http.StatusServiceUnavailable, "STT model is not available.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.config.HTTP.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemLimit); err != nil {
		h.rejectUpload(w, logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.rejectUpload(w, logger, err)
		return
	}
	defer file.Close()

	path, size, err := h.saveUpload(file, header)
	if path != "" {
		defer h.removeTemp(logger, path)
	}
	if err != nil {
		logger.Error("Failed to store upload", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Error during STT transcription: "+err.Error())
		return
	}

	h.metrics.RecordUpload(size)
	logger.Debug("Temporary audio file created",
		slog.String("path", path),
		slog.Int64("size", size),
	)

	var text string
	err = h.infer(r.Context(), h.models.STTModel, func(ctx context.Context) error {
		var err error
		text, err = h.models.STT.Transcribe(ctx, path)
		return err
	})
	if err != nil {
		logger.Error("STT transcription failed", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Error during STT transcription: "+err.Error())
		return
	}

	logger.Info("STT transcription successful",
		slog.Int("chars", len(text)),
	)

	writeJSON(w, http.StatusOK, sttResponse{Text: text})
}

func (h *HTTPServer) rejectUpload(w http.ResponseWriter, logger *slog.Logger, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		logger.Warn("Upload rejected: too large", slog.Int64("limit", tooLarge.Limit))
		writeDetail(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Upload exceeds %d bytes.", tooLarge.Limit))
		return
	}

	logger.Warn("Upload rejected", slog.String("error", err.Error()))
	writeDetail(w, http.StatusUnprocessableEntity,
		fmt.Sprintf("Multipart field %q is required: %v", uploadField, err))
}

// saveUpload copies the uploaded blob into a uniquely named temp file.
// The returned path is non-empty whenever a file was created, even on error.
func (h *HTTPServer) saveUpload(src multipart.File, header *multipart.FileHeader) (string, int64, error) {
	ext := filepath.Ext(header.Filename)
	if ext == "" || len(ext) > 16 {
		ext = defaultUploadExt
	}

	dir := h.config.HTTP.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, "stt-"+uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return path, size, fmt.Errorf("failed to write temp file: %w", err)
	}

	return path, size, nil
}

// removeTemp deletes path. Failures are logged and counted, never returned.
func (h *HTTPServer) removeTemp(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.metrics.RecordTempCleanupFailure()
		logger.Warn("Error removing temporary STT file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("Temporary STT file removed", slog.String("path", path))
}

// handleTTS implements POST /tts/
func (h *HTTPServer) handleTTS(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	if !h.models.TTSAvailable() || h.segmenter == nil {
		logger.Warn("TTS model not loaded, rejecting request")
		writeDetail(w, http.StatusServiceUnavailable, "TTS service is not available.")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == nil {
		writeDetail(w, http.StatusUnprocessableEntity, `Field "text" is required.`)
		return
	}

	text := *req.Text
	if strings.TrimSpace(text) == "" {
		logger.Info("TTS request text is empty")
		writeDetail(w, http.StatusBadRequest, "Text cannot be empty.")
		return
	}

	preset := h.config.TTS.DefaultVoicePreset
	if req.VoicePreset != nil && strings.TrimSpace(*req.VoicePreset) != "" {
		preset = *req.VoicePreset
	}

	logger.Info("Received TTS request",
		slog.String("preview", preview(text, 50)),
		slog.String("voice_preset", preset),
	)

	var wav []byte
	err := h.infer(r.Context(), h.models.TTSModel, func(ctx context.Context) error {
		result, err := h.segmenter.Synthesize(ctx, text, preset)
		if err != nil {
			return err
		}

		h.metrics.RecordSynthesis(result.Sentences, result.Audio.Duration().Seconds())

		wav, err = audio.EncodeWAV(result.Audio)
		return err
	})
	if err != nil {
		logger.Error("TTS synthesis failed", slog.String("error", err.Error()))
		writeDetail(w, http.StatusInternalServerError, "Error during TTS synthesis: "+err.Error())
		return
	}

	logger.Info("TTS synthesis successful", slog.Int("bytes", len(wav)))

	w.Header().Set("Content-Type", audio.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(wav); err != nil {
		logger.Warn("Failed to write TTS response", slog.String("error", err.Error()))
	}
}

// preview truncates s to n runes for log lines
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
