package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/AAROliveira/astro-ai-deepseek/internal/chat"
)

type chatError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleChat implements POST /api/chat, relaying the upstream NDJSON stream
func (h *HTTPServer) handleChat(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	msgs, err := chat.ParseRequest(r.Body)
	if err != nil {
		logger.Warn("Chat request rejected", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, chatError{Error: "Error processing request", Message: err.Error()})
		return
	}

	body, err := h.chat.Open(r.Context(), msgs)
	if err != nil {
		logger.Error("Chat upstream failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, chatError{Error: "Error processing request", Message: err.Error()})
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", chat.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	var relayed int64
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				logger.Warn("Chat client went away", slog.String("error", werr.Error()))
				return
			}
			relayed += int64(n)
			if flusher != nil {
				flusher.Flush()
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// headers are already sent; the client sees a truncated stream
			logger.Error("Chat stream interrupted", slog.String("error", err.Error()))
			return
		}
	}

	logger.Debug("Chat stream complete", slog.Int64("bytes", relayed))
}
