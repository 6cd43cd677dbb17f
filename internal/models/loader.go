package models

import (
	"context"
	"log/slog"
	"time"

	"github.com/AAROliveira/astro-ai-deepseek/internal/audio"
	"github.com/AAROliveira/astro-ai-deepseek/internal/segment"
	"github.com/AAROliveira/astro-ai-deepseek/internal/synthesis"
	"github.com/AAROliveira/astro-ai-deepseek/internal/transcription"
)

// Transcriber converts an audio file on disk into text
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Synthesizer converts one utterance into a waveform
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voicePreset string) (audio.Waveform, error)
}

// Set holds the process-wide model handles. A nil handle means the model
// failed to load; the Set is never mutated after Load returns.
type Set struct {
	STT       Transcriber
	TTS       Synthesizer
	Tokenizer segment.Tokenizer

	STTModel string
	TTSModel string
}

// STTAvailable reports whether transcription can be served
func (s *Set) STTAvailable() bool {
	return s != nil && s.STT != nil
}

// TTSAvailable reports whether synthesis can be served
func (s *Set) TTSAvailable() bool {
	return s != nil && s.TTS != nil
}

// Options describes which backends to load
type Options struct {
	STT              transcription.Config
	TTS              synthesis.Config
	SentenceLanguage string
	// LoadTimeout bounds each backend probe
	LoadTimeout  time.Duration
	SkipSTTProbe bool
	SkipTTSProbe bool
}

type prober interface {
	Probe(ctx context.Context) error
}

// Load builds both model handles once. A handle that cannot be built or
// whose backend does not serve the model is logged and left nil; Load itself
// never fails.
func Load(ctx context.Context, opts Options, logger *slog.Logger) *Set {
	set := &Set{
		STTModel: opts.STT.Model,
		TTSModel: opts.TTS.Model,
	}

	logger.Info("Loading STT model",
		slog.String("model", opts.STT.Model),
		slog.String("endpoint", opts.STT.Endpoint),
	)
	if stt, err := transcription.NewClient(opts.STT); err != nil {
		logger.Error("Error loading STT model", slog.String("model", opts.STT.Model), slog.String("error", err.Error()))
	} else if err := probe(ctx, stt, opts.LoadTimeout, opts.SkipSTTProbe); err != nil {
		logger.Error("Error loading STT model", slog.String("model", opts.STT.Model), slog.String("error", err.Error()))
	} else {
		set.STT = stt
		logger.Info("STT model loaded successfully", slog.String("model", opts.STT.Model))
	}

	tokenizer, err := segment.NewPunktTokenizer(opts.SentenceLanguage)
	if err != nil {
		logger.Warn("Sentence tokenizer unavailable, long texts will be synthesized in one pass",
			slog.String("language", opts.SentenceLanguage),
			slog.String("error", err.Error()),
		)
		set.Tokenizer = segment.WholeText{}
	} else {
		set.Tokenizer = tokenizer
	}

	logger.Info("Loading TTS model",
		slog.String("model", opts.TTS.Model),
		slog.String("endpoint", opts.TTS.Endpoint),
	)
	if tts, err := synthesis.NewClient(opts.TTS); err != nil {
		logger.Error("Error loading TTS model", slog.String("model", opts.TTS.Model), slog.String("error", err.Error()))
	} else if err := probe(ctx, tts, opts.LoadTimeout, opts.SkipTTSProbe); err != nil {
		logger.Error("Error loading TTS model", slog.String("model", opts.TTS.Model), slog.String("error", err.Error()))
	} else {
		set.TTS = tts
		logger.Info("TTS model loaded successfully", slog.String("model", opts.TTS.Model))
	}

	return set
}

func probe(ctx context.Context, p prober, timeout time.Duration, skip bool) error {
	if skip {
		return nil
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	return p.Probe(ctx)
}
