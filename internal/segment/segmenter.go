package segment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AAROliveira/astro-ai-deepseek/internal/audio"
)

// DefaultGap is the silence inserted between consecutive sentences
const DefaultGap = 250 * time.Millisecond

// Synthesizer turns one sentence into a waveform using a voice preset
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voicePreset string) (audio.Waveform, error)
}

// Options tunes long-form synthesis
type Options struct {
	// Gap is the silence between consecutive sentences
	Gap time.Duration
	// SampleRate labels the output when no sentence was synthesized
	SampleRate int
}

// Result is the stitched output of a long-form synthesis
type Result struct {
	Audio     audio.Waveform
	Sentences int
}

// Segmenter synthesizes long text sentence by sentence and stitches the
// pieces together with fixed silence gaps
type Segmenter struct {
	tokenizer Tokenizer
	synth     Synthesizer
	opts      Options
	logger    *slog.Logger
}

// New creates a Segmenter
func New(tokenizer Tokenizer, synth Synthesizer, opts Options, logger *slog.Logger) *Segmenter {
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	return &Segmenter{
		tokenizer: tokenizer,
		synth:     synth,
		opts:      opts,
		logger:    logger,
	}
}

// Synthesize splits text into sentences, synthesizes each independently
// with voicePreset, and joins them in order. Zero sentences yield an empty
// waveform, not an error.
func (s *Segmenter) Synthesize(ctx context.Context, text, voicePreset string) (*Result, error) {
	sentences := s.tokenizer.Sentences(text)

	s.logger.Debug("Starting long-form synthesis",
		slog.Int("sentences", len(sentences)),
		slog.String("voice_preset", voicePreset),
	)

	if len(sentences) == 0 {
		return &Result{Audio: audio.Waveform{SampleRate: s.opts.SampleRate}}, nil
	}

	pieces := make([]audio.Waveform, 0, len(sentences))
	for i, sentence := range sentences {
		s.logger.Debug("Synthesizing sentence",
			slog.Int("index", i+1),
			slog.Int("total", len(sentences)),
			slog.String("preview", preview(sentence, 30)),
		)

		w, err := s.synth.Synthesize(ctx, sentence, voicePreset)
		if err != nil {
			return nil, fmt.Errorf("sentence %d/%d: %w", i+1, len(sentences), err)
		}
		pieces = append(pieces, w)
	}

	joined, err := audio.Join(pieces, s.opts.Gap)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Long-form synthesis complete",
		slog.Int("samples", joined.Len()),
		slog.Int("sample_rate", joined.SampleRate),
		slog.Duration("duration", joined.Duration()),
	)

	return &Result{Audio: joined, Sentences: len(sentences)}, nil
}

// preview truncates s to n runes for log lines
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
