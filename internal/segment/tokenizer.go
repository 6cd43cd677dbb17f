package segment

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Tokenizer splits free-form text into sentence units
type Tokenizer interface {
	Sentences(text string) []string
}

// PunktTokenizer is a language-aware sentence splitter backed by
// pre-trained Punkt parameters
type PunktTokenizer struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktTokenizer loads the Punkt model for language
func NewPunktTokenizer(language string) (*PunktTokenizer, error) {
	switch strings.ToLower(language) {
	case "english", "en":
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load punkt parameters for %s: %w", language, err)
		}
		return &PunktTokenizer{tokenizer: t}, nil
	default:
		return nil, fmt.Errorf("unsupported sentence language %q", language)
	}
}

// Sentences returns the trimmed, non-blank sentences of text in order.
// Text without any boundary comes back as a single sentence.
func (p *PunktTokenizer) Sentences(text string) []string {
	var out []string
	for _, s := range p.tokenizer.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// WholeText treats the entire input as one sentence. It stands in when
// no Punkt model could be loaded.
type WholeText struct{}

// Sentences returns text as a single sentence, or nothing if it is blank
func (WholeText) Sentences(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	return []string{trimmed}
}
