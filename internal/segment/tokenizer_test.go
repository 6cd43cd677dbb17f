package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPunktTokenizer(t *testing.T) {
	tok, err := NewPunktTokenizer("english")
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "two sentences",
			text:     "Hello. World.",
			expected: []string{"Hello.", "World."},
		},
		{
			name:     "no boundary",
			text:     "just one run-on thought without punctuation",
			expected: []string{"just one run-on thought without punctuation"},
		},
		{
			name:     "question and exclamation",
			text:     "How are you? I am fine!",
			expected: []string{"How are you?", "I am fine!"},
		},
		{
			name:     "blank",
			text:     "   \n\t ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tok.Sentences(tt.text))
		})
	}
}

func TestPunktTokenizerUnsupportedLanguage(t *testing.T) {
	_, err := NewPunktTokenizer("klingon")
	assert.Error(t, err)
}

func TestWholeText(t *testing.T) {
	assert.Equal(t, []string{"a b. c d."}, WholeText{}.Sentences("  a b. c d.  "))
	assert.Nil(t, WholeText{}.Sentences(" "))
}
