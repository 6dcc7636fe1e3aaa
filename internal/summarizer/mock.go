package summarizer

import (
	"context"
	"errors"
	"strings"
	"unicode"
)

// MockSummarizer is the offline provider: it returns a deterministic
// truncation of the input, cut at a sentence boundary where possible.
type MockSummarizer struct{}

func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

func (s *MockSummarizer) Summarize(_ context.Context, input Input) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	maxChars := input.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	text = strings.Join(strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	}), " ")

	runes := []rune(text)
	if len(runes) <= maxChars {
		return text, nil
	}

	cut := runes[:maxChars]
	if i := lastSentenceEnd(cut); i > 0 {
		return string(cut[:i+1]), nil
	}

	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + "…", nil
}

func lastSentenceEnd(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		switch runes[i] {
		case '.', '!', '?', '。', '！', '？':
			return i
		}
	}

	return -1
}
