package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var _ Synthesizer = (*MockSynthesizer)(nil)

// MockSynthesizer is the offline provider used in tests and when no speech
// credentials are configured.
type MockSynthesizer struct{}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

func (s *MockSynthesizer) Synthesize(
	_ context.Context,
	text string,
	opts Options,
) (*Synthesis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text is empty")
	}

	voice := opts.Voice
	if voice == "" {
		voice = "mock"
	}

	format := "mp3"
	if opts.Format == "wav" {
		format = "wav"
	}

	return &Synthesis{
		Content:     fmt.Appendf(nil, "MOCK_AUDIO_%d_CHARS", len([]rune(text))),
		ContentType: contentTypeFor(format),
		Format:      format,
		Voice:       voice,
	}, nil
}

func (s *MockSynthesizer) Voices(_ context.Context) ([]Voice, error) {
	return []Voice{
		{Name: "mock", DisplayName: "Mock", Locale: "en-US", Gender: "Neutral"},
	}, nil
}
