package speech

import (
	"context"
)

// Options selects how a synthesis request is voiced. Zero values mean the
// provider default.
type Options struct {
	Voice string
	// Format is the audio container: "mp3" or "wav".
	Format string
	// Speed is the speaking rate multiplier (0.5–2.0).
	Speed float64
}

// Synthesis is the produced audio.
type Synthesis struct {
	Content     []byte
	ContentType string
	Format      string
	Voice       string
}

// Voice describes one available voice of a provider.
type Voice struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
	Gender      string `json:"gender"`
}

// Synthesizer converts text to audio. Implementations are interchangeable
// and chosen at construction time.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts Options) (*Synthesis, error)
	Voices(ctx context.Context) ([]Voice, error)
}

func contentTypeFor(format string) string {
	if format == "wav" {
		return "audio/wav"
	}

	return "audio/mpeg"
}
