package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	openAIDefaultVoice = "alloy"
	openAIModel        = openai.SpeechModelGPT4oMiniTTS
)

var openAIVoices = []Voice{
	{Name: "alloy", DisplayName: "Alloy", Locale: "multilingual", Gender: "Neutral"},
	{Name: "echo", DisplayName: "Echo", Locale: "multilingual", Gender: "Male"},
	{Name: "fable", DisplayName: "Fable", Locale: "multilingual", Gender: "Neutral"},
	{Name: "onyx", DisplayName: "Onyx", Locale: "multilingual", Gender: "Male"},
	{Name: "nova", DisplayName: "Nova", Locale: "multilingual", Gender: "Female"},
	{Name: "shimmer", DisplayName: "Shimmer", Locale: "multilingual", Gender: "Female"},
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)

// OpenAISynthesizer produces audio through OpenAI's speech endpoint.
type OpenAISynthesizer struct {
	client openai.Client
}

func NewOpenAISynthesizer(apiKey string, timeout time.Duration) (*OpenAISynthesizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key is empty")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(timeout))
	}

	return &OpenAISynthesizer{
		client: openai.NewClient(clientOpts...),
	}, nil
}

func (s *OpenAISynthesizer) Synthesize(
	ctx context.Context,
	text string,
	opts Options,
) (*Synthesis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("text is empty")
	}

	voice := opts.Voice
	if voice == "" {
		voice = openAIDefaultVoice
	}

	format := openai.AudioSpeechNewParamsResponseFormatMP3
	if opts.Format == "wav" {
		format = openai.AudioSpeechNewParamsResponseFormatWAV
	}

	params := openai.AudioSpeechNewParams{
		Model:          openAIModel,
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: format,
	}
	if opts.Speed > 0 {
		params.Speed = openai.Float(opts.Speed)
	}

	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	outFormat := "mp3"
	if opts.Format == "wav" {
		outFormat = "wav"
	}

	return &Synthesis{
		Content:     audio,
		ContentType: contentTypeFor(outFormat),
		Format:      outFormat,
		Voice:       voice,
	}, nil
}

func (s *OpenAISynthesizer) Voices(_ context.Context) ([]Voice, error) {
	return openAIVoices, nil
}
