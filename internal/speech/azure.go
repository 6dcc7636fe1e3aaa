package speech

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	azureDefaultVoice   = "en-US-JennyNeural"
	azureDefaultTimeout = 60 * time.Second

	azureFormatMP3 = "audio-16khz-32kbitrate-mono-mp3"
	azureFormatWAV = "riff-16khz-16bit-mono-pcm"
)

var _ Synthesizer = (*AzureSynthesizer)(nil)

// AzureSynthesizer talks to the Azure Cognitive Services TTS REST endpoint
// of one region.
type AzureSynthesizer struct {
	key        string
	region     string
	httpClient *http.Client
}

func NewAzureSynthesizer(key string, region string, timeout time.Duration) (*AzureSynthesizer, error) {
	key = strings.TrimSpace(key)
	region = strings.TrimSpace(region)

	if key == "" {
		return nil, errors.New("subscription key is empty")
	}
	if region == "" {
		return nil, errors.New("region is empty")
	}

	if timeout <= 0 {
		timeout = azureDefaultTimeout
	}

	return &AzureSynthesizer{
		key:        key,
		region:     region,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (s *AzureSynthesizer) Synthesize(
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
		voice = azureDefaultVoice
	}

	outputFormat := azureFormatMP3
	outFormat := "mp3"
	if opts.Format == "wav" {
		outputFormat = azureFormatWAV
		outFormat = "wav"
	}

	endpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", s.region)
	body := buildSSML(text, voice, opts.Speed)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "newsdesk")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	return &Synthesis{
		Content:     audio,
		ContentType: contentTypeFor(outFormat),
		Format:      outFormat,
		Voice:       voice,
	}, nil
}

func (s *AzureSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	endpoint := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", s.region)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var azureVoices []struct {
		ShortName string `json:"ShortName"`
		LocalName string `json:"LocalName"`
		Locale    string `json:"Locale"`
		Gender    string `json:"Gender"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&azureVoices); err != nil {
		return nil, fmt.Errorf("decode voice list: %w", err)
	}

	voices := make([]Voice, 0, len(azureVoices))
	for _, v := range azureVoices {
		voices = append(voices, Voice{
			Name:        v.ShortName,
			DisplayName: v.LocalName,
			Locale:      v.Locale,
			Gender:      v.Gender,
		})
	}

	return voices, nil
}

// buildSSML wraps text in the prosody/voice envelope Azure expects. The voice
// name carries its locale prefix (e.g. en-US-JennyNeural).
func buildSSML(text string, voice string, speed float64) string {
	locale := "en-US"
	if parts := strings.SplitN(voice, "-", 3); len(parts) >= 2 {
		locale = parts[0] + "-" + parts[1]
	}

	rate := "default"
	if speed > 0 && speed != 1.0 {
		rate = fmt.Sprintf("%+.0f%%", (speed-1.0)*100)
	}

	var escaped strings.Builder
	_ = xml.EscapeText(&escaped, []byte(text))

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`+
			`<voice name="%s"><prosody rate="%s">%s</prosody></voice></speak>`,
		locale, voice, rate, escaped.String())
}
