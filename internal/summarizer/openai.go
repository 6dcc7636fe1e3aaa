package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const (
	defaultModel         = openai.ChatModelGPT4oMini
	defaultMaxChars      = 1000
	maxOutputTokens      = 2048
	maxAttempts          = 4
	initialRetryInterval = 2 * time.Second

	systemPrompt = `Summarize the article in plain prose.

Rules:
- Stay under the character limit given with the content.
- Keep the core idea and critical context (dates, numbers, names).
- No lists, no headings, no markdown.
- Neutral tone.
- Answer in the same language as the input.`
)

// OpenAISummarizer calls OpenAI's Responses API to produce summaries.
// Transient failures (rate limits, server errors) are retried with
// exponential backoff; request errors fail immediately.
type OpenAISummarizer struct {
	client openai.Client
	model  string
}

func NewOpenAISummarizer(
	apiKey string,
	model string,
	timeout time.Duration,
) (*OpenAISummarizer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("API key is empty")
	}

	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(timeout))
	}

	return &OpenAISummarizer{
		client: openai.NewClient(clientOpts...),
		model:  model,
	}, nil
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, input Input) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", errors.New("input is empty")
	}

	maxChars := input.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	prompt := buildPrompt(text, input.SourceURL, maxChars)

	summary, err := backoff.Retry(ctx, func() (string, error) {
		resp, reqErr := s.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           s.model,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Instructions:    openai.String(systemPrompt),
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt),
			},
		})
		if reqErr != nil {
			if isTransient(reqErr) {
				return "", fmt.Errorf("do request: %w", reqErr)
			}

			return "", backoff.Permanent(fmt.Errorf("do request: %w", reqErr))
		}

		out := strings.TrimSpace(resp.OutputText())
		if out == "" {
			return "", backoff.Permanent(
				fmt.Errorf("output text is missing (status = %s)", resp.Status))
		}

		return out, nil
	},
		backoff.WithBackOff(newExponentialBackOff()),
		backoff.WithMaxTries(maxAttempts),
	)
	if err != nil {
		return "", err
	}

	return summary, nil
}

func buildPrompt(text string, sourceURL string, maxChars int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Character limit: %d\n", maxChars)
	if sourceURL = strings.TrimSpace(sourceURL); sourceURL != "" {
		b.WriteString("Source:\n")
		b.WriteString(sourceURL)
		b.WriteString("\n")
	}
	b.WriteString("Content:\n")
	b.WriteString(text)

	return b.String()
}

func newExponentialBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialRetryInterval

	return bo
}

// isTransient reports whether the provider error is worth retrying.
func isTransient(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests ||
			apiErr.StatusCode >= http.StatusInternalServerError
	}

	// Transport-level failures have no status; retry those too.
	return true
}
