package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/autocurate/autocurate/internal/config"
)

// systemPrompt frames every summarization call.
const systemPrompt = "You are an editorial assistant that writes personalized article digests. " +
	"Follow the reader preferences given in the prompt and write in clear, neutral prose."

// OpenAISummarizer implements Summarizer against an OpenAI-compatible chat
// completions API.
type OpenAISummarizer struct {
	config     config.SummarizerConfig
	httpClient *http.Client
}

// NewOpenAISummarizer builds a summarizer client from configuration.
func NewOpenAISummarizer(cfg config.SummarizerConfig) (*OpenAISummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("summarizer API key required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("summarizer base URL required")
	}
	return &OpenAISummarizer{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize posts the prompt as a user message and returns the model's reply.
func (s *OpenAISummarizer) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: status %d: %s", ErrSummarizationFailed,
			resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrSummarizationFailed)
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// Model returns the configured chat model name.
func (s *OpenAISummarizer) Model() string {
	return s.config.Model
}

var _ Summarizer = (*OpenAISummarizer)(nil)
