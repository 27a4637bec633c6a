package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config selects the model and how it is called.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Defaults for Groq's OpenAI-compatible API.
const (
	DefaultBaseURL     = "https://api.groq.com/openai/v1"
	DefaultModel       = "llama-3.3-70b-versatile"
	DefaultTemperature = 0.5
	DefaultMaxTokens   = 300
	DefaultTimeout     = 30 * time.Second
)

// GroqClient calls an OpenAI-compatible chat completions endpoint.
type GroqClient struct {
	cfg    Config
	client *openai.Client
}

// NewGroqClient creates a client. A zero Timeout means DefaultTimeout.
func NewGroqClient(cfg Config) *GroqClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &GroqClient{
		cfg:    cfg,
		client: openai.NewClientWithConfig(oc),
	}
}

// GenerateReply sends prompt as the system message and message as the user
// message, and returns the first choice's content unmodified.
func (c *GroqClient) GenerateReply(ctx context.Context, prompt, message string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", &ServiceError{Err: ErrNotConfigured}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
		Temperature: float32(c.cfg.Temperature),
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", &ServiceError{StatusCode: statusCode(err), Err: fmt.Errorf("calling model: %w", err)}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &ServiceError{StatusCode: http.StatusOK, Err: ErrEmptyReply}
	}

	return resp.Choices[0].Message.Content, nil
}

// statusCode extracts the provider's HTTP status from an SDK error, or 0
// when the request never got a response.
func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
