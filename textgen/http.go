package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseSize bounds the response body read to prevent memory
// exhaustion from a misbehaving endpoint.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Config holds HTTP collaborator settings.
type Config struct {
	// BaseURL is the root of an OpenAI-compatible chat completions API.
	BaseURL string `json:"base_url,omitempty"`
	// APIKey is sent as a bearer token when non-empty.
	APIKey string `json:"api_key,omitempty"`
	// Model names the model to request.
	Model string `json:"model,omitempty"`
	// TimeoutSeconds caps each HTTP call.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// Retry configures the backoff wrapper applied around the client.
	Retry RetryConfig `json:"retry,omitempty"`
}

// DefaultConfig returns collaborator defaults: a local OpenAI-compatible
// endpoint with a 30-second per-call timeout.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:11434/v1",
		Model:          "llama3.2",
		TimeoutSeconds: 30,
		Retry:          DefaultRetryConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.APIKey != "" {
		c.APIKey = source.APIKey
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	c.Retry.Merge(&source.Retry)
}

// HTTPGenerator calls an OpenAI-compatible chat completions endpoint.
type HTTPGenerator struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// NewHTTPGenerator creates an HTTP-backed Generator from configuration.
// A nil logger falls back to slog.Default.
func NewHTTPGenerator(cfg Config, logger *slog.Logger) *HTTPGenerator {
	def := DefaultConfig()
	def.Merge(&cfg)

	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPGenerator{
		cfg:    def,
		client: &http.Client{Timeout: time.Duration(def.TimeoutSeconds) * time.Second},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the request and returns the first choice's content.
// HTTP status codes map onto the package error taxonomy: 429 is transient
// rate limiting, 401/403 are fatal authorization failures, and 5xx are
// transient server errors.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{Model: g.cfg.Model, Messages: messages})
	if err != nil {
		return "", NewFatalError(fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", NewFatalError(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", NewTransientError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", NewTransientError(fmt.Errorf("read response: %w", err))
	}

	if err := classifyStatus(resp.StatusCode, data); err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", NewFatalError(fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", NewTransientError(fmt.Errorf("%w: response has no choices", ErrServer))
	}

	g.logger.Debug("generation complete",
		"model", g.cfg.Model,
		"response_length", len(parsed.Choices[0].Message.Content))

	return parsed.Choices[0].Message.Content, nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return NewTransientError(fmt.Errorf("%w: %s", ErrRateLimited, excerpt(body)))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewFatalError(fmt.Errorf("%w: status %d", ErrUnauthorized, status))
	case status >= 500:
		return NewTransientError(fmt.Errorf("%w: status %d: %s", ErrServer, status, excerpt(body)))
	default:
		return NewFatalError(fmt.Errorf("unexpected status %d: %s", status, excerpt(body)))
	}
}

func excerpt(body []byte) string {
	const limit = 256
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
