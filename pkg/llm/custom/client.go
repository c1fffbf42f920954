// Package custom implements llm.Provider for any OpenAI-compatible
// /chat/completions endpoint, authenticated with a bearer token.
package custom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/fragent/fragent-go/pkg/llm"
)

// Client is an HTTP client for OpenAI-compatible chat endpoints.
type Client struct {
	http    *resty.Client
	apiKey  string
	model   string
	baseURL string
}

// Config is the configuration for a custom endpoint.
// BaseURL: Endpoint root, the client posts to BaseURL + "/chat/completions" (required)
// APIKey: Bearer token (optional)
// Model: Model name sent with every request
// Headers: Extra headers sent with every request
// Timeout: Per-request timeout, defaults to 60 seconds
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Headers map[string]string
	Timeout time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

// NewClient creates a client for an OpenAI-compatible endpoint.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("custom: base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeaders(cfg.Headers)

	return &Client{
		http:    httpClient,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Generate generates text based on the prompt.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return c.GenerateWithMessages(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

// GenerateWithMessages posts the conversation and returns the first choice.
// A non-2xx answer is returned as *llm.StatusError carrying the raw body.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	options := llm.ApplyGenerateOptions(opts)

	req := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: options.Temperature,
			MaxTokens:   options.MaxTokens,
			TopP:        options.TopP,
			Stop:        options.Stop,
		})
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}

	resp, err := req.Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &llm.StatusError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llm generation failed: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

// Close is a no-op retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}
