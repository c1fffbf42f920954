// Package openai implements embedder.Provider on the OpenAI Embeddings API
// or any OpenAI-compatible embeddings endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when Config.Model is empty.
const DefaultModel = "text-embedding-ada-002"

// Client is an OpenAI Embedder client.
// It implements the embedder.Provider interface and provides text vectorization functionality based on the OpenAI Embeddings API.
type Client struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config is the configuration for OpenAI Embedder.
// APIKey: OpenAI API key (required)
// Model: Embedding model name, defaults to text-embedding-ada-002
// BaseURL: API base URL, defaults to OpenAI official address
// Dimensions: Vector dimensions reported by Dimensions(), defaults to 1536
// Timeout: Per-request timeout, defaults to 30 seconds
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Dimensions int
	Timeout    time.Duration
}

// NewClient creates a new OpenAI Embedder client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: api key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	model, err := parseModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = 1536
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		dimensions: dimensions,
	}, nil
}

// Embed converts a single text to a vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch converts multiple texts to vectors in batch.
// The order of the result matches the order of texts.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, errors.New("embedding generation failed: no input texts")
	}

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding generation failed: unexpected number of results from OpenAI API (got %d, expected %d)", len(resp.Data), len(texts))
	}

	embeddings := make([][]float64, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("embedding generation failed: result index %d out of range", data.Index)
		}
		embeddings[data.Index] = toFloat64(data.Embedding)
	}
	return embeddings, nil
}

// Dimensions returns the configured vector dimension.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Close is a no-op retained for interface compatibility.
func (c *Client) Close() error {
	return nil
}

// parseModel maps a model name onto the models the embeddings API accepts.
func parseModel(name string) (openai.EmbeddingModel, error) {
	if name == "" {
		return openai.AdaEmbeddingV2, nil
	}
	var model openai.EmbeddingModel
	if err := model.UnmarshalText([]byte(name)); err != nil {
		return openai.Unknown, err
	}
	if model == openai.Unknown {
		return openai.Unknown, fmt.Errorf("openai embedder: unsupported model %q", name)
	}
	return model, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
