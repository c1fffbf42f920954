// Package embedder defines the text embedding provider used to attach
// vectors to memories, knowledge items and retrieval queries.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrDimensionMismatch is returned when a provider answers with a vector
// whose length differs from its declared Dimensions.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Provider turns text into vectors.
//
// Embeddings are optional everywhere they are stored: a record without one
// is ranked by recency or priority instead of similarity.
type Provider interface {
	// Embed converts one text into a vector.
	Embed(ctx context.Context, text string) ([]float64, error)

	// EmbedBatch converts several texts in one request. The result has one
	// vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)

	// Dimensions returns the vector length, or 0 when the provider does not
	// fix one.
	Dimensions() int

	// Close releases the provider's resources.
	Close() error
}

// EmbedText embeds text with p. It returns a nil vector without calling p
// when p is nil or text is blank, and checks the vector length against
// p.Dimensions when that is set.
func EmbedText(ctx context.Context, p Provider, text string) ([]float64, error) {
	if p == nil || strings.TrimSpace(text) == "" {
		return nil, nil
	}
	vec, err := p.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if dims := p.Dimensions(); dims > 0 && len(vec) > 0 && len(vec) != dims {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, dims, len(vec))
	}
	return vec, nil
}
