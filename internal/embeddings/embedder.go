// Package embeddings turns ledger records into vectors and runs similarity
// lookups with a plain-query fallback when the embedding service or the
// vector index is unavailable.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "gemini-embedding-001"

	// DefaultDimensions is the vector size requested from the model.
	DefaultDimensions = 768
)

// ErrDisabled is returned by DisabledEmbedder.
var ErrDisabled = errors.New("embeddings disabled")

// Embedder converts text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenAIEmbedder calls the Gemini embedding endpoint.
type GenAIEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
}

// NewGenAIEmbedder creates a client using Application Default Credentials or
// the GOOGLE_* environment variables understood by the genai SDK.
func NewGenAIEmbedder(ctx context.Context, model string, dimensions int) (*GenAIEmbedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGenAIEmbedder: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GenAIEmbedder{client: client, model: model, dimensions: int32(dimensions)}, nil
}

// Embed implements Embedder.
func (g *GenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var cfg *genai.EmbedContentConfig
	if g.dimensions > 0 {
		dims := g.dimensions
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, genai.Text(text), cfg)
	if err != nil {
		return nil, fmt.Errorf("Embed: embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("Embed: empty embedding in response")
	}
	return resp.Embeddings[0].Values, nil
}

// DisabledEmbedder always fails, which routes every lookup to the fallback path.
type DisabledEmbedder struct{}

// Embed implements Embedder.
func (DisabledEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, ErrDisabled
}

var (
	_ Embedder = (*GenAIEmbedder)(nil)
	_ Embedder = DisabledEmbedder{}
)
