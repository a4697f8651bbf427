package knowledge

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// VectorDimension is the embedding width stored in the documents table.
// gemini-embedding-001 natively emits 3072 dimensions; the request asks
// for truncation to match the vector(768) schema column.
const VectorDimension int32 = 768

// GenkitEmbedder adapts a Genkit ai.Embedder to the batch Embedder
// interface used by the index.
type GenkitEmbedder struct {
	embedder ai.Embedder
}

// NewGenkitEmbedder wraps a Genkit embedder.
func NewGenkitEmbedder(embedder ai.Embedder) (*GenkitEmbedder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	return &GenkitEmbedder{embedder: embedder}, nil
}

// Embed returns one vector per input text, index-aligned. Every request
// carries OutputDimensionality so the model truncates to VectorDimension
// instead of returning its native width.
func (g *GenkitEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	docs := make([]*ai.Document, len(texts))
	for i, text := range texts {
		docs[i] = ai.DocumentFromText(text, nil)
	}

	dim := VectorDimension
	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   docs,
		Options: &genai.EmbedContentConfig{OutputDimensionality: &dim},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = emb.Embedding
	}
	return vectors, nil
}
