package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// captureEmbedder records the request it receives and answers with
// fixed-width vectors.
type captureEmbedder struct {
	lastReq *ai.EmbedRequest
	dim     int
	fail    error
}

func (c *captureEmbedder) Name() string { return "test/capture" }

func (c *captureEmbedder) Register(api.Registry) {}

func (c *captureEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	c.lastReq = req
	if c.fail != nil {
		return nil, c.fail
	}
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i := range req.Input {
		embeddings[i] = &ai.Embedding{Embedding: make([]float32, c.dim)}
	}
	for i := range embeddings {
		embeddings[i].Embedding[0] = 1
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func TestGenkitEmbedderRequestsSchemaDimensionality(t *testing.T) {
	capture := &captureEmbedder{dim: int(VectorDimension)}
	emb, err := NewGenkitEmbedder(capture)
	require.NoError(t, err)

	vectors, err := emb.Embed(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], int(VectorDimension))

	// gemini-embedding-001 emits 3072 dimensions unless the request caps
	// the output; the documents table column is vector(768).
	require.NotNil(t, capture.lastReq)
	cfg, ok := capture.lastReq.Options.(*genai.EmbedContentConfig)
	require.True(t, ok, "embed request must carry a genai.EmbedContentConfig")
	require.NotNil(t, cfg.OutputDimensionality)
	assert.Equal(t, VectorDimension, *cfg.OutputDimensionality)
}

func TestGenkitEmbedderEmptyInput(t *testing.T) {
	capture := &captureEmbedder{dim: int(VectorDimension)}
	emb, err := NewGenkitEmbedder(capture)
	require.NoError(t, err)

	vectors, err := emb.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Nil(t, capture.lastReq)
}

func TestGenkitEmbedderPropagatesFailure(t *testing.T) {
	capture := &captureEmbedder{dim: int(VectorDimension), fail: errors.New("quota exceeded")}
	emb, err := NewGenkitEmbedder(capture)
	require.NoError(t, err)

	_, err = emb.Embed(context.Background(), []string{"alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewGenkitEmbedderRequiresEmbedder(t *testing.T) {
	_, err := NewGenkitEmbedder(nil)
	assert.Error(t, err)
}
