package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// FakeEmbedder produces deterministic 768-dimension unit vectors from
// token hashes. Texts sharing words get closer vectors, which is enough
// to exercise retrieval ordering without a real embedding model.
type FakeEmbedder struct {
	// Fail, when set, is returned from every Embed call.
	Fail error
}

const fakeDimensions = 768

// Embed implements the batch embedder contract used by the knowledge
// index.
func (f *FakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.Fail != nil {
		return nil, f.Fail
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

func embedText(text string) []float32 {
	v := make([]float32, fakeDimensions)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[h.Sum32()%fakeDimensions]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}
