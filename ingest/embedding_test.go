package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosstown/tabindex/ai/mock"
)

// lengthEmbedder encodes each text's length into its vector so tests can
// verify per-index ordering after chunked embedding.
func lengthEmbedder() *mock.MockEmbedder {
	m := mock.NewMockEmbedder()
	m.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = []float32{float32(len(text))}
		}
		return vectors, nil
	}
	return m
}

func newTestBatchEmbedder(t *testing.T, embedder *mock.MockEmbedder, chunkSize int) *batchEmbedder {
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)

	return &batchEmbedder{embedder: embedder, pool: pool, chunkSize: chunkSize}
}

func TestEmbedAllPreservesLengthAndOrder(t *testing.T) {
	texts := make([]string, 17)
	for i := range texts {
		// text i has length i+1
		texts[i] = string(make([]byte, i+1))
	}

	for _, chunkSize := range []int{1, 2, 5, 16, 17, 100} {
		t.Run(fmt.Sprintf("chunk_%d", chunkSize), func(t *testing.T) {
			be := newTestBatchEmbedder(t, lengthEmbedder(), chunkSize)

			vectors, err := be.embedAll(context.Background(), texts)
			require.NoError(t, err)
			require.Len(t, vectors, len(texts))
			for i, vec := range vectors {
				assert.Equal(t, float32(i+1), vec[0], "vector %d out of order", i)
			}
		})
	}
}

func TestEmbedAllEmptyInput(t *testing.T) {
	be := newTestBatchEmbedder(t, lengthEmbedder(), 4)

	vectors, err := be.embedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedAllChunkFailureFailsWhole(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if text == "poison" {
				return nil, errors.New("embedder down")
			}
		}
		vectors := make([][]float32, len(texts))
		for i := range texts {
			vectors[i] = []float32{1}
		}
		return vectors, nil
	}

	be := newTestBatchEmbedder(t, embedder, 2)

	// "poison" lands in the second chunk; no partial result may leak out.
	vectors, err := be.embedAll(context.Background(), []string{"a", "b", "poison", "d"})
	require.Error(t, err)
	assert.Nil(t, vectors)
	assert.ErrorContains(t, err, "embedder down")
}

func TestEmbedAllResultCountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil // always one vector, whatever was asked
	}

	be := newTestBatchEmbedder(t, embedder, 3)

	_, err := be.embedAll(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "mismatch")
}
