package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/crosstown/tabindex/ai"
)

// batchEmbedder generates embeddings for document texts in contiguous chunks.
// Chunks are independent, so they run concurrently on the worker pool, but
// the result always preserves input order and input length.
type batchEmbedder struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	chunkSize int
}

// embedAll embeds texts in chunks of at most chunkSize and concatenates the
// results in input order. Any chunk failure fails the whole operation; there
// is no partial success at this layer.
func (b *batchEmbedder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := (len(texts) + b.chunkSize - 1) / b.chunkSize
	results := make([][][]float32, chunks)
	errs := make([]error, chunks)

	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		start := i * b.chunkSize
		end := start + b.chunkSize
		if end > len(texts) {
			end = len(texts)
		}

		slot := i
		chunk := texts[start:end]
		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			results[slot], errs[slot] = b.embedder.EmbedTexts(ctx, chunk)
		})
		if err != nil {
			wg.Done()
			errs[slot] = err
		}
	}
	wg.Wait()

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < chunks; i++ {
		if errs[i] != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, errs[i])
		}

		start := i * b.chunkSize
		end := start + b.chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		if len(results[i]) != end-start {
			return nil, fmt.Errorf("embedding result mismatch in chunk %d: expected %d, received %d",
				i, end-start, len(results[i]))
		}
		vectors = append(vectors, results[i]...)
	}
	return vectors, nil
}
