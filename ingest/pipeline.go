// Copyright 2025 Crosstown Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/crosstown/tabindex/ai"
	"github.com/crosstown/tabindex/core"
	"github.com/crosstown/tabindex/index"
)

// FailureKind identifies which stage of ingestion a unit failed in.
type FailureKind string

const (
	FailureParse  FailureKind = "parse"
	FailureEmbed  FailureKind = "embed"
	FailureUpsert FailureKind = "upsert"
)

// FailedUnit records one isolated ingestion failure: a file that could not
// be parsed or embedded, or a batch whose upsert failed. Batch is -1 for
// file-level failures.
type FailedUnit struct {
	Kind  FailureKind
	File  string
	Batch int
	Err   error
}

func (u FailedUnit) String() string {
	if u.Batch < 0 {
		return fmt.Sprintf("%s %s: %v", u.Kind, u.File, u.Err)
	}
	return fmt.Sprintf("%s %s batch %d: %v", u.Kind, u.File, u.Batch, u.Err)
}

// Summary reports the outcome of an ingestion run. Failures lists every unit
// that was skipped so data loss is visible to the caller, not just logged.
type Summary struct {
	FilesProcessed    int
	DocumentsUploaded int
	Failures          []FailedUnit
}

// Pipeline orchestrates the ingestion of CSV files into the vector index:
// enumerate, build documents, embed in chunks, upsert in batches.
type Pipeline struct {
	catalog    index.Catalog
	embedder   ai.Embedder
	dataFolder string
	indexName  string

	dimension  uint64
	chunkSize  int
	batchSize  int
	batchPause time.Duration

	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithDimension sets the embedding dimension the index is created with and
// that generated embeddings are checked against.
// Default is 384.
func WithDimension(dimension uint64) Option {
	return func(p *Pipeline) error {
		if dimension == 0 {
			return fmt.Errorf("dimension must be positive")
		}
		p.dimension = dimension
		return nil
	}
}

// WithChunkSize sets how many texts are sent to the embedder per call.
// Default is 32.
func WithChunkSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive")
		}
		p.chunkSize = size
		return nil
	}
}

// WithBatchSize sets how many records are upserted per index call.
// Default is 50.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive")
		}
		p.batchSize = size
		return nil
	}
}

// WithBatchPause sets the pause inserted between upsert batches. The pause
// is a deliberate throttle on the index service; zero disables it.
// Default is 100ms.
func WithBatchPause(pause time.Duration) Option {
	return func(p *Pipeline) error {
		if pause < 0 {
			return fmt.Errorf("batch pause cannot be negative")
		}
		p.batchPause = pause
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent chunk embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	catalog index.Catalog,
	embedder ai.Embedder,
	dataFolder string,
	indexName string,
	opts ...Option,
) (*Pipeline, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if dataFolder == "" {
		return nil, ErrDataFolderRequired
	}
	if indexName == "" {
		return nil, ErrIndexNameRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		catalog:    catalog,
		embedder:   embedder,
		dataFolder: dataFolder,
		indexName:  indexName,
		dimension:  384,
		chunkSize:  32,
		batchSize:  50,
		batchPause: 100 * time.Millisecond,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Run ingests every CSV file in the data folder into the index.
//
// Per-file parse and embed failures and per-batch upsert failures are
// recorded in the summary and skipped; the run continues. Missing input and
// an embedding dimension mismatch are fatal and abort the run.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	files, err := listSourceFiles(p.dataFolder)
	if err != nil {
		return nil, err
	}
	p.logger.Info("found source files", "folder", p.dataFolder, "count", len(files))

	if err := p.catalog.EnsureIndex(ctx, p.indexName, p.dimension); err != nil {
		return nil, fmt.Errorf("ensuring index %q: %w", p.indexName, err)
	}
	idx := p.catalog.Index(p.indexName)

	summary := &Summary{}
	for _, path := range files {
		summary.FilesProcessed++
		if err := p.processFile(ctx, idx, path, summary); err != nil {
			return summary, err
		}
	}

	p.logger.Info("ingestion complete",
		"files", summary.FilesProcessed,
		"documents", summary.DocumentsUploaded,
		"failures", len(summary.Failures))
	return summary, nil
}

// processFile ingests a single source file. Only fatal errors (context
// cancellation, dimension mismatch) are returned; unit failures are recorded
// in the summary.
func (p *Pipeline) processFile(ctx context.Context, idx index.Index, path string, summary *Summary) error {
	file := filepath.Base(path)
	logger := p.logger.With("file", file)

	docs, err := readDocuments(path)
	if err != nil {
		logger.Error("failed to parse file, skipping", "err", err)
		summary.Failures = append(summary.Failures, FailedUnit{Kind: FailureParse, File: file, Batch: -1, Err: err})
		return nil
	}
	if len(docs) == 0 {
		logger.Info("no documents in file")
		return nil
	}
	logger.Info("prepared documents", "count", len(docs))

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	be := &batchEmbedder{embedder: p.embedder, pool: p.pool, chunkSize: p.chunkSize}
	vectors, err := be.embedAll(ctx, texts)
	if err != nil {
		logger.Error("failed to embed file, skipping", "err", err)
		summary.Failures = append(summary.Failures, FailedUnit{Kind: FailureEmbed, File: file, Batch: -1, Err: err})
		return nil
	}

	if uint64(len(vectors[0])) != p.dimension {
		return fmt.Errorf("%w: index expects %d, embedder produced %d",
			core.ErrDimensionMismatch, p.dimension, len(vectors[0]))
	}

	records := make([]*index.Record, len(docs))
	for i, doc := range docs {
		records[i] = &index.Record{ID: doc.ID, Vector: vectors[i], Metadata: doc.Metadata}
	}

	return p.upsertBatches(ctx, idx, file, records, summary)
}

// upsertBatches writes records in fixed-size batches with a pause between
// batches. A failed batch is recorded and skipped; later batches still run.
func (p *Pipeline) upsertBatches(ctx context.Context, idx index.Index, file string, records []*index.Record, summary *Summary) error {
	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := start / p.batchSize

		if err := idx.Upsert(ctx, records[start:end]); err != nil {
			p.logger.Error("batch upsert failed, continuing",
				"file", file, "batch", batch, "size", end-start, "err", err)
			summary.Failures = append(summary.Failures, FailedUnit{Kind: FailureUpsert, File: file, Batch: batch, Err: err})
		} else {
			summary.DocumentsUploaded += end - start
		}

		if end < len(records) && p.batchPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.batchPause):
			}
		}
	}
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
