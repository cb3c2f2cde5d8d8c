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

package tabindex

import (
	"log/slog"

	"github.com/crosstown/tabindex/ai"
	"github.com/crosstown/tabindex/ai/openai"
	"github.com/crosstown/tabindex/answer"
	"github.com/crosstown/tabindex/index"
	"github.com/crosstown/tabindex/index/qdrant"
	"github.com/crosstown/tabindex/ingest"
)

// System wires the vector index and the AI services together and hands out
// the ingestion pipeline and the retrieval service built on top of them.
type System struct {
	catalog   index.Catalog
	provider  ai.Provider
	indexName string
	logger    *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig    *ai.Config
	indexConfig *qdrant.Config
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = cfg
	}
}

// WithIndexConfig sets the vector index client configuration.
func WithIndexConfig(cfg *qdrant.Config) SystemOption {
	return func(o *systemOptions) {
		o.indexConfig = cfg
	}
}

// NewSystem connects to the vector index and the AI services. The index name
// is the collection every pipeline and service of this system operates on.
func NewSystem(indexName string, opts ...SystemOption) (*System, error) {
	if indexName == "" {
		return nil, ErrIndexNameRequired
	}

	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	catalog, err := qdrant.NewCatalog(options.indexConfig)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		catalog.Close()
		return nil, err
	}

	return &System{
		catalog:   catalog,
		provider:  provider,
		indexName: indexName,
		logger:    slog.Default(),
	}, nil
}

// Close releases the index connection and the AI provider.
func (s *System) Close() error {
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	if err := s.catalog.Close(); err != nil {
		s.logger.Error("error closing index catalog", "err", err)
		return err
	}
	return nil
}

// Catalog returns the vector index catalog.
func (s *System) Catalog() index.Catalog {
	return s.catalog
}

// Provider returns the AI service provider.
func (s *System) Provider() ai.Provider {
	return s.provider
}

// Index returns the handle for the system's collection.
func (s *System) Index() index.Index {
	return s.catalog.Index(s.indexName)
}

// NewIngestionPipeline builds a pipeline that loads the CSV files under
// dataFolder into the system's collection.
func (s *System) NewIngestionPipeline(dataFolder string, opts ...ingest.Option) (*ingest.Pipeline, error) {
	return ingest.NewPipeline(s.catalog, s.provider.Embedder(), dataFolder, s.indexName, opts...)
}

// NewAnswerService builds the retrieval service over the system's collection.
func (s *System) NewAnswerService(opts ...answer.Option) (*answer.Service, error) {
	return answer.NewService(s.Index(), s.provider.Completer(), opts...)
}
