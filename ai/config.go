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


package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/crosstown/tabindex/core"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// CompletionHost is the base URL for the completion service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	CompletionHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// CompletionModel is the model identifier to use for answer generation.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	CompletionModel string

	// CompletionToken is the API key for the completion service.
	// Use "none" for local services that don't require authentication.
	CompletionToken string

	// EmbeddingToken is the API key for the embedding service.
	// Use "none" for local services that don't require authentication.
	EmbeddingToken string

	// MaxTokens caps the length of generated completions.
	// Default: 512
	MaxTokens int

	// CompletionTimeout bounds a single completion call.
	// Default: 30 seconds
	CompletionTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithTokens sets the API keys for the embedding and completion services.
func WithTokens(embedding, completion string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = embedding
		c.CompletionToken = completion
	}
}

// WithMaxTokens caps the length of generated completions.
func WithMaxTokens(max int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = max
	}
}

// WithCompletionTimeout bounds a single completion call.
func WithCompletionTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.CompletionTimeout = timeout
	}
}

// DefaultConfig returns a Config with sensible defaults for local
// OpenAI-compatible services. By default, both services share the same host
// and require no authentication.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:     defaultHost,
		CompletionHost:    defaultHost,
		EmbeddingModel:    "all-minilm",
		CompletionModel:   "qwen2.5:3b",
		EmbeddingToken:    "none",
		CompletionToken:   "none",
		MaxTokens:         512,
		CompletionTimeout: 30 * time.Second,
	}
}

// NewConfig creates a Config with the default values and applies the provided
// options. This is the recommended way to create a Config with custom settings.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434/v1"),
//	    ai.WithEmbeddingModel("text-embedding-3-small"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.CompletionHost != "" && !strings.HasSuffix(c.CompletionHost, "/v1") {
		c.CompletionHost = strings.TrimSuffix(c.CompletionHost, "/") + "/v1"
	}
	if c.EmbeddingToken == "" {
		c.EmbeddingToken = "none"
	}
	if c.CompletionToken == "" {
		c.CompletionToken = "none"
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 512
	}
	if c.CompletionTimeout == 0 {
		c.CompletionTimeout = 30 * time.Second
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: ai config: EmbeddingHost is required", core.ErrMissingConfig)
	}
	if c.CompletionHost == "" {
		return fmt.Errorf("%w: ai config: CompletionHost is required", core.ErrMissingConfig)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: ai config: EmbeddingModel is required", core.ErrMissingConfig)
	}
	if c.CompletionModel == "" {
		return fmt.Errorf("%w: ai config: CompletionModel is required", core.ErrMissingConfig)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("ai config: MaxTokens must be positive")
	}
	return nil
}
