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


package openai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/crosstown/tabindex/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client    llms.Model
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.CompletionToken),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client:    client,
		maxTokens: config.MaxTokens,
		timeout:   config.CompletionTimeout,
		logger:    slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends the prompt to the completion model and returns its answer.
// The call is bounded by the configured timeout; the completion service is
// not owned by this system and must not be allowed to hang a request.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("requesting completion", "prompt_length", len(prompt))

	answer, err := llms.GenerateFromSinglePrompt(ctx, c.client, prompt,
		llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		c.logger.Error("completion request failed", "err", err)
		return "", err
	}

	return strings.TrimSpace(answer), nil
}
