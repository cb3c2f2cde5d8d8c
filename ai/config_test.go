package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosstown/tabindex/core"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestNewConfigAppliesOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://embed.example:9000"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithCompletionModel("gpt-4o-mini"),
		WithTokens("ekey", "ckey"),
		WithMaxTokens(256),
		WithCompletionTimeout(10*time.Second),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://embed.example:9000/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://embed.example:9000/v1", cfg.CompletionHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.CompletionModel)
	assert.Equal(t, "ekey", cfg.EmbeddingToken)
	assert.Equal(t, "ckey", cfg.CompletionToken)
	assert.Equal(t, 256, cfg.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.CompletionTimeout)
}

func TestNormalizeAddsV1Suffix(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
}

func TestNormalizeKeepsExistingV1Suffix(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/v1"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestValidateRejectsMissingModels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbeddingModel = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrMissingConfig)

	cfg = DefaultConfig()
	cfg.CompletionModel = ""
	assert.ErrorIs(t, cfg.Validate(), core.ErrMissingConfig)
}

func TestValidateFillsEmptyTokens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EmbeddingToken = ""
	cfg.CompletionToken = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "none", cfg.EmbeddingToken)
	assert.Equal(t, "none", cfg.CompletionToken)
}
