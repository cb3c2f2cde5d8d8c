package main

import (
	"context"
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, logLevel string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", logLevel, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger(t *testing.T) {
	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
			err := setupLogger(newTestContext(t, level))
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := setupLogger(newTestContext(t, "verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("sets the default logger level", func(t *testing.T) {
		require.NoError(t, setupLogger(newTestContext(t, "error")))
		assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
		assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelError))
	})
}

func TestAIConfigFromFlags(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("embedding-host", "http://embed.local", "")
	set.String("embedding-model", "all-minilm", "")
	set.String("completion-host", "http://complete.local", "")
	set.String("completion-model", "qwen2.5:3b", "")
	set.String("completion-api-key", "secret", "")
	c := cli.NewContext(cli.NewApp(), set, nil)

	cfg := aiConfig(c)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://embed.local/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://complete.local/v1", cfg.CompletionHost)
	assert.Equal(t, "secret", cfg.CompletionToken)
	assert.Equal(t, "none", cfg.EmbeddingToken)
}

func TestIndexConfigFromFlags(t *testing.T) {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("qdrant-host", "qdrant.local", "")
	set.Int("qdrant-port", 7334, "")
	set.String("qdrant-api-key", "key", "")
	c := cli.NewContext(cli.NewApp(), set, nil)

	cfg := indexConfig(c)
	assert.Equal(t, "qdrant.local", cfg.Host)
	assert.Equal(t, 7334, cfg.Port)
	assert.Equal(t, "key", cfg.APIKey)
}
