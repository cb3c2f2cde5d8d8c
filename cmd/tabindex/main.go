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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/crosstown/tabindex"
	"github.com/crosstown/tabindex/ai"
	"github.com/crosstown/tabindex/ai/openai"
	"github.com/crosstown/tabindex/index/qdrant"
	"github.com/crosstown/tabindex/ingest"
	"github.com/crosstown/tabindex/server"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "tabindex",
		Usage: "Load tabular CSV data into a vector index and answer questions over it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "qdrant-host",
				Usage:   "Vector index server hostname",
				Value:   "localhost",
				EnvVars: []string{"QDRANT_HOST"},
			},
			&cli.IntFlag{
				Name:    "qdrant-port",
				Usage:   "Vector index gRPC port",
				Value:   6334,
				EnvVars: []string{"QDRANT_PORT"},
			},
			&cli.StringFlag{
				Name:    "qdrant-api-key",
				Usage:   "Vector index API key (empty for local development)",
				EnvVars: []string{"QDRANT_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "all-minilm",
				EnvVars: []string{"EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "completion-host",
				Usage:   "Completion service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"COMPLETION_HOST"},
			},
			&cli.StringFlag{
				Name:    "completion-model",
				Usage:   "Completion model name",
				Value:   "qwen2.5:3b",
				EnvVars: []string{"COMPLETION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "completion-api-key",
				Usage:   "Completion service API key (\"none\" for local services)",
				Value:   "none",
				EnvVars: []string{"COMPLETION_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Name of the vector index collection",
				Value:   "tabindex",
				EnvVars: []string{"INDEX_NAME"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Ingest CSV files from a folder into the vector index",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data-folder",
						Aliases:  []string{"d"},
						Usage:    "Folder containing the CSV files to ingest",
						Required: true,
						EnvVars:  []string{"DATA_FOLDER"},
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Number of texts per embedding request",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records per upsert batch",
						Value: 50,
					},
					&cli.StringFlag{
						Name:  "probe",
						Usage: "Run one similarity query with this text after loading",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the query API over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Listen address",
						Value:   ":8080",
					},
					&cli.IntFlag{
						Name:  "top-k-default",
						Usage: "Top-K used when a query omits top_k",
						Value: 5,
					},
				},
			},
			{
				Name:   "query",
				Usage:  "Embed a question and send it to a running server",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "question",
						Aliases:  []string{"q"},
						Usage:    "Question to ask",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of records to retrieve",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "server",
						Usage: "Base URL of the running query server",
						Value: "http://localhost:8080",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func indexConfig(c *cli.Context) *qdrant.Config {
	return &qdrant.Config{
		Host:   c.String("qdrant-host"),
		Port:   c.Int("qdrant-port"),
		APIKey: c.String("qdrant-api-key"),
	}
}

func aiConfig(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionHost(c.String("completion-host")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithTokens("none", c.String("completion-api-key")),
	)
}

func newSystem(c *cli.Context) (*tabindex.System, error) {
	cfg := aiConfig(c)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	system, err := tabindex.NewSystem(c.String("index"),
		tabindex.WithIndexConfig(indexConfig(c)),
		tabindex.WithAIConfig(cfg),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return system, nil
}

func loadCommand(c *cli.Context) error {
	ctx := c.Context

	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	pipeline, err := system.NewIngestionPipeline(c.String("data-folder"),
		ingest.WithChunkSize(c.Int("chunk-size")),
		ingest.WithBatchSize(c.Int("batch-size")),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	summary, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Files processed:    %d\n", summary.FilesProcessed)
	fmt.Fprintf(os.Stderr, "Documents uploaded: %d\n", summary.DocumentsUploaded)
	fmt.Fprintf(os.Stderr, "Failed units:       %d\n", len(summary.Failures))
	for _, failure := range summary.Failures {
		fmt.Fprintf(os.Stderr, "  %s\n", failure)
	}

	if probe := c.String("probe"); probe != "" {
		return runProbe(ctx, system, probe)
	}
	return nil
}

// runProbe runs one similarity query against the freshly loaded index and
// logs the matches, as a quick smoke check of the whole path.
func runProbe(ctx context.Context, system *tabindex.System, text string) error {
	vector, err := system.Provider().Embedder().EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("probe embedding failed: %w", err)
	}

	matches, err := system.Index().Query(ctx, vector, 5)
	if err != nil {
		return fmt.Errorf("probe query failed: %w", err)
	}

	slog.Info("probe results", "query", text, "matches", len(matches))
	for _, match := range matches {
		slog.Info("probe match",
			"id", match.ID,
			"score", match.Score,
			"source_file", match.Metadata["source_file"],
			"row_index", match.Metadata["row_index"],
		)
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	service, err := system.NewAnswerService()
	if err != nil {
		return fmt.Errorf("failed to create answer service: %w", err)
	}

	srv, err := server.NewServer(service,
		server.WithDefaultTopK(c.Int("top-k-default")),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(c.String("addr"))
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func queryCommand(c *cli.Context) error {
	ctx := c.Context

	cfg := aiConfig(c)
	embedder, err := openai.NewEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	question := c.String("question")
	vector, err := embedder.EmbedText(ctx, question)
	if err != nil {
		return fmt.Errorf("failed to embed question: %w", err)
	}

	embedding := make([]float64, len(vector))
	for i, v := range vector {
		embedding[i] = float64(v)
	}

	body, err := json.Marshal(server.QueryRequest{
		Question:  question,
		Embedding: embedding,
		TopK:      c.Int("top-k"),
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := strings.TrimSuffix(c.String("server"), "/") + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var result struct {
		Answer  string           `json:"answer"`
		Sources []map[string]any `json:"sources"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Println(result.Answer)
	fmt.Fprintf(os.Stderr, "(%d sources)\n", len(result.Sources))
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
