// Package main provides the docqa CLI for managing the document Q&A index.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/docqa-server/internal/config"
	"github.com/bull/docqa-server/internal/docstore"
	"github.com/bull/docqa-server/internal/embedding"
	"github.com/bull/docqa-server/internal/engine"
	"github.com/bull/docqa-server/internal/extract"
	"github.com/bull/docqa-server/internal/generation"
	"github.com/bull/docqa-server/internal/ingest"
	"github.com/bull/docqa-server/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Document Q&A management tool",
	Long: `CLI tool for managing the document Q&A index.

Environment variables:
  QDRANT_HOST          Qdrant hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY       OpenAI API key for embeddings and answers (required)
  DATA_DIR             Document registry directory (default: data)
  SIMILARITY_THRESHOLD Minimum retrieval score (default: 0.1)`,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest files into the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Ask a question over the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check vector index connectivity",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(ingestCmd, queryCmd, listCmd, deleteCmd, healthCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env wires the shared components a subcommand needs. needModels controls
// whether the OpenAI client is created; list/delete/health skip it.
type env struct {
	cfg       *config.Config
	index     storage.Index
	store     *docstore.Store
	embedder  *embedding.Embedder
	generator *generation.OpenAIGenerator
}

func setup(needModels bool) (*env, func(), error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var index storage.Index
	var err error
	if cfg.VectorStore == "memory" {
		index = storage.NewMemory(cfg.EmbeddingDimension)
	} else {
		index, err = storage.NewQdrant(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, cfg.EmbeddingDimension)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to Qdrant: %w", err)
		}
	}

	store, err := docstore.Open(cfg.DataDir, index, nil)
	if err != nil {
		index.Close()
		return nil, nil, fmt.Errorf("opening document store: %w", err)
	}

	e := &env{cfg: cfg, index: index, store: store}
	cleanup := func() {
		store.Close()
		index.Close()
	}

	if needModels {
		client, err := embedding.NewClient()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		e.embedder = embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension, 0)
		e.generator = generation.NewOpenAI(client.Client(), cfg.ChatModel)
	}

	return e, cleanup, nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, cleanup, err := setup(true)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := e.index.EnsureReady(ctx); err != nil {
		return fmt.Errorf("preparing index: %w", err)
	}

	pipeline := ingest.New(extract.New(nil), e.embedder, e.store, e.cfg.ChunkSize, e.cfg.ChunkOverlap, nil, nil)

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		doc, err := pipeline.Ingest(ctx, filepath.Base(path), data)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		fmt.Printf("%s: %d chunks (id %s)\n", doc.Filename, doc.ChunkCount, doc.ID)
	}
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, cleanup, err := setup(true)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := engine.New(e.embedder, e.index, engine.Options{TopK: e.cfg.TopK, Threshold: e.cfg.SimilarityThreshold}, nil)
	orchestrator := engine.NewOrchestrator(eng, e.generator, nil, nil)

	result, err := orchestrator.Answer(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Mode: %s\n\n%s\n", result.Mode, result.Answer)
	if len(result.Hits) > 0 {
		fmt.Println("\nSources:")
		for _, h := range result.Hits {
			fmt.Printf("  %d. %s (chunk %d, score %.3f)\n", h.Rank, h.Filename, h.ChunkIndex, h.Score)
		}
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	e, cleanup, err := setup(false)
	if err != nil {
		return err
	}
	defer cleanup()

	docs, err := e.store.List(context.Background())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested")
		return nil
	}
	for _, d := range docs {
		fmt.Printf("%s  %-30s  %d chunks  %s\n", d.ID, d.Filename, d.ChunkCount, d.UploadedAt.Format(time.RFC3339))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	e, cleanup, err := setup(false)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := e.store.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	e, cleanup, err := setup(false)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := e.index.Health(ctx); err != nil {
		return fmt.Errorf("index unhealthy: %w", err)
	}
	count, err := e.index.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting points: %w", err)
	}
	fmt.Printf("Index healthy (%d chunks stored)\n", count)
	return nil
}
