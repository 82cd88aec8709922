// Package main provides the document Q&A HTTP server entry point.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bull/docqa-server/internal/config"
	"github.com/bull/docqa-server/internal/docstore"
	"github.com/bull/docqa-server/internal/embedding"
	"github.com/bull/docqa-server/internal/engine"
	"github.com/bull/docqa-server/internal/extract"
	"github.com/bull/docqa-server/internal/generation"
	"github.com/bull/docqa-server/internal/httpapi"
	"github.com/bull/docqa-server/internal/ingest"
	"github.com/bull/docqa-server/internal/logbus"
	"github.com/bull/docqa-server/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	index, err := newIndex(cfg)
	if err != nil {
		log.Fatalf("failed to create vector index: %v", err)
	}
	defer index.Close()

	if err := index.EnsureReady(ctx); err != nil {
		log.Fatalf("failed to prepare vector index: %v", err)
	}

	client, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimension, 0) // Use default batch size
	generator := generation.NewOpenAI(client.Client(), cfg.ChatModel)

	store, err := docstore.Open(cfg.DataDir, index, nil)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}
	defer store.Close()

	bus := logbus.New(0)
	defer bus.Shutdown()

	pipeline := ingest.New(extract.New(nil), embedder, store, cfg.ChunkSize, cfg.ChunkOverlap, bus, nil)
	eng := engine.New(embedder, index, engine.Options{TopK: cfg.TopK, Threshold: cfg.SimilarityThreshold}, nil)
	orchestrator := engine.NewOrchestrator(eng, generator, bus, nil)

	api := httpapi.New(pipeline, store, orchestrator, index, bus, nil)

	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: api.Handler(),
	}

	go func() {
		log.Printf("Starting HTTP server on %s (API at /api, health at /health)", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func newIndex(cfg *config.Config) (storage.Index, error) {
	if cfg.VectorStore == "memory" {
		return storage.NewMemory(cfg.EmbeddingDimension), nil
	}
	return storage.NewQdrant(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection, cfg.EmbeddingDimension)
}
