// Package config collects the environment configuration consumed by the
// document Q&A core. The values are read once at startup; .env loading is
// left to the entry points.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults match the reference deployment.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultTopK                = 5
	DefaultSimilarityThreshold = 0.1
	DefaultEmbeddingDimension  = 768
	DefaultCollection          = "documents"
)

// Config holds every tunable the core reads from the environment.
type Config struct {
	// Vector index backend: "qdrant" or "memory".
	VectorStore string
	QdrantHost  string
	QdrantPort  int
	Collection  string

	EmbeddingModel     string
	EmbeddingDimension int
	ChatModel          string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	// SimilarityThreshold is the minimum score a retrieved chunk must meet
	// to be considered relevant. Kept tunable rather than hardcoded.
	SimilarityThreshold float64

	// DataDir holds the document registry database.
	DataDir string
	Port    string
}

// FromEnv builds a Config from environment variables, applying defaults
// for anything unset.
func FromEnv() *Config {
	return &Config{
		VectorStore:         getEnv("VECTOR_STORE", "qdrant"),
		QdrantHost:          getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:          getEnvInt("QDRANT_PORT", 6334),
		Collection:          getEnv("QDRANT_COLLECTION", DefaultCollection),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimension:  getEnvInt("EMBEDDING_DIMENSION", DefaultEmbeddingDimension),
		ChatModel:           getEnv("CHAT_MODEL", "gpt-4o"),
		ChunkSize:           getEnvInt("CHUNK_SIZE", DefaultChunkSize),
		ChunkOverlap:        getEnvInt("CHUNK_OVERLAP", DefaultChunkOverlap),
		TopK:                getEnvInt("TOP_K", DefaultTopK),
		SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", DefaultSimilarityThreshold),
		DataDir:             getEnv("DATA_DIR", "data"),
		Port:                getEnv("PORT", "8080"),
	}
}

// Validate rejects configurations the chunker or index would refuse later.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be in [0, %d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDimension)
	}
	if c.VectorStore != "qdrant" && c.VectorStore != "memory" {
		return fmt.Errorf("unknown vector store %q", c.VectorStore)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
