// Package embedding maps text to fixed-dimension vectors through an
// interchangeable provider interface.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate
// limits. OpenAI supports up to 2048 texts per batch, but smaller batches
// reduce TPM pressure.
const DefaultBatchSize = 500

// Provider maps text to fixed-dimension vectors. Implementations must be
// deterministic for identical input within a session and safe for concurrent
// use.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Embedder generates embeddings through the OpenAI API. It batches requests
// for efficiency and retries rate limit errors with exponential backoff.
type Embedder struct {
	client    *Client
	model     string
	dimension int
	batchSize int
}

// NewEmbedder creates an Embedder for the given model and output dimension.
// If batchSize is 0, DefaultBatchSize is used.
func NewEmbedder(client *Client, model string, dimension, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Dimension returns the configured output vector size.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed generates embeddings for the given texts, preserving input order.
// Batches requests and retries with exponential backoff on rate limit errors.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var allEmbeddings [][]float32

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))
		batch := texts[i:end]

		embeddings, err := e.embedBatchWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// embedBatchWithRetry generates embeddings for a single batch with retry
// logic. Retries with exponential backoff on rate limit errors (HTTP 429).
// Other errors are treated as permanent and fail immediately.
func (e *Embedder) embedBatchWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model:      openai.EmbeddingModel(e.model),
			Dimensions: openai.Int(int64(e.dimension)),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err) // Don't retry
		}

		embeddings = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			if len(data.Embedding) != e.dimension {
				return backoff.Permanent(fmt.Errorf(
					"provider returned %d dimensions, expected %d", len(data.Embedding), e.dimension))
			}
			embeddings[i] = toFloat32(data.Embedding)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b, ctx))
	return embeddings, err
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32. OpenAI returns float64, the
// vector index stores float32.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
