// Package storage provides the vector index holding chunk embeddings and
// their retrievable payloads, scoped to one named collection.
package storage

import (
	"context"
	"time"
)

// Point is one chunk's embedding plus the payload returned on retrieval.
type Point struct {
	ID         string // chunk id (UUID)
	DocumentID string // owning document id
	ChunkIndex int    // position within the document (0, 1, 2...)
	Text       string // chunk text
	Filename   string // source document filename
	UploadedAt time.Time
	Vector     []float32
}

// ScoredPoint is a search result: a point with its similarity score.
// The vector is not populated on search results.
type ScoredPoint struct {
	Point Point
	Score float64
}

// Index stores (vector, payload) pairs per chunk and supports
// nearest-neighbor search. Implementations are safe for concurrent use.
type Index interface {
	// EnsureReady prepares the backing collection. Idempotent.
	EnsureReady(ctx context.Context) error
	// Upsert writes points, validating vector dimensions.
	Upsert(ctx context.Context, points []Point) error
	// Search returns up to limit nearest points, best score first. The
	// relative order of equally scored points is stable across calls.
	Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error)
	// Delete removes points by id. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
	// Count returns the number of stored points.
	Count(ctx context.Context) (uint64, error)
	// Health reports whether the backend is reachable.
	Health(ctx context.Context) error
	Close() error
}
