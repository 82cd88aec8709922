//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 768

// setupTestIndex creates a Qdrant-backed index against a local server and
// ensures the collection exists. Skips the test if Qdrant is not running.
func setupTestIndex(t *testing.T) *Qdrant {
	idx, err := NewQdrant("localhost", 6334, "docqa_test_"+uuid.New().String()[:8], testDimension)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = idx.EnsureReady(context.Background())
	require.NoError(t, err, "Failed to ensure collection")

	return idx
}

func uniformVector(value float32) []float32 {
	v := make([]float32, testDimension)
	for i := range v {
		v[i] = value
	}
	return v
}

func TestQdrant_UpsertSearchRoundTrip(t *testing.T) {
	idx := setupTestIndex(t)
	defer idx.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	point := Point{
		ID:         uuid.New().String(),
		DocumentID: uuid.New().String(),
		ChunkIndex: 2,
		Text:       "retrievable chunk text",
		Filename:   "manual.pdf",
		UploadedAt: now,
		Vector:     uniformVector(0.1),
	}
	require.NoError(t, idx.Upsert(ctx, []Point{point}))

	results, err := idx.Search(ctx, uniformVector(0.1), 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	got := results[0]
	assert.Equal(t, point.ID, got.Point.ID)
	assert.Equal(t, point.DocumentID, got.Point.DocumentID)
	assert.Equal(t, point.ChunkIndex, got.Point.ChunkIndex)
	assert.Equal(t, point.Text, got.Point.Text)
	assert.Equal(t, point.Filename, got.Point.Filename)
	assert.WithinDuration(t, now, got.Point.UploadedAt, time.Second)
	assert.InDelta(t, 1.0, got.Score, 1e-3)
}

func TestQdrant_DeleteRemovesPoints(t *testing.T) {
	idx := setupTestIndex(t)
	defer idx.Close()

	ctx := context.Background()

	docID := uuid.New().String()
	points := []Point{
		{ID: uuid.New().String(), DocumentID: docID, ChunkIndex: 0, Text: "a", Filename: "f.txt", UploadedAt: time.Now().UTC(), Vector: uniformVector(0.1)},
		{ID: uuid.New().String(), DocumentID: docID, ChunkIndex: 1, Text: "b", Filename: "f.txt", UploadedAt: time.Now().UTC(), Vector: uniformVector(0.2)},
	}
	require.NoError(t, idx.Upsert(ctx, points))

	before, err := idx.Count(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, before, uint64(2))

	require.NoError(t, idx.Delete(ctx, []string{points[0].ID, points[1].ID}))

	after, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before-2, after)

	results, err := idx.Search(ctx, uniformVector(0.1), 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, docID, r.Point.DocumentID, "deleted document must not be retrievable")
	}
}

func TestQdrant_DimensionValidation(t *testing.T) {
	idx := setupTestIndex(t)
	defer idx.Close()

	ctx := context.Background()

	wrong := Point{
		ID:         uuid.New().String(),
		DocumentID: uuid.New().String(),
		Text:       "wrong dimension",
		Filename:   "f.txt",
		UploadedAt: time.Now().UTC(),
		Vector:     make([]float32, 512),
	}
	err := idx.Upsert(ctx, []Point{wrong})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = idx.Search(ctx, make([]float32, 512), 10)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestQdrant_EnsureReadyIdempotent(t *testing.T) {
	idx := setupTestIndex(t)
	defer idx.Close()

	require.NoError(t, idx.EnsureReady(context.Background()))
	require.NoError(t, idx.EnsureReady(context.Background()))
}
