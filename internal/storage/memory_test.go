package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoint(docID string, idx int, vector []float32) Point {
	return Point{
		ID:         uuid.New().String(),
		DocumentID: docID,
		ChunkIndex: idx,
		Text:       "chunk text",
		Filename:   "test.txt",
		UploadedAt: time.Now().UTC(),
		Vector:     vector,
	}
}

func TestMemory_UpsertSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(3)

	p1 := testPoint("doc-1", 0, []float32{1, 0, 0})
	p2 := testPoint("doc-1", 1, []float32{0, 1, 0})
	require.NoError(t, idx.Upsert(ctx, []Point{p1, p2}))

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, p1.ID, results[0].Point.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.InDelta(t, 0.0, results[1].Score, 1e-6)
	assert.Equal(t, "doc-1", results[0].Point.DocumentID)
	assert.Nil(t, results[0].Point.Vector, "search results should not carry vectors")
}

func TestMemory_DimensionValidation(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(3)

	err := idx.Upsert(ctx, []Point{testPoint("doc-1", 0, []float32{1, 0})})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = idx.Search(ctx, []float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestMemory_SearchLimit(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(2)

	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Upsert(ctx, []Point{testPoint("doc-1", i, []float32{1, 0})}))
	}

	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestMemory_TiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(2)

	first := testPoint("doc-1", 0, []float32{1, 0})
	second := testPoint("doc-1", 1, []float32{1, 0})
	third := testPoint("doc-2", 0, []float32{0, 1})
	require.NoError(t, idx.Upsert(ctx, []Point{first, second, third}))

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, first.ID, results[0].Point.ID)
	assert.Equal(t, second.ID, results[1].Point.ID)
	assert.Equal(t, third.ID, results[2].Point.ID)
}

func TestMemory_DeleteRemovesPoints(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(2)

	p1 := testPoint("doc-1", 0, []float32{1, 0})
	p2 := testPoint("doc-2", 0, []float32{0, 1})
	require.NoError(t, idx.Upsert(ctx, []Point{p1, p2}))

	require.NoError(t, idx.Delete(ctx, []string{p1.ID, "not-a-real-id"}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	results, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, p2.ID, results[0].Point.ID)
}

func TestMemory_UpsertReplacesExistingID(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(2)

	p := testPoint("doc-1", 0, []float32{1, 0})
	require.NoError(t, idx.Upsert(ctx, []Point{p}))

	p.Text = "updated"
	require.NoError(t, idx.Upsert(ctx, []Point{p}))

	count, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	results, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	assert.Equal(t, "updated", results[0].Point.Text)
}
