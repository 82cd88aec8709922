package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/docqa-server/internal/storage"
)

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return len(s.vec) }

type stubIndex struct {
	results []storage.ScoredPoint
	err     error
}

func (s *stubIndex) EnsureReady(ctx context.Context) error { return nil }
func (s *stubIndex) Upsert(ctx context.Context, points []storage.Point) error {
	return nil
}
func (s *stubIndex) Search(ctx context.Context, vector []float32, limit int) ([]storage.ScoredPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.results) {
		return s.results[:limit], nil
	}
	return s.results, nil
}
func (s *stubIndex) Delete(ctx context.Context, ids []string) error { return nil }
func (s *stubIndex) Count(ctx context.Context) (uint64, error)      { return uint64(len(s.results)), nil }
func (s *stubIndex) Health(ctx context.Context) error               { return nil }
func (s *stubIndex) Close() error                                   { return nil }

func scored(id string, score float64) storage.ScoredPoint {
	return storage.ScoredPoint{
		Point: storage.Point{ID: id, DocumentID: "doc-1", Filename: "notes.txt", Text: "text " + id},
		Score: score,
	}
}

func TestEngine_Retrieve_FiltersBelowThreshold(t *testing.T) {
	idx := &stubIndex{results: []storage.ScoredPoint{
		scored("a", 0.8),
		scored("b", 0.05),
		scored("c", 0.05),
	}}
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, idx, Options{TopK: 5, Threshold: 0.1}, nil)

	mode, hits, err := eng.Retrieve(context.Background(), "what is a?")
	require.NoError(t, err)
	assert.Equal(t, ModeRAG, mode)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, 1, hits[0].Rank)
}

func TestEngine_Retrieve_ThresholdIsInclusive(t *testing.T) {
	idx := &stubIndex{results: []storage.ScoredPoint{scored("edge", 0.1)}}
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, idx, Options{TopK: 5, Threshold: 0.1}, nil)

	mode, hits, err := eng.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, ModeRAG, mode)
	require.Len(t, hits, 1)
	assert.Equal(t, "edge", hits[0].ChunkID)
}

func TestEngine_Retrieve_AllBelowThresholdMeansGeneral(t *testing.T) {
	idx := &stubIndex{results: []storage.ScoredPoint{
		scored("a", 0.09),
		scored("b", 0.01),
	}}
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, idx, Options{TopK: 5, Threshold: 0.1}, nil)

	mode, hits, err := eng.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, ModeGeneral, mode)
	assert.Empty(t, hits)
}

func TestEngine_Retrieve_EmptyIndexMeansGeneral(t *testing.T) {
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, &stubIndex{}, Options{TopK: 5, Threshold: 0.1}, nil)

	mode, hits, err := eng.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, ModeGeneral, mode)
	assert.Empty(t, hits)
}

func TestEngine_Retrieve_RanksDescendingByScore(t *testing.T) {
	idx := &stubIndex{results: []storage.ScoredPoint{
		scored("mid", 0.5),
		scored("top", 0.9),
		scored("low", 0.3),
	}}
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, idx, Options{TopK: 5, Threshold: 0.1}, nil)

	_, hits, err := eng.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"top", "mid", "low"}, []string{hits[0].ChunkID, hits[1].ChunkID, hits[2].ChunkID})
	assert.Equal(t, []int{1, 2, 3}, []int{hits[0].Rank, hits[1].Rank, hits[2].Rank})
}

func TestEngine_Retrieve_EqualScoresKeepIndexOrder(t *testing.T) {
	idx := &stubIndex{results: []storage.ScoredPoint{
		scored("first", 0.5),
		scored("second", 0.5),
	}}
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, idx, Options{TopK: 5, Threshold: 0.1}, nil)

	_, hits, err := eng.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first", hits[0].ChunkID)
	assert.Equal(t, "second", hits[1].ChunkID)
}

func TestEngine_Retrieve_EmbedderFailure(t *testing.T) {
	eng := New(&stubEmbedder{err: errors.New("provider down")}, &stubIndex{}, Options{TopK: 5, Threshold: 0.1}, nil)

	_, _, err := eng.Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}

func TestEngine_Retrieve_IndexFailure(t *testing.T) {
	idx := &stubIndex{err: errors.New("connection refused")}
	eng := New(&stubEmbedder{vec: []float32{1, 0}}, idx, Options{TopK: 5, Threshold: 0.1}, nil)

	_, _, err := eng.Retrieve(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetrievalUnavailable)
}
