package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process Index using brute-force cosine similarity. It keeps
// points in insertion order so equally scored search results stay stable.
// Intended for development and tests; contents do not survive restarts.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	points    []Point
}

// NewMemory creates an empty in-memory index with the given dimension.
func NewMemory(dimension int) *Memory {
	return &Memory{dimension: dimension}
}

func (m *Memory) EnsureReady(ctx context.Context) error { return nil }

func (m *Memory) Health(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Upsert appends points, replacing any with a matching id.
func (m *Memory) Upsert(ctx context.Context, points []Point) error {
	for i, p := range points {
		if len(p.Vector) != m.dimension {
			return fmt.Errorf("%w: point %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(p.Vector), m.dimension)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		if i := m.indexOf(p.ID); i >= 0 {
			m.points[i] = p
			continue
		}
		m.points = append(m.points, p)
	}
	return nil
}

// Search scores every stored point against the query vector and returns the
// top limit, best first. Ties keep insertion order.
func (m *Memory) Search(ctx context.Context, vector []float32, limit int) ([]ScoredPoint, error) {
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), m.dimension)
	}
	if limit <= 0 {
		limit = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]ScoredPoint, 0, len(m.points))
	for _, p := range m.points {
		point := p
		point.Vector = nil // search results carry payload only
		scored = append(scored, ScoredPoint{Point: point, Score: cosine(p.Vector, vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit < len(scored) {
		scored = scored[:limit]
	}
	return scored, nil
}

// Delete removes points by id; unknown ids are ignored.
func (m *Memory) Delete(ctx context.Context, ids []string) error {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.points[:0]
	for _, p := range m.points {
		if _, ok := drop[p.ID]; !ok {
			kept = append(kept, p)
		}
	}
	m.points = kept
	return nil
}

// Count returns the number of stored points.
func (m *Memory) Count(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.points)), nil
}

// indexOf returns the position of a point id, or -1. Caller holds the lock.
func (m *Memory) indexOf(id string) int {
	for i, p := range m.points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
