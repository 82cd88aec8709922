// Package engine answers questions over the indexed corpus: it retrieves the
// most similar chunks, decides between grounded (RAG) and open-domain
// (general) answering, and drives the generative model.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bull/docqa-server/internal/embedding"
	"github.com/bull/docqa-server/internal/storage"
)

// ErrRetrievalUnavailable means the embedding provider or vector index is
// unreachable. It is fatal for the current query and is never downgraded
// to a general-mode answer, so infrastructure outages stay visible.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// Mode describes how a query was answered.
type Mode string

const (
	// ModeRAG means the answer was grounded in retrieved chunks.
	ModeRAG Mode = "rag"
	// ModeGeneral means no chunk cleared the similarity threshold and the
	// model answered from its own knowledge.
	ModeGeneral Mode = "general"
)

// Hit is one retrieved chunk with its similarity score, 1-based rank.
type Hit struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"-"`
	Score      float64   `json:"score"`
	Rank       int       `json:"rank"`
	UploadedAt time.Time `json:"-"`
}

// Options are the retrieval tunables. The similarity threshold is the
// system's central knob: it decides when the engine declines to force
// irrelevant context into the prompt.
type Options struct {
	TopK      int
	Threshold float64
}

// Engine embeds queries and retrieves chunks above the similarity threshold.
type Engine struct {
	embedder  embedding.Provider
	index     storage.Index
	topK      int
	threshold float64
	logger    *slog.Logger
}

// New creates an Engine. Zero option values fall back to topK 5 and
// threshold 0.1.
func New(embedder embedding.Provider, index storage.Index, opts Options, logger *slog.Logger) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder:  embedder,
		index:     index,
		topK:      opts.TopK,
		threshold: opts.Threshold,
		logger:    logger,
	}
}

// Retrieve embeds the query, searches the index and keeps hits whose score
// meets the threshold (inclusive), best score first; equal scores keep the
// index's stable order, which favors earlier-inserted chunks. An empty
// filtered list means general mode.
func (e *Engine) Retrieve(ctx context.Context, query string) (Mode, []Hit, error) {
	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", nil, fmt.Errorf("%w: embedding query: %v", ErrRetrievalUnavailable, err)
	}

	results, err := e.index.Search(ctx, vectors[0], e.topK)
	if err != nil {
		return "", nil, fmt.Errorf("%w: searching index: %v", ErrRetrievalUnavailable, err)
	}

	var hits []Hit
	for _, r := range results {
		if r.Score < e.threshold {
			continue
		}
		hits = append(hits, Hit{
			ChunkID:    r.Point.ID,
			DocumentID: r.Point.DocumentID,
			Filename:   r.Point.Filename,
			ChunkIndex: r.Point.ChunkIndex,
			Text:       r.Point.Text,
			Score:      r.Score,
			UploadedAt: r.Point.UploadedAt,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	for i := range hits {
		hits[i].Rank = i + 1
	}

	if len(hits) == 0 {
		e.logger.Debug("no chunk cleared threshold", "threshold", e.threshold, "candidates", len(results))
		return ModeGeneral, nil, nil
	}
	return ModeRAG, hits, nil
}
