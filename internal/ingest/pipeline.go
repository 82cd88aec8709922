// Package ingest turns an uploaded file into indexed, queryable chunks.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/docqa-server/internal/chunker"
	"github.com/bull/docqa-server/internal/docstore"
	"github.com/bull/docqa-server/internal/embedding"
	"github.com/bull/docqa-server/internal/extract"
	"github.com/bull/docqa-server/internal/logbus"
)

// Pipeline runs the full ingestion flow for one file: extract text, split
// into chunks, embed, and register the document with its vectors.
type Pipeline struct {
	extractor    *extract.Extractor
	embedder     embedding.Provider
	store        *docstore.Store
	chunkSize    int
	chunkOverlap int
	bus          *logbus.Bus
	logger       *slog.Logger
}

// New creates a Pipeline. bus may be nil.
func New(extractor *extract.Extractor, embedder embedding.Provider, store *docstore.Store, chunkSize, chunkOverlap int, bus *logbus.Bus, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor:    extractor,
		embedder:     embedder,
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		bus:          bus,
		logger:       logger,
	}
}

// Ingest processes one uploaded file and returns the registered document.
// A file that yields no text, or any downstream failure, leaves the store
// and index unchanged.
func (p *Pipeline) Ingest(ctx context.Context, filename string, data []byte) (*docstore.Document, error) {
	p.publishInfo("upload received", logbus.Fields{"filename": filename, "bytes": len(data)})

	text, err := p.extractor.Extract(data, filename)
	if err != nil {
		p.publishError("ingest failed", logbus.Fields{"filename": filename, "stage": "extract", "error": err.Error()})
		return nil, err
	}

	chunks, err := chunker.Split(strings.TrimSpace(text), p.chunkSize, p.chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", filename, err)
	}
	if len(chunks) == 0 {
		p.publishError("ingest failed", logbus.Fields{"filename": filename, "stage": "chunk", "error": "no text extracted"})
		return nil, fmt.Errorf("%w: %s produced no chunks", docstore.ErrIngestion, filename)
	}

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		p.publishError("ingest failed", logbus.Fields{"filename": filename, "stage": "embed", "error": err.Error()})
		return nil, fmt.Errorf("%w: embedding %s: %v", docstore.ErrIngestion, filename, err)
	}

	doc, err := p.store.Add(ctx, filename, chunks, vectors)
	if err != nil {
		p.publishError("ingest failed", logbus.Fields{"filename": filename, "stage": "store", "error": err.Error()})
		return nil, err
	}

	p.logger.Info("document ingested", "document_id", doc.ID, "filename", filename, "chunks", doc.ChunkCount)
	p.publishInfo("document ingested", logbus.Fields{"document_id": doc.ID, "filename": filename, "chunks": doc.ChunkCount})
	return doc, nil
}

func (p *Pipeline) publishInfo(msg string, fields logbus.Fields) {
	if p.bus != nil {
		p.bus.Info(msg, fields)
	}
}

func (p *Pipeline) publishError(msg string, fields logbus.Fields) {
	if p.bus != nil {
		p.bus.Error(msg, fields)
	}
}
