// Package docstore is the source of truth for document lifecycle: per-document
// metadata, the mapping to chunk ids held in the vector index, and cascade
// deletion. Metadata lives in SQLite so it survives restarts; the vector index
// is the durable store for embeddings.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/bull/docqa-server/internal/storage"
)

// Document is one ingested upload and the owner of its chunks.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	ChunkIDs   []string  `json:"-"`
	ChunkCount int       `json:"chunk_count"`
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	uploaded_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
`

// Store tracks documents in SQLite and keeps the vector index consistent
// with the registry. Mutations are serialized; reads may interleave and see
// either the pre- or post-mutation state, never a torn one.
type Store struct {
	db     *sql.DB
	index  storage.Index
	logger *slog.Logger

	mu sync.Mutex // serializes Add/Delete
}

// Open creates or opens the registry database under dataDir and wires it to
// the given vector index.
func Open(dataDir string, index storage.Index, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "documents.db")

	// WAL mode so list reads do not block behind mutations; foreign keys in
	// the DSN so the pragma applies to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, index: index, logger: logger}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add assigns a new document id, writes the chunk vectors into the index and
// records the document. If any step fails, or ctx is cancelled mid-write,
// already written vectors are removed again and ErrIngestion is returned;
// a partial document is never visible.
//
// Re-ingesting identical content produces a new independent document.
func (s *Store) Add(ctx context.Context, filename string, chunkTexts []string, embeddings [][]float32) (*Document, error) {
	if len(chunkTexts) == 0 {
		return nil, fmt.Errorf("%w: %s produced no chunks", ErrIngestion, filename)
	}
	if len(chunkTexts) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d chunks but %d embeddings", ErrIngestion, len(chunkTexts), len(embeddings))
	}

	docID := uuid.New().String()
	uploadedAt := time.Now().UTC()

	points := make([]storage.Point, len(chunkTexts))
	chunkIDs := make([]string, len(chunkTexts))
	for i, text := range chunkTexts {
		chunkIDs[i] = uuid.New().String()
		points[i] = storage.Point{
			ID:         chunkIDs[i],
			DocumentID: docID,
			ChunkIndex: i,
			Text:       text,
			Filename:   filename,
			UploadedAt: uploadedAt,
			Vector:     embeddings[i],
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Upsert(ctx, points); err != nil {
		s.rollbackVectors(ctx, docID, chunkIDs)
		return nil, fmt.Errorf("%w: indexing %s: %v", ErrIngestion, filename, err)
	}

	if err := s.recordDocument(ctx, docID, filename, uploadedAt, chunkIDs); err != nil {
		s.rollbackVectors(ctx, docID, chunkIDs)
		return nil, fmt.Errorf("%w: recording %s: %v", ErrIngestion, filename, err)
	}

	return &Document{
		ID:         docID,
		Filename:   filename,
		UploadedAt: uploadedAt,
		ChunkIDs:   chunkIDs,
		ChunkCount: len(chunkIDs),
	}, nil
}

// recordDocument writes the document and chunk rows in one transaction.
func (s *Store) recordDocument(ctx context.Context, docID, filename string, uploadedAt time.Time, chunkIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO documents (id, filename, uploaded_at) VALUES (?, ?, ?)",
		docID, filename, uploadedAt.Format(time.RFC3339Nano)); err != nil {
		return err
	}
	for seq, chunkID := range chunkIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (id, document_id, seq) VALUES (?, ?, ?)",
			chunkID, docID, seq); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// rollbackVectors removes partially written points after a failed Add. It
// runs detached from the caller's context so cancellation still rolls back.
func (s *Store) rollbackVectors(ctx context.Context, docID string, chunkIDs []string) {
	if err := s.index.Delete(context.WithoutCancel(ctx), chunkIDs); err != nil {
		s.logger.Error("rollback of partial ingest failed", "document_id", docID, "error", err)
	}
}

// List returns all documents in insertion order, with their chunk ids.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, uploaded_at FROM documents ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	byID := make(map[string]int)
	for rows.Next() {
		var doc Document
		var uploadedAt string
		if err := rows.Scan(&doc.ID, &doc.Filename, &uploadedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)
		byID[doc.ID] = len(docs)
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	chunkRows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id FROM chunks ORDER BY document_id, seq")
	if err != nil {
		return nil, fmt.Errorf("listing chunks: %w", err)
	}
	defer chunkRows.Close()

	for chunkRows.Next() {
		var chunkID, docID string
		if err := chunkRows.Scan(&chunkID, &docID); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if i, ok := byID[docID]; ok {
			docs[i].ChunkIDs = append(docs[i].ChunkIDs, chunkID)
			docs[i].ChunkCount++
		}
	}
	return docs, chunkRows.Err()
}

// Get returns one document by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	var uploadedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, filename, uploaded_at FROM documents WHERE id = ?", id).
		Scan(&doc.ID, &doc.Filename, &uploadedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	doc.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploadedAt)

	chunkIDs, err := s.chunkIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.ChunkIDs = chunkIDs
	doc.ChunkCount = len(chunkIDs)
	return &doc, nil
}

// Delete removes the document's vectors from the index, then its registry
// rows. Unknown ids fail with ErrNotFound. If the vector removal fails the
// document record is kept and ErrDeletion returned, so a retry can finish
// the job; no dangling record ever points at missing chunks in the registry
// while vectors remain.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE id = ?", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	chunkIDs, err := s.chunkIDs(ctx, id)
	if err != nil {
		return err
	}

	if err := s.index.Delete(ctx, chunkIDs); err != nil {
		return fmt.Errorf("%w: removing vectors for %s: %v", ErrDeletion, id, err)
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		// Vectors are gone but the record remains; a retried delete will
		// no-op on the index and clear the record.
		return fmt.Errorf("%w: removing record for %s: %v", ErrDeletion, id, err)
	}
	return nil
}

func (s *Store) chunkIDs(ctx context.Context, docID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_id = ? ORDER BY seq", docID)
	if err != nil {
		return nil, fmt.Errorf("listing chunk ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
