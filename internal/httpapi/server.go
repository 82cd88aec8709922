// Package httpapi exposes the document Q&A engine over HTTP: upload,
// document management, querying, live log streaming and a health endpoint.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/bull/docqa-server/internal/docstore"
	"github.com/bull/docqa-server/internal/engine"
	"github.com/bull/docqa-server/internal/ingest"
	"github.com/bull/docqa-server/internal/logbus"
	"github.com/bull/docqa-server/internal/storage"
)

// maxUploadBytes caps a single uploaded file at 32 MiB.
const maxUploadBytes = 32 << 20

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipeline     *ingest.Pipeline
	store        *docstore.Store
	orchestrator *engine.Orchestrator
	index        storage.Index
	bus          *logbus.Bus
	logger       *slog.Logger
}

// New creates a Server. logger falls back to slog.Default when nil.
func New(pipeline *ingest.Pipeline, store *docstore.Store, orchestrator *engine.Orchestrator, index storage.Index, bus *logbus.Bus, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline:     pipeline,
		store:        store,
		orchestrator: orchestrator,
		index:        index,
		bus:          bus,
		logger:       logger,
	}
}

// Handler returns the routed mux for the API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /health", NewHealthHandler(s.index))
	return mux
}
