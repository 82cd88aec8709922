package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bull/docqa-server/internal/docstore"
	"github.com/bull/docqa-server/internal/engine"
	"github.com/bull/docqa-server/internal/extract"
	"github.com/bull/docqa-server/internal/generation"
)

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

type documentsResponse struct {
	Documents []docstore.Document `json:"documents"`
}

type queryRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	doc, err := s.pipeline.Ingest(r.Context(), header.Filename, data)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		ChunkCount: doc.ChunkCount,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if docs == nil {
		docs = []docstore.Document{}
	}
	writeJSON(w, http.StatusOK, documentsResponse{Documents: docs})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	result, err := s.orchestrator.Answer(r.Context(), req.Question)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if result.Hits == nil {
		result.Hits = []engine.Hit{}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleLogs streams pipeline events as server-sent events until the client
// disconnects or the bus shuts down.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := s.bus.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				s.logger.Error("encoding log event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// writeDomainError maps sentinel errors onto HTTP status codes. Unrecognized
// errors are logged and reported as a plain 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, extract.ErrNoExtractableText),
		errors.Is(err, extract.ErrUnknownEncoding),
		errors.Is(err, docstore.ErrIngestion):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, engine.ErrRetrievalUnavailable),
		errors.Is(err, docstore.ErrDeletion):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, generation.ErrGeneration):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
