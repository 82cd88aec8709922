package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bull/docqa-server/internal/generation"
	"github.com/bull/docqa-server/internal/logbus"
)

// QueryResult is the full outcome of a question: the generated answer, the
// mode it was answered in, and the chunks that grounded it (empty in
// general mode).
type QueryResult struct {
	Answer         string `json:"answer"`
	Mode           Mode   `json:"mode"`
	Hits           []Hit  `json:"sources"`
	UsedChunkCount int    `json:"used_chunk_count"`
}

// Orchestrator runs the retrieve-then-generate flow for a single question
// and publishes progress events for live observers.
type Orchestrator struct {
	engine    *Engine
	generator generation.Generator
	bus       *logbus.Bus
	logger    *slog.Logger
}

// NewOrchestrator wires retrieval and generation together. bus may be nil
// when no live log consumers exist.
func NewOrchestrator(engine *Engine, generator generation.Generator, bus *logbus.Bus, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine:    engine,
		generator: generator,
		bus:       bus,
		logger:    logger,
	}
}

// Answer resolves one question end to end. Retrieval failures abort the
// query before any model call; generation failures surface as
// generation.ErrGeneration.
func (o *Orchestrator) Answer(ctx context.Context, query string) (*QueryResult, error) {
	o.publishInfo("retrieval started", logbus.Fields{"query_length": len(query)})

	mode, hits, err := o.engine.Retrieve(ctx, query)
	if err != nil {
		o.publishError("retrieval failed", logbus.Fields{"error": err.Error()})
		return nil, err
	}
	o.publishInfo("retrieval completed", logbus.Fields{"mode": string(mode), "hits": len(hits)})
	o.logger.Info("retrieval completed", "mode", mode, "hits", len(hits))

	prompt := buildPrompt(query, hits)
	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		o.publishError("generation failed", logbus.Fields{"mode": string(mode), "error": err.Error()})
		return nil, err
	}
	o.publishInfo("generation completed", logbus.Fields{"mode": string(mode), "answer_length": len(answer)})

	return &QueryResult{
		Answer:         answer,
		Mode:           mode,
		Hits:           hits,
		UsedChunkCount: len(hits),
	}, nil
}

// buildPrompt renders the grounded prompt: each chunk tagged with its source
// file, then the question. With no hits it is just the bare question, so the
// model answers from its own knowledge.
func buildPrompt(query string, hits []Hit) string {
	if len(hits) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString("Answer the question using the reference documents below. If they do not contain the answer, say so.\n\n")
	b.WriteString("Reference documents:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", h.Rank, h.Filename, h.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}

func (o *Orchestrator) publishInfo(msg string, fields logbus.Fields) {
	if o.bus != nil {
		o.bus.Info(msg, fields)
	}
}

func (o *Orchestrator) publishError(msg string, fields logbus.Fields) {
	if o.bus != nil {
		o.bus.Error(msg, fields)
	}
}
