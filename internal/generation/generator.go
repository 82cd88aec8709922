// Package generation produces natural-language answers through an
// interchangeable generator interface.
package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
)

// ErrGeneration wraps any provider failure during answer synthesis: timeout,
// quota, malformed response. The orchestrator surfaces it without retrying.
var ErrGeneration = errors.New("answer generation failed")

// Generator produces an answer for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OpenAIGenerator answers prompts with an OpenAI chat model.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a generator using the given chat model.
func NewOpenAI(client *openai.Client, model string) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: client,
		model:  model,
	}
}

// Generate sends the prompt as a single user message and returns the model's
// reply. Provider errors are wrapped as ErrGeneration.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(g.model),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: provider returned no choices", ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}
