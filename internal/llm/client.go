// Package llm abstracts the hosted text-generation model behind a single
// Generate call. The pipeline treats the model as a black box returning
// text; everything schema-shaped happens in the agent layer.
package llm

import "context"

// GenerateRequest carries one prompt to the model.
type GenerateRequest struct {
	// Prompt is the full prompt, rubric and transcript included.
	Prompt string

	// Model optionally overrides the client's configured model ID.
	Model string
}

// Client is the interface for invoking the text-generation model.
type Client interface {
	// Generate sends the prompt and returns the raw response text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
