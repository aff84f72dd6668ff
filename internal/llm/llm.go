// ABOUTME: Collaborator contracts for text generation, embeddings and token counting
// ABOUTME: The pipeline depends only on these interfaces; OpenAI backs them in production
package llm

import "context"

// Generator produces a single completion for a prompt.
type Generator interface {
	// Generate returns the completion text. maxTokens <= 0 leaves the
	// completion length to the model.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	// ContextWindow is the model's prompt budget in tokens.
	ContextWindow() int
}

// Embedder maps strings to vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Tokenizer counts and trims text in model tokens.
type Tokenizer interface {
	Count(text string) int
	Truncate(text string, maxTokens int) string
}
