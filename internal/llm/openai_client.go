// ABOUTME: OpenAI client for topic name generation and embeddings
// ABOUTME: Chat completions name clusters; text-embedding-3-small embeds names and keyphrases (configurable)
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/topicnaming/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultContextWindow is the prompt budget assumed for the chat model
	DefaultContextWindow = 8192
	// embedBatchSize bounds the number of inputs per embeddings request
	embedBatchSize = 256
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel openai.EmbeddingModel
	ContextWindow  int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	Temperature    float32
	Logger         *log.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		ContextWindow:  DefaultContextWindow,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
		Temperature:    0.3,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	contextWindow  int
	timeout        time.Duration
	maxRetries     int
	retryDelay     time.Duration
	temperature    float32
	logger         *log.Logger
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if config.ContextWindow <= 0 {
		return nil, fmt.Errorf("context window must be positive, got %d", config.ContextWindow)
	}

	oc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		oc.BaseURL = config.BaseURL
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(oc),
		chatModel:      config.ChatModel,
		embeddingModel: config.EmbeddingModel,
		contextWindow:  config.ContextWindow,
		timeout:        timeout,
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		temperature:    config.Temperature,
		logger:         logger,
	}, nil
}

// ContextWindow returns the configured prompt budget in tokens
func (c *OpenAIClient) ContextWindow() int {
	return c.contextWindow
}

// Generate asks the chat model to complete prompt
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You name topics. Reply with the topic name only, on a single line.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.temperature,
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	var content string
	err := util.Do(ctx, c.maxRetries, c.retryDelay, func(attempt int) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, err := c.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			c.logger.Debug("completion failed", "attempt", attempt+1, "err", err)
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	return content, nil
}

// Embed embeds texts in batches, preserving input order
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *OpenAIClient) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	// The API rejects empty strings.
	input := make([]string, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			t = " "
		}
		input[i] = t
	}

	var vectors [][]float64
	err := util.Do(ctx, c.maxRetries, c.retryDelay, func(attempt int) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		resp, err := c.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: input,
			Model: c.embeddingModel,
		})
		if err != nil {
			c.logger.Debug("embedding failed", "attempt", attempt+1, "err", err)
			return err
		}
		if len(resp.Data) != len(input) {
			return fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(input))
		}

		out := make([][]float64, len(input))
		for _, d := range resp.Data {
			if d.Index < 0 || d.Index >= len(out) {
				return fmt.Errorf("embedding index %d out of range", d.Index)
			}
			v := make([]float64, len(d.Embedding))
			for i, x := range d.Embedding {
				v[i] = float64(x)
			}
			out[d.Index] = v
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	return vectors, nil
}
