// ABOUTME: Centralized configuration for the topic naming tools
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/topicnaming/internal/evidence"
	"github.com/harper/topicnaming/internal/layers"
	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/storage/sqlite"
)

// Config holds all configuration for topic naming
type Config struct {
	// Storage settings
	DBPath string

	// OpenAI settings
	OpenAIKey      string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	ContextWindow  int
	TokenizerFile  string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration
	CacheSize      int

	// Layer settings
	MinClusters         int
	BaseMinClusterSize  int
	MinSamples          int
	MembershipThreshold float64
	NextSizeQuantile    float64

	// Naming settings
	DocumentType      string
	CorpusDescription string
	Techniques        []models.Technique
	MinOccurrences    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	defaults := layers.DefaultOptions()
	cfg := &Config{
		// Defaults
		DBPath:              getEnv("TOPICNAMING_DB", sqlite.DefaultDBPath()),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		BaseURL:             os.Getenv("OPENAI_BASE_URL"),
		ChatModel:           getEnv("TOPICNAMING_CHAT_MODEL", llm.DefaultChatModel),
		EmbeddingModel:      getEnv("TOPICNAMING_EMBEDDING_MODEL", string(llm.DefaultEmbeddingModel)),
		ContextWindow:       getEnvInt("TOPICNAMING_CONTEXT_WINDOW", llm.DefaultContextWindow),
		TokenizerFile:       os.Getenv("TOPICNAMING_TOKENIZER_FILE"),
		Timeout:             getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:          getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:          getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		CacheSize:           getEnvInt("TOPICNAMING_EMBEDDING_CACHE", llm.DefaultCacheSize),
		MinClusters:         getEnvInt("TOPICNAMING_MIN_CLUSTERS", defaults.MinClusters),
		BaseMinClusterSize:  getEnvInt("TOPICNAMING_BASE_MIN_CLUSTER_SIZE", defaults.BaseMinClusterSize),
		MinSamples:          getEnvInt("TOPICNAMING_MIN_SAMPLES", defaults.MinSamples),
		MembershipThreshold: getEnvFloat("TOPICNAMING_MEMBERSHIP_THRESHOLD", defaults.MembershipThreshold),
		NextSizeQuantile:    getEnvFloat("TOPICNAMING_NEXT_SIZE_QUANTILE", defaults.NextSizeQuantile),
		DocumentType:        getEnv("TOPICNAMING_DOCUMENT_TYPE", "titles"),
		CorpusDescription:   getEnv("TOPICNAMING_CORPUS_DESCRIPTION", "academic articles"),
		MinOccurrences:      getEnvInt("TOPICNAMING_MIN_OCCURRENCES", evidence.DefaultVocabularyOptions().MinOccurrences),
	}

	techniques, err := models.ParseTechniques(getEnv("TOPICNAMING_TECHNIQUES", "topical,distinctive,contrastive"))
	if err != nil {
		return nil, fmt.Errorf("TOPICNAMING_TECHNIQUES: %w", err)
	}
	cfg.Techniques = techniques

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("%w: OPENAI_MAX_RETRIES must be 0-10, got %d", models.ErrConfiguration, c.MaxRetries)
	}
	if c.ContextWindow <= 0 {
		return fmt.Errorf("%w: TOPICNAMING_CONTEXT_WINDOW must be positive, got %d", models.ErrConfiguration, c.ContextWindow)
	}
	if c.MinOccurrences < 1 {
		return fmt.Errorf("%w: TOPICNAMING_MIN_OCCURRENCES must be positive, got %d", models.ErrConfiguration, c.MinOccurrences)
	}
	if err := c.LayerOptions().Validate(); err != nil {
		return err
	}
	return nil
}

// LayerOptions returns the layered clustering options.
func (c *Config) LayerOptions() layers.Options {
	opts := layers.DefaultOptions()
	opts.MinClusters = c.MinClusters
	opts.BaseMinClusterSize = c.BaseMinClusterSize
	opts.MinSamples = c.MinSamples
	opts.MembershipThreshold = c.MembershipThreshold
	opts.NextSizeQuantile = c.NextSizeQuantile
	return opts
}

// VocabularyOptions returns the keyphrase vocabulary options.
func (c *Config) VocabularyOptions() evidence.VocabularyOptions {
	opts := evidence.DefaultVocabularyOptions()
	opts.MinOccurrences = c.MinOccurrences
	return opts
}

// ClientConfig returns the OpenAI client configuration.
func (c *Config) ClientConfig() *llm.ClientConfig {
	cc := llm.DefaultConfig(c.OpenAIKey)
	cc.BaseURL = c.BaseURL
	cc.ChatModel = c.ChatModel
	cc.EmbeddingModel = openai.EmbeddingModel(c.EmbeddingModel)
	cc.ContextWindow = c.ContextWindow
	cc.Timeout = c.Timeout
	cc.MaxRetries = c.MaxRetries
	cc.RetryDelay = c.RetryDelay
	return cc
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
