// ABOUTME: Root command, global flags and shared setup for the topicnaming CLI
// ABOUTME: Opens configuration, storage and the OpenAI client for subcommands
package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/topicnaming/internal/config"
	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/storage/sqlite"
)

var (
	verbose      bool
	quiet        bool
	outputFormat string
	dbPath       string
)

const banner = `
 ███ ███ ███ ███ ███   █  █  ███ █   █ ███ █  █  ███
  █  █ █ █ █  █  █     ██ █  █ █ ██ ██  █  ██ █  █
  █  ███ ███  █  █     █ ██  ███ █ █ █  █  █ ██  █ █
  █  █ █ █   ███ ███   █  █  █ █ █   █ ███ █  █  ███
`

// NewRootCmd creates the root command with every subcommand attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topicnaming",
		Short: "Build and name a layered topic hierarchy for a document corpus",
		Long: banner + `
Cluster document embeddings into layers of increasingly coarse topics,
collect keyword, sample and sub-topic evidence for every cluster, and
ask a language model for a short, unique name per topic.

Runs are stored in a local SQLite database and can be browsed from the
command line, exported, or served to LLM agents over MCP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "auto" && outputFormat != "table" && outputFormat != "json" && outputFormat != "yaml" {
				return fmt.Errorf("--format must be auto, table, json or yaml, got %q", outputFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only print errors and results")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format: auto, table, json or yaml")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: $TOPICNAMING_DB or the XDG data dir)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewFitCmd(),
		NewListCmd(),
		NewLayersCmd(),
		NewShowCmd(),
		NewDocCmd(),
		NewSearchCmd(),
		NewExportCmd(),
		NewDeleteCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger returns a stderr logger honoring --verbose and --quiet
func newLogger() *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "topicnaming",
		ReportTimestamp: verbose,
	})
	switch {
	case verbose:
		logger.SetLevel(log.DebugLevel)
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// loadConfig reads .env and the environment; --db overrides TOPICNAMING_DB
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

// newClient builds the OpenAI client, or returns nil when no API key is set
func newClient(cfg *config.Config, logger *log.Logger) (*llm.OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, nil
	}
	cc := cfg.ClientConfig()
	cc.Logger = logger
	client, err := llm.NewOpenAIClientWithConfig(cc)
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}
	return client, nil
}

// openStorage opens the run database. When an API key is configured the
// store also gets a cached embedder for semantic topic search.
func openStorage(cfg *config.Config, logger *log.Logger) (*sqlite.Storage, error) {
	store, err := sqlite.NewStorageWithPath(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	store.SetLogger(logger)

	client, err := newClient(cfg, logger)
	if err != nil {
		logger.Warn("semantic search disabled", "err", err)
		return store, nil
	}
	if client != nil {
		emb, err := llm.NewCachedEmbedder(client, cfg.CacheSize)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("initializing embedding cache: %w", err)
		}
		store.SetEmbedder(emb)
	}
	return store, nil
}
