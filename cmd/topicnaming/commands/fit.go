// ABOUTME: CLI command that builds, names and stores a topic hierarchy
// ABOUTME: Reads a corpus, runs the naming pipeline and saves the run
package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/harper/topicnaming/internal/config"
	"github.com/harper/topicnaming/internal/core"
	"github.com/harper/topicnaming/internal/corpus"
	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/storage/sqlite"
)

var (
	fitDocumentType string
	fitDescription  string
	fitTechniques   string
	fitSentences    int
	fitExport       string
)

// NewFitCmd creates the fit command
func NewFitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit <corpus>",
		Short: "Build and name a topic hierarchy for a corpus",
		Long: `Build and name a topic hierarchy for a corpus.

The corpus is either a .txt file with one document per line, or a JSONL
file of {"text": ..., "vector": [...], "location": [...]} records.
Missing vectors are embedded with the configured embedding model and
missing locations are derived from the vectors.

Examples:
  topicnaming fit titles.txt
  topicnaming fit papers.jsonl --document-type abstracts --description "biology preprints"
  topicnaming fit papers.jsonl --techniques topical,contrastive --export topics.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runFit,
	}

	cmd.Flags().StringVar(&fitDocumentType, "document-type", "", "What one document is, e.g. titles (default: $TOPICNAMING_DOCUMENT_TYPE)")
	cmd.Flags().StringVar(&fitDescription, "description", "", "What the corpus is, e.g. academic articles (default: $TOPICNAMING_CORPUS_DESCRIPTION)")
	cmd.Flags().StringVar(&fitTechniques, "techniques", "", "Comma-separated evidence techniques: topical, distinctive, contrastive")
	cmd.Flags().IntVar(&fitSentences, "sentences", 16, "Sample documents shown per topic")
	cmd.Flags().StringVar(&fitExport, "export", "", "Also export the run to this file (.yaml, .json or .md)")

	return cmd
}

func runFit(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyFitFlags(cfg); err != nil {
		return err
	}
	if err := validatePositiveInt(fitSentences, "--sentences"); err != nil {
		return err
	}

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("OPENAI_API_KEY is required to name topics")
	}
	embedder, err := llm.NewCachedEmbedder(client, cfg.CacheSize)
	if err != nil {
		return fmt.Errorf("initializing embedding cache: %w", err)
	}
	var tokenizer llm.Tokenizer = llm.ApproxTokenizer{}
	if cfg.TokenizerFile != "" {
		tk, err := llm.LoadTokenizer(cfg.TokenizerFile)
		if err != nil {
			return err
		}
		tokenizer = tk
	}

	docs, err := corpus.ReadFile(args[0])
	if err != nil {
		return err
	}
	logger.Info("loaded corpus", "path", args[0], "documents", docs.Len())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := docs.Embed(ctx, embedder); err != nil {
		return err
	}
	if err := docs.Layout(corpus.DefaultLayoutDims); err != nil {
		return err
	}

	pcfg := core.DefaultConfig()
	pcfg.Documents = docs.Documents
	pcfg.Vectors = docs.Vectors
	pcfg.Locations = docs.Locations
	pcfg.Techniques = cfg.Techniques
	pcfg.DocumentType = cfg.DocumentType
	pcfg.CorpusDescription = cfg.CorpusDescription
	pcfg.SentenceCount = fitSentences
	pcfg.Layers = cfg.LayerOptions()
	pcfg.Layers.Logger = logger
	pcfg.Vocabulary = cfg.VocabularyOptions()

	pipeline, err := core.NewPipeline(pcfg,
		core.WithGenerator(client),
		core.WithEmbedder(embedder),
		core.WithTokenizer(tokenizer),
		core.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := pipeline.Run(ctx); err != nil {
		return fmt.Errorf("naming topics: %w", err)
	}
	for t, terr := range pipeline.RepresentationErrors() {
		logger.Warn("technique skipped", "technique", t, "err", terr)
	}
	logger.Info("named topics", "layers", pipeline.Hierarchy().Len(), "elapsed", time.Since(start).Round(time.Millisecond))

	run := pipeline.Snapshot()
	run.ChatModel = cfg.ChatModel

	store, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	id, err := store.SaveRun(run)
	if err != nil {
		return err
	}

	if fitExport != "" {
		if err := store.ExportToFile(id, fitExport, sqlite.FormatForPath(fitExport), false); err != nil {
			return err
		}
		logger.Info("exported run", "path", fitExport)
	}

	return printFitSummary(cmd, id, run)
}

func applyFitFlags(cfg *config.Config) error {
	if fitDocumentType != "" {
		cfg.DocumentType = fitDocumentType
	}
	if fitDescription != "" {
		cfg.CorpusDescription = fitDescription
	}
	if fitTechniques != "" {
		techniques, err := models.ParseTechniques(fitTechniques)
		if err != nil {
			return fmt.Errorf("--techniques: %w", err)
		}
		cfg.Techniques = techniques
	}
	return nil
}

// printFitSummary shows the run ID and the coarsest layer's topics
func printFitSummary(cmd *cobra.Command, id string, run *models.Run) error {
	top := len(run.Names) - 1
	if structured() {
		return writeStructured(cmd.OutOrStdout(), map[string]interface{}{
			"run_id": id,
			"layers": len(run.Names),
			"topics": run.Names[top],
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d documents, %d layers\n\n", id, len(run.Documents), len(run.Names))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CLUSTER\tSIZE\tTOPIC\n")
	fmt.Fprintf(w, "-------\t----\t-----\n")
	for i, name := range run.Names[top] {
		fmt.Fprintf(w, "%d\t%d\t%s\n", i, len(run.Hierarchy.Layers[top].Clusters[i].Pointset), name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(out, "\nBrowse with: topicnaming layers %s\n", id)
	}
	return nil
}
