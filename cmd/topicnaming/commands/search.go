// ABOUTME: CLI command to search topic names across stored runs
// ABOUTME: Substring matches first, then embedding similarity when available
package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchRun   string
	searchLimit int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search topic names",
		Long: `Search topic names.

Names containing the query are listed first. When OPENAI_API_KEY is set
and a run is selected, topics whose cluster centroid is close to the
query embedding are added after them.

Examples:
  topicnaming search "protein folding"
  topicnaming search genomics --run 3f2a... --limit 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().StringVar(&searchRun, "run", "", "Restrict to one run (use latest for the newest)")
	cmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := validatePositiveInt(searchLimit, "--limit"); err != nil {
		return err
	}
	query := strings.Join(args, " ")

	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runID := searchRun
	if runID != "" {
		if runID, err = store.ResolveRunID(runID); err != nil {
			return err
		}
	}

	topics, err := store.SearchTopics(cmd.Context(), query, runID, searchLimit)
	if err != nil {
		return err
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), topics)
	}
	if len(topics) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No topics match %q\n", query)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TOPIC\tLAYER\tCLUSTER\tSIZE\tRUN ID\n")
	fmt.Fprintf(w, "-----\t-----\t-------\t----\t------\n")
	for _, t := range topics {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", truncate(t.Name, 40), t.Layer, t.Cluster, t.Size, t.RunID)
	}
	return w.Flush()
}
