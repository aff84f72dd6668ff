// ABOUTME: CLI command to list stored topic naming runs
// ABOUTME: Shows run IDs, corpus descriptions and topic counts
package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates list command
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Long: `List stored topic naming runs, newest first.

Each run shows its corpus description, document count, number of
layers and total number of named topics.

Examples:
  topicnaming list
  topicnaming list --format json`,
		Args: cobra.NoArgs,
		RunE: runList,
	}

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
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

	runs, err := store.ListRuns()
	if err != nil {
		return err
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), runs)
	}
	if len(runs) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No runs found\n")
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RUN ID\tCREATED\tCORPUS\tDOCS\tLAYERS\tTOPICS\n")
	fmt.Fprintf(w, "------\t-------\t------\t----\t------\t------\n")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			formatTime(run.CreatedAt),
			truncate(run.DocumentType+" of "+run.CorpusDescription, 40),
			run.Documents,
			run.Layers,
			run.Topics)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d run(s)\n", len(runs))
	}
	return nil
}
