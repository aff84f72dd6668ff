// ABOUTME: CLI commands to export and delete stored runs
// ABOUTME: Export writes YAML, JSON or Markdown to a file or stdout
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/topicnaming/internal/storage/sqlite"
)

var (
	exportOutput    string
	exportAs        string
	exportDocuments bool
	deleteForce     bool
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Export a run's topics",
		Long: `Export a run's topic hierarchy (default: the newest run).

The format follows the output file extension (.yaml, .json, .md) unless
--as is given. Without --output the export is written to stdout.

Examples:
  topicnaming export --output topics.yaml
  topicnaming export 3f2a... --as markdown
  topicnaming export --output topics.json --documents`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&exportAs, "as", "", "Export format: yaml, json or markdown")
	cmd.Flags().BoolVar(&exportDocuments, "documents", false, "Include member document indices per topic")

	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	format := sqlite.FormatYAML
	if exportOutput != "" {
		format = sqlite.FormatForPath(exportOutput)
	}
	if exportAs != "" {
		f, err := sqlite.ParseFormat(exportAs)
		if err != nil {
			return err
		}
		format = f
	}

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

	runID, err := store.ResolveRunID(argOrEmpty(args))
	if err != nil {
		return err
	}

	if exportOutput != "" {
		if err := store.ExportToFile(runID, exportOutput, format, exportDocuments); err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Exported run %s to %s\n", runID, exportOutput)
		}
		return nil
	}

	data, err := store.Export(runID, exportDocuments)
	if err != nil {
		return err
	}
	return sqlite.WriteExport(cmd.OutOrStdout(), data, format)
}

// NewDeleteCmd creates the delete command
func NewDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Long: `Delete a stored run and all of its topics.

Examples:
  topicnaming delete 3f2a... --force`,
		Args: cobra.ExactArgs(1),
		RunE: runDelete,
	}

	cmd.Flags().BoolVar(&deleteForce, "force", false, "Confirm the deletion")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	if !deleteForce {
		return fmt.Errorf("refusing to delete run %s without --force", args[0])
	}

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

	if err := store.DeleteRun(args[0]); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
	}
	return nil
}
