// ABOUTME: CLI commands to inspect one topic or one document of a run
// ABOUTME: show prints a topic's evidence; doc prints a document's topic per layer
package commands

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	showRun string
	docRun  string
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <layer> <cluster>",
		Short: "Show a topic with its evidence",
		Long: `Show a topic with the evidence its name was generated from.

Evidence includes keywords, sample documents and, above layer 0, the
names of the sub-topics it absorbed. The name before deduplication and
the number of rename attempts are shown when they differ.

Examples:
  topicnaming show 2 0
  topicnaming show 0 14 --run 3f2a...
  topicnaming show 1 3 --format json`,
		Args: cobra.ExactArgs(2),
		RunE: runShow,
	}

	cmd.Flags().StringVar(&showRun, "run", "", "Run ID (default: the newest run)")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	layer, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("layer must be a number: %w", err)
	}
	cluster, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("cluster must be a number: %w", err)
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

	runID, err := store.ResolveRunID(showRun)
	if err != nil {
		return err
	}
	topic, err := store.GetTopic(runID, layer, cluster)
	if err != nil {
		return err
	}
	if topic == nil {
		return fmt.Errorf("no topic at layer %d cluster %d in run %s", layer, cluster, runID)
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), topic)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", topic.Name)
	fmt.Fprintf(out, "Layer %d, cluster %d, %d documents\n", topic.Layer, topic.Cluster, topic.Size)
	if topic.RawName != "" && topic.RawName != topic.Name {
		fmt.Fprintf(out, "Originally named %q, renamed after %d attempt(s)\n", topic.RawName, topic.Attempts)
	}
	if len(topic.Neighbors) > 0 {
		fmt.Fprintf(out, "Nearest clusters: %v\n", topic.Neighbors)
	}

	kinds := make([]string, 0, len(topic.Evidence))
	for kind := range topic.Evidence {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(out, "\n%s:\n", kind)
		for _, item := range topic.Evidence[kind] {
			fmt.Fprintf(out, "  - %s\n", truncate(item, 100))
		}
	}
	return nil
}

// NewDocCmd creates the doc command
func NewDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc <index>",
		Short: "Show the topics of one document",
		Long: `Show the topic a document belongs to on every layer, coarsest first.

Documents left out of a layer's clusters are reported as Unlabelled.

Examples:
  topicnaming doc 42
  topicnaming doc 42 --run 3f2a... --format json`,
		Args: cobra.ExactArgs(1),
		RunE: runDoc,
	}

	cmd.Flags().StringVar(&docRun, "run", "", "Run ID (default: the newest run)")

	return cmd
}

func runDoc(cmd *cobra.Command, args []string) error {
	doc, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("document index must be a number: %w", err)
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

	runID, err := store.ResolveRunID(docRun)
	if err != nil {
		return err
	}
	topics, err := store.DocumentTopics(runID, doc)
	if err != nil {
		return err
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), topics)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "LAYER\tCLUSTER\tTOPIC\n")
	fmt.Fprintf(w, "-----\t-------\t-----\n")
	for _, t := range topics {
		cluster := "-"
		if t.Cluster >= 0 {
			cluster = strconv.Itoa(t.Cluster)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.Layer, cluster, t.Name)
	}
	return w.Flush()
}
