// ABOUTME: CLI command to browse the topics of a stored run
// ABOUTME: Prints one layer as a table or every layer as a coarse-to-fine tree
package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/topicnaming/internal/models"
)

var (
	layersLayer int
	layersDepth int
)

// NewLayersCmd creates the layers command
func NewLayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layers [run-id]",
		Short: "Browse the topic layers of a run",
		Long: `Browse the topic layers of a run (default: the newest run).

Without --layer the whole hierarchy is printed as a tree, coarsest topics
first, with the finer topics each one absorbed indented below it.
Layer 0 is the finest layer.

Examples:
  topicnaming layers
  topicnaming layers --layer 0
  topicnaming layers 3f2a... --depth 2
  topicnaming layers --format yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLayers,
	}

	cmd.Flags().IntVar(&layersLayer, "layer", -1, "Only list this layer")
	cmd.Flags().IntVar(&layersDepth, "depth", 0, "Tree depth to print (0 for all)")

	return cmd
}

func runLayers(cmd *cobra.Command, args []string) error {
	if layersDepth < 0 {
		return fmt.Errorf("--depth must not be negative, got %d", layersDepth)
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
	topics, err := store.LayerTopics(runID, layersLayer)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return fmt.Errorf("no topics for run %s layer %d", runID, layersLayer)
	}

	if structured() {
		return writeStructured(cmd.OutOrStdout(), topics)
	}
	if layersLayer >= 0 {
		return printTopicTable(cmd.OutOrStdout(), topics)
	}
	printTopicTree(cmd.OutOrStdout(), topics, layersDepth)
	return nil
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func printTopicTable(out io.Writer, topics []models.Topic) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "LAYER\tCLUSTER\tSIZE\tTOPIC\n")
	fmt.Fprintf(w, "-----\t-------\t----\t-----\n")
	for _, t := range topics {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", t.Layer, t.Cluster, t.Size, t.Name)
	}
	return w.Flush()
}

// printTopicTree prints topics coarse to fine. A topic's children are the
// clusters of the layer below listed in its metaclusters.
func printTopicTree(out io.Writer, topics []models.Topic, depth int) {
	byLayer := map[int]map[int]models.Topic{}
	top := 0
	for _, t := range topics {
		if byLayer[t.Layer] == nil {
			byLayer[t.Layer] = map[int]models.Topic{}
		}
		byLayer[t.Layer][t.Cluster] = t
		if t.Layer > top {
			top = t.Layer
		}
	}

	var walk func(t models.Topic, level int)
	walk = func(t models.Topic, level int) {
		fmt.Fprintf(out, "%s%s (%d)\n", strings.Repeat("  ", level), t.Name, t.Size)
		if t.Layer == 0 || (depth > 0 && level+1 >= depth) {
			return
		}
		for _, c := range t.Metaclusters {
			if child, ok := byLayer[t.Layer-1][c]; ok {
				walk(child, level+1)
			}
		}
	}
	for _, t := range topics {
		if t.Layer == top {
			walk(t, 0)
		}
	}
}
