// ABOUTME: Export functionality for stored topic naming runs
// ABOUTME: Supports YAML, JSON and Markdown export formats
package sqlite

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harper/topicnaming/internal/models"
)

// ExportData represents the complete exportable data structure of a run
type ExportData struct {
	Version           string        `yaml:"version" json:"version"`
	ExportedAt        string        `yaml:"exported_at" json:"exported_at"`
	Tool              string        `yaml:"tool" json:"tool"`
	RunID             string        `yaml:"run_id" json:"run_id"`
	CreatedAt         string        `yaml:"created_at" json:"created_at"`
	DocumentType      string        `yaml:"document_type" json:"document_type"`
	CorpusDescription string        `yaml:"corpus_description" json:"corpus_description"`
	Techniques        []string      `yaml:"techniques" json:"techniques"`
	Documents         int           `yaml:"documents" json:"documents"`
	Layers            []ExportLayer `yaml:"layers" json:"layers"`
}

// ExportLayer represents one cluster layer for export
type ExportLayer struct {
	Layer  int           `yaml:"layer" json:"layer"`
	Topics []ExportTopic `yaml:"topics" json:"topics"`
}

// ExportTopic represents a named cluster for export
type ExportTopic struct {
	Cluster      int                 `yaml:"cluster" json:"cluster"`
	Name         string              `yaml:"name" json:"name"`
	RawName      string              `yaml:"raw_name,omitempty" json:"raw_name,omitempty"`
	Size         int                 `yaml:"size" json:"size"`
	Documents    []int               `yaml:"documents,omitempty" json:"documents,omitempty"`
	Metaclusters []int               `yaml:"metaclusters,omitempty" json:"metaclusters,omitempty"`
	Neighbors    []int               `yaml:"neighbors,omitempty" json:"neighbors,omitempty"`
	Evidence     map[string][]string `yaml:"evidence,omitempty" json:"evidence,omitempty"`
}

// Format is an export encoding
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts yaml, yml, json, markdown and md
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (want yaml, json or markdown)", s)
}

// FormatForPath picks a format from the file extension, defaulting to YAML
func FormatForPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatYAML
}

// Export builds the exportable view of a run
func (s *Storage) Export(runID string, includeDocuments bool) (*ExportData, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return BuildExport(run, includeDocuments), nil
}

// BuildExport converts a run, coarsest layer first
func BuildExport(run *models.Run, includeDocuments bool) *ExportData {
	data := &ExportData{
		Version:           "1.0",
		ExportedAt:        time.Now().Format(time.RFC3339),
		Tool:              "topicnaming",
		RunID:             run.ID,
		CreatedAt:         run.CreatedAt.Format(time.RFC3339),
		DocumentType:      run.DocumentType,
		CorpusDescription: run.CorpusDescription,
		Documents:         len(run.Documents),
	}
	for _, t := range run.Techniques {
		data.Techniques = append(data.Techniques, t.String())
	}

	for li := run.Hierarchy.Len() - 1; li >= 0; li-- {
		layer := run.Hierarchy.Layers[li]
		exportLayer := ExportLayer{Layer: li, Topics: make([]ExportTopic, 0, layer.Len())}
		for ci, c := range layer.Clusters {
			topic := ExportTopic{
				Cluster:      ci,
				Size:         len(c.Pointset),
				Metaclusters: c.Metaclusters,
				Evidence:     make(map[string][]string),
			}
			if li < len(run.Names) && ci < len(run.Names[li]) {
				topic.Name = run.Names[li][ci]
			}
			if li < len(run.RawNames) && ci < len(run.RawNames[li]) && run.RawNames[li][ci] != topic.Name {
				topic.RawName = run.RawNames[li][ci]
			}
			if ci < len(layer.Neighbors) {
				topic.Neighbors = layer.Neighbors[ci]
			}
			if includeDocuments {
				topic.Documents = c.Pointset
			}
			for t, ev := range run.Representation {
				if items := ev.At(li, ci); items != nil {
					topic.Evidence[t.String()] = items
				}
			}
			if li < len(run.Subtopics) && ci < len(run.Subtopics[li]) && run.Subtopics[li][ci] != nil {
				topic.Evidence[models.SubtopicsKey] = run.Subtopics[li][ci]
			}
			exportLayer.Topics = append(exportLayer.Topics, topic)
		}
		data.Layers = append(data.Layers, exportLayer)
	}
	return data
}

// WriteExport encodes data to w in the given format
func WriteExport(w io.Writer, data *ExportData, format Format) error {
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatMarkdown:
		return writeMarkdown(w, data)
	}
	return fmt.Errorf("unknown export format %q", format)
}

// ExportToFile exports a run to outputPath in the given format
func (s *Storage) ExportToFile(runID, outputPath string, format Format, includeDocuments bool) error {
	data, err := s.Export(runID, includeDocuments)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return WriteExport(file, data, format)
}

func writeMarkdown(w io.Writer, data *ExportData) error {
	// Write header
	_, _ = fmt.Fprintf(w, "# Topic Export - %s\n\n", data.RunID)
	_, _ = fmt.Fprintf(w, "Generated: %s\n\n", data.ExportedAt)
	_, _ = fmt.Fprintf(w, "- **Corpus:** %d %s from %s\n", data.Documents, data.DocumentType, data.CorpusDescription)
	_, _ = fmt.Fprintf(w, "- **Techniques:** %s\n\n", strings.Join(data.Techniques, ", "))

	for _, layer := range data.Layers {
		_, _ = fmt.Fprintf(w, "## Layer %d\n\n", layer.Layer)
		_, _ = fmt.Fprintln(w, "| Cluster | Name | Size | Keywords |")
		_, _ = fmt.Fprintln(w, "|---------|------|------|----------|")
		for _, topic := range layer.Topics {
			keywords := topic.Evidence[models.Contrastive.String()]
			_, _ = fmt.Fprintf(w, "| %d | %s | %d | %s |\n", topic.Cluster, topic.Name, topic.Size, strings.Join(keywords, ", "))
		}
		_, _ = fmt.Fprintln(w)
	}
	return nil
}
