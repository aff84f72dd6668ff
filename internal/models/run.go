// ABOUTME: A completed topic naming run as persisted and served
// ABOUTME: Includes summary and per-topic views used by the CLI and MCP tools
package models

import "time"

// SubtopicsKey is the evidence key under which sub-topic selections are stored.
const SubtopicsKey = "subtopics"

// Run is everything a pipeline produced for one corpus.
type Run struct {
	ID                string
	CreatedAt         time.Time
	DocumentType      string
	CorpusDescription string
	ChatModel         string
	Techniques        []Technique
	Documents         []string
	Hierarchy         *Hierarchy
	Representation    Representation
	// Subtopics is indexed like Hierarchy.Layers; layer 0 is empty.
	Subtopics [][][]string
	RawNames  NameLayers
	Names     NameLayers
	Attempts  [][]int
}

// RunSummary is a listing row for a stored run.
type RunSummary struct {
	ID                string    `json:"id" yaml:"id"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
	DocumentType      string    `json:"document_type" yaml:"document_type"`
	CorpusDescription string    `json:"corpus_description" yaml:"corpus_description"`
	Documents         int       `json:"documents" yaml:"documents"`
	Layers            int       `json:"layers" yaml:"layers"`
	Topics            int       `json:"topics" yaml:"topics"`
}

// Topic is one named cluster of a stored run.
type Topic struct {
	RunID        string              `json:"run_id" yaml:"run_id"`
	Layer        int                 `json:"layer" yaml:"layer"`
	Cluster      int                 `json:"cluster" yaml:"cluster"`
	Name         string              `json:"name" yaml:"name"`
	RawName      string              `json:"raw_name,omitempty" yaml:"raw_name,omitempty"`
	Attempts     int                 `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Size         int                 `json:"size" yaml:"size"`
	Metaclusters []int               `json:"metaclusters,omitempty" yaml:"metaclusters,omitempty"`
	Neighbors    []int               `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
	Evidence     map[string][]string `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// DocumentTopic is the topic a document was assigned on one layer.
type DocumentTopic struct {
	Layer   int    `json:"layer" yaml:"layer"`
	Cluster int    `json:"cluster" yaml:"cluster"`
	Name    string `json:"name" yaml:"name"`
}
