// ABOUTME: Tests for the staged topic naming pipeline
// ABOUTME: Fake generator and embedder collaborators keep runs deterministic

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/harper/topicnaming/internal/models"
)

// fakeGenerator names clusters from words it finds in the prompt.
type fakeGenerator struct {
	calls   int
	remedys int
	base    string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	g.calls++
	switch {
	case strings.Contains(prompt, "The current name for this topic"):
		g.remedys++
		return fmt.Sprintf("renamed %d", g.remedys), nil
	case strings.Contains(prompt, "Sample sub-topics"):
		return "natural science", nil
	case g.base != "":
		return g.base, nil
	}
	// The cluster's own documents precede its neighbors', so the first
	// keyword in the prompt wins.
	cells, stars := strings.Index(prompt, "cells"), strings.Index(prompt, "stars")
	switch {
	case cells >= 0 && (stars < 0 || cells < stars):
		return "biology.", nil
	case stars >= 0:
		return "astronomy", nil
	}
	return "misc", nil
}

// flakyGenerator fails the nth sub-topic prompt once, then answers normally.
type flakyGenerator struct {
	fakeGenerator
	failOn   int
	subtopic int
	failed   bool
}

func (g *flakyGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if strings.Contains(prompt, "Sample sub-topics") {
		g.subtopic++
		if !g.failed && g.subtopic == g.failOn {
			g.failed = true
			return "", errors.New("connection reset")
		}
	}
	return g.fakeGenerator.Generate(ctx, prompt, maxTokens)
}

func (g *fakeGenerator) ContextWindow() int { return 4096 }

// fakeEmbedder derives small deterministic vectors from the text.
type fakeEmbedder struct {
	calls int
}

func (e *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	e.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)%7 + 1), float64(strings.Count(t, "a") + 1), float64(strings.Count(t, "e") + 1)}
	}
	return out, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Documents = []string{"paper on cells", "paper on genes", "paper on stars", "paper on planets", "noise"}
	cfg.Vectors = [][]float64{{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9}, {0.5, 0.5}}
	cfg.Locations = [][]float64{{0, 0}, {0, 1}, {5, 5}, {5, 6}, {2, 3}}
	cfg.Techniques = []models.Technique{models.Topical, models.Distinctive}
	cfg.SentenceCount = 4
	return cfg
}

func testHierarchy() *models.Hierarchy {
	return &models.Hierarchy{Layers: []models.Layer{
		{Index: 0, Clusters: []models.Cluster{
			{Index: 0, Vector: []float64{0.95, 0.05}, Location: []float64{0, 0.5}, Pointset: []int{0, 1}, Metaclusters: []int{0}},
			{Index: 1, Vector: []float64{0.05, 0.95}, Location: []float64{5, 5.5}, Pointset: []int{2, 3}, Metaclusters: []int{1}},
		}},
		{Index: 1, Clusters: []models.Cluster{
			{Index: 0, Vector: []float64{0.5, 0.5}, Location: []float64{2.5, 3}, Pointset: []int{0, 1, 2, 3}, Metaclusters: []int{0, 1}},
		}},
	}}
}

func TestNewPipeline_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no documents", func(c *Config) { c.Documents = nil; c.Vectors = nil; c.Locations = nil }},
		{"vector count", func(c *Config) { c.Vectors = c.Vectors[:2] }},
		{"location count", func(c *Config) { c.Locations = c.Locations[:3] }},
		{"no techniques", func(c *Config) { c.Techniques = nil }},
		{"unknown technique", func(c *Config) { c.Techniques = []models.Technique{models.Technique(42)} }},
		{"sentence count", func(c *Config) { c.SentenceCount = 0 }},
		{"layer options", func(c *Config) { c.Layers.MinClusters = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := NewPipeline(cfg); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("NewPipeline() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

// threeLayerHierarchy stacks a second upper layer over testHierarchy.
func threeLayerHierarchy() *models.Hierarchy {
	h := testHierarchy()
	h.Layers[1].Clusters = append(h.Layers[1].Clusters, models.Cluster{
		Index: 1, Vector: []float64{0.05, 0.95}, Location: []float64{5, 5.5}, Pointset: []int{2, 3}, Metaclusters: []int{1},
	})
	h.Layers[1].Clusters[0].Pointset = []int{0, 1}
	h.Layers[1].Clusters[0].Metaclusters = []int{0}
	h.Layers = append(h.Layers, models.Layer{Index: 2, Clusters: []models.Cluster{
		{Index: 0, Vector: []float64{0.5, 0.5}, Location: []float64{2.5, 3}, Pointset: []int{0, 1, 2, 3}, Metaclusters: []int{0, 1}},
	}})
	return h
}

func TestNewPipeline_RejectsOutOfRangeHierarchy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Hierarchy)
	}{
		{"document", func(h *models.Hierarchy) { h.Layers[0].Clusters[0].Pointset = []int{0, 99} }},
		{"sub-topic past finer layer", func(h *models.Hierarchy) { h.Layers[1].Clusters[0].Metaclusters = []int{0, 7} }},
		{"negative sub-topic", func(h *models.Hierarchy) { h.Layers[1].Clusters[0].Metaclusters = []int{-1} }},
		{"neighbor past layer", func(h *models.Hierarchy) { h.Layers[0].Neighbors = [][]int{{1}, {5}} }},
		{"neighbor rows", func(h *models.Hierarchy) { h.Layers[0].Neighbors = [][]int{{1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHierarchy()
			tt.mutate(h)
			if _, err := NewPipeline(testConfig(), WithHierarchy(h)); !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("NewPipeline() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNewPipeline_FillsMissingNeighbors(t *testing.T) {
	h := testHierarchy()
	if _, err := NewPipeline(testConfig(), WithHierarchy(h)); err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if got := h.Layers[0].Neighbors; len(got) != 2 || len(got[0]) != 1 || got[0][0] != 1 || got[1][0] != 0 {
		t.Errorf("base neighbors = %v, want [[1] [0]]", got)
	}
	if got := h.Layers[1].Neighbors; len(got) != 1 || len(got[0]) != 0 {
		t.Errorf("top neighbors = %v, want one empty row", got)
	}

	given := testHierarchy()
	given.Layers[0].Neighbors = [][]int{{}, {}}
	if _, err := NewPipeline(testConfig(), WithHierarchy(given)); err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if len(given.Layers[0].Neighbors[0]) != 0 {
		t.Errorf("supplied neighbors were replaced: %v", given.Layers[0].Neighbors)
	}
}

func TestPipeline_UpperTopicsRetryAfterFailure(t *testing.T) {
	h := threeLayerHierarchy()
	gen := &flakyGenerator{failOn: 3}
	p, err := NewPipeline(testConfig(), WithHierarchy(h), WithGenerator(gen), WithEmbedder(&fakeEmbedder{}))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if err := p.Ensure(context.Background(), StageUpperTopics); err == nil {
		t.Fatal("Ensure() should surface the generator failure")
	}
	if p.Has(StageUpperTopics) {
		t.Error("failed stage should not be marked done")
	}
	if got := len(p.RawNames()); got != 1 {
		t.Errorf("name layers after failure = %d, want only the base layer", got)
	}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() after failure error = %v", err)
	}
	if got := len(p.RawNames()); got != h.Len() {
		t.Errorf("name layers = %d, want %d", got, h.Len())
	}
	for k, names := range p.RawNames() {
		if len(names) != h.Layers[k].Len() {
			t.Errorf("layer %d has %d names for %d clusters", k, len(names), h.Layers[k].Len())
		}
	}
}

func TestPipeline_EnsureIsLazy(t *testing.T) {
	gen := &fakeGenerator{}
	p, err := NewPipeline(testConfig(), WithHierarchy(testHierarchy()), WithGenerator(gen), WithEmbedder(&fakeEmbedder{}))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if !p.Has(StageLayers) {
		t.Error("supplied hierarchy should satisfy the layers stage")
	}

	if err := p.Ensure(context.Background(), StageBasePrompts); err != nil {
		t.Fatalf("Ensure(BasePrompts) error = %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("building prompts called the generator %d times", gen.calls)
	}
	if p.Snapshot() != nil {
		t.Error("Snapshot() should be nil before names are deduplicated")
	}
	if !p.Has(StageRepresentation) || p.Has(StageBaseTopics) {
		t.Error("only stages up to base prompts should be materialized")
	}
	if got := len(p.Prompts()[0]); got != 2 {
		t.Fatalf("base prompts = %d, want 2", got)
	}
	if !strings.Contains(p.Prompts()[0][0], "paper on cells") {
		t.Errorf("base prompt missing topical evidence:\n%s", p.Prompts()[0][0])
	}
	rep := p.Representation()
	if !rep.Has(models.Topical) || !rep.Has(models.Distinctive) || rep.Has(models.Contrastive) {
		t.Errorf("representation techniques = %v", rep)
	}
}

func TestPipeline_Run(t *testing.T) {
	gen := &fakeGenerator{}
	emb := &fakeEmbedder{}
	p, err := NewPipeline(testConfig(), WithHierarchy(testHierarchy()), WithGenerator(gen), WithEmbedder(emb))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	ctx := context.Background()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	raw := p.RawNames()
	if raw[0][0] != "Biology" || raw[0][1] != "Astronomy" || raw[1][0] != "Natural Science" {
		t.Errorf("raw names = %v", raw)
	}
	sub := p.Subtopics()
	if len(sub[1][0]) == 0 {
		t.Error("upper layer should have sub-topic evidence")
	}
	for _, s := range sub[1][0] {
		if s != "Biology" && s != "Astronomy" {
			t.Errorf("sub-topic %q is not a finer layer name", s)
		}
	}
	if !strings.Contains(p.Prompts()[1][0], "Sample sub-topics from the group include:") {
		t.Errorf("upper prompt should list sub-topics:\n%s", p.Prompts()[1][0])
	}

	res := p.Result()
	if res == nil {
		t.Fatal("Result() = nil after Run")
	}
	if res.Labels[0][4] != models.UnlabelledPlaceholder {
		t.Errorf("noise label = %q", res.Labels[0][4])
	}
	if res.Labels[1][2] != "Natural Science" {
		t.Errorf("upper label = %q", res.Labels[1][2])
	}

	run := p.Snapshot()
	if run == nil {
		t.Fatal("Snapshot() = nil after Run")
	}
	if run.Names[1][0] != "Natural Science" || len(run.Documents) != 5 || run.Hierarchy.Len() != 2 {
		t.Errorf("snapshot = %+v", run)
	}

	calls := gen.calls
	if err := p.Run(ctx); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if gen.calls != calls {
		t.Errorf("second Run() made %d more generator calls", gen.calls-calls)
	}
}

func TestPipeline_DeduplicatesAcrossLayers(t *testing.T) {
	gen := &fakeGenerator{base: "science"}
	p, err := NewPipeline(testConfig(), WithHierarchy(testHierarchy()), WithGenerator(gen), WithEmbedder(&fakeEmbedder{}))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	seen := map[string]bool{}
	for _, layer := range p.Result().Names {
		for _, name := range layer {
			if seen[name] {
				t.Errorf("duplicate name %q in %v", name, p.Result().Names)
			}
			seen[name] = true
		}
	}
	if gen.remedys != 1 {
		t.Errorf("remedy prompts = %d, want 1", gen.remedys)
	}
}

func TestPipeline_ContrastiveNeedsEmbedder(t *testing.T) {
	cfg := testConfig()
	cfg.Techniques = models.AllTechniques
	p, err := NewPipeline(cfg, WithHierarchy(testHierarchy()))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	err = p.Ensure(context.Background(), StageRepresentation)
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("Ensure() error = %v, want ErrConfiguration", err)
	}
	if p.Has(StageRepresentation) {
		t.Error("failed stage should not be marked done")
	}
}

func TestPipeline_ContrastiveKeywords(t *testing.T) {
	cfg := testConfig()
	cfg.Techniques = models.AllTechniques
	cfg.Vocabulary.MinOccurrences = 1
	emb := &fakeEmbedder{}
	p, err := NewPipeline(cfg, WithHierarchy(testHierarchy()), WithEmbedder(emb))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if err := p.Ensure(context.Background(), StageRepresentation); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("vocabulary embedded %d times, want 1", emb.calls)
	}
	keywords := p.Representation()[models.Contrastive].At(0, 0)
	if len(keywords) == 0 {
		t.Error("no keywords for base cluster")
	}
}

func TestPipeline_NamingNeedsGenerator(t *testing.T) {
	p, err := NewPipeline(testConfig(), WithHierarchy(testHierarchy()))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if err := p.Ensure(context.Background(), StageBaseTopics); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("Ensure() error = %v, want ErrConfiguration", err)
	}
	if !p.Has(StageBasePrompts) {
		t.Error("prerequisite stages should remain materialized")
	}
}

func TestPipeline_CanceledContext(t *testing.T) {
	p, err := NewPipeline(testConfig(), WithHierarchy(testHierarchy()), WithGenerator(&fakeGenerator{}))
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Ensure(ctx, StageRepresentation); !errors.Is(err, context.Canceled) {
		t.Errorf("Ensure() error = %v, want context.Canceled", err)
	}
}

func TestStageString(t *testing.T) {
	if StageUpperTopics.String() != "upper_topics" {
		t.Errorf("String() = %q", StageUpperTopics.String())
	}
	if Stage(9).String() != "stage(9)" {
		t.Errorf("String() = %q", Stage(9).String())
	}
}
