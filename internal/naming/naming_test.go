// ABOUTME: Tests for name normalization, layer naming and deduplication
// ABOUTME: A scripted generator stands in for the language model
package naming

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/prompts"
)

// scriptedGenerator returns replies in order and records prompts.
type scriptedGenerator struct {
	replies []string
	prompts []string
	err     error
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		return "Fallback", nil
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

func (g *scriptedGenerator) ContextWindow() int { return 4096 }

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"machine learning", "Machine Learning"},
		{"  \"Deep   NETWORKS.\" ", "Deep Networks"},
		{"\n\nSolar Energy\nsecond line", "Solar Energy"},
		{"...", ""},
		{"graph-based models!", "Graph-based Models"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNameLayer(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"first topic.", "SECOND"}}
	names, err := NameLayer(context.Background(), gen, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("NameLayer() error = %v", err)
	}
	if names[0] != "First Topic" || names[1] != "Second" {
		t.Errorf("NameLayer() = %v", names)
	}

	boom := errors.New("boom")
	if _, err := NameLayer(context.Background(), &scriptedGenerator{err: boom}, []string{"p"}); !errors.Is(err, boom) {
		t.Errorf("NameLayer() error = %v, want boom", err)
	}
}

func dedupFixture(gen llm.Generator) (*Deduplicator, *models.Hierarchy) {
	docs := []string{"paper on cells", "paper on genes", "paper on stars", "paper on planets", "noise"}
	vectors := [][]float64{{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9}, {0.5, 0.5}}
	h := &models.Hierarchy{Layers: []models.Layer{
		{Index: 0, Clusters: []models.Cluster{
			{Index: 0, Vector: []float64{0.95, 0.05}, Pointset: []int{0, 1}, Metaclusters: []int{0}},
			{Index: 1, Vector: []float64{0.05, 0.95}, Pointset: []int{2, 3}, Metaclusters: []int{1}},
		}},
	}}
	d := &Deduplicator{
		Generator: gen,
		Prompts: &prompts.Builder{
			DocumentType:      "titles",
			CorpusDescription: "academic articles",
			Tokenizer:         llm.ApproxTokenizer{},
			ContextWindow:     4096,
		},
		Docs:    docs,
		Vectors: vectors,
	}
	return d, h
}

func TestDeduplicator_ResolvesCollision(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"research", "Astronomy Research"}}
	d, h := dedupFixture(gen)

	res, err := d.Run(context.Background(), h, models.NameLayers{{"Research", "research."}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	first, second := res.Names[0][0], res.Names[0][1]
	if first != "Research" {
		t.Errorf("first name = %q, want Research", first)
	}
	if second == first {
		t.Fatalf("names still collide: %q", second)
	}
	if second != "Astronomy Research" {
		t.Errorf("second name = %q, want Astronomy Research", second)
	}
	if !res.Used.Contains(first) || !res.Used.Contains(second) {
		t.Errorf("used set %v missing committed names", res.Used.Items())
	}
	if res.Attempts[0][0] != 0 || res.Attempts[0][1] != 2 {
		t.Errorf("attempts = %v, want [0 2]", res.Attempts[0])
	}

	if len(gen.prompts) != 2 {
		t.Fatalf("got %d remedy prompts, want 2", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[1], "one of Research, Research.") {
		t.Errorf("second remedy prompt should list tried names:\n%s", gen.prompts[1])
	}
	if !strings.Contains(gen.prompts[0], "paper on stars") {
		t.Errorf("remedy prompt should sample the cluster's documents:\n%s", gen.prompts[0])
	}

	labels := res.Labels[0]
	want := []string{"Research", "Research", "Astronomy Research", "Astronomy Research", models.UnlabelledPlaceholder}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("label[%d] = %q, want %q", i, labels[i], want[i])
		}
	}
}

func TestDeduplicator_GivesUpAfterMaxAttempts(t *testing.T) {
	replies := make([]string, 20)
	for i := range replies {
		replies[i] = "Research"
	}
	gen := &scriptedGenerator{replies: replies}
	d, h := dedupFixture(gen)

	res, err := d.Run(context.Background(), h, models.NameLayers{{"Research", "Research"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Attempts[0][1] != DefaultMaxAttempts {
		t.Errorf("attempts = %d, want %d", res.Attempts[0][1], DefaultMaxAttempts)
	}
	if len(gen.prompts) != DefaultMaxAttempts {
		t.Errorf("remedy prompts = %d, want %d", len(gen.prompts), DefaultMaxAttempts)
	}
	if res.Names[0][1] != "Research" {
		t.Errorf("committed name = %q, want Research", res.Names[0][1])
	}
}

func TestDeduplicator_CoarseLayersFirst(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Cell Biology"}}
	d, h := dedupFixture(gen)
	h.Layers = append(h.Layers, models.Layer{Index: 1, Clusters: []models.Cluster{
		{Index: 0, Vector: []float64{0.5, 0.5}, Pointset: []int{0, 1, 2, 3}, Metaclusters: []int{0, 1}},
	}})

	res, err := d.Run(context.Background(), h, models.NameLayers{{"Science", "Astronomy"}, {"Science"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Names[1][0] != "Science" {
		t.Errorf("coarse name = %q, want Science", res.Names[1][0])
	}
	if res.Names[0][0] != "Cell Biology" {
		t.Errorf("fine name = %q, want Cell Biology", res.Names[0][0])
	}
	if got := res.Used.Items(); got[0] != "Science" {
		t.Errorf("used order = %v, want coarse names first", got)
	}
}

func TestDeduplicator_RejectsMismatchedNames(t *testing.T) {
	d, h := dedupFixture(&scriptedGenerator{})
	_, err := d.Run(context.Background(), h, models.NameLayers{{"Only One"}})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("Run() error = %v, want ErrConfiguration", err)
	}
}
