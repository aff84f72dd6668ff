// ABOUTME: Coarse-to-fine topic name deduplication across all layers
// ABOUTME: Re-prompts a cluster with fresh topical samples while its name is already taken
package naming

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/harper/topicnaming/internal/evidence"
	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/prompts"
)

const (
	// DefaultMaxAttempts bounds remedy prompts per cluster.
	DefaultMaxAttempts = 8
	// RemedySamples is the number of topical documents shown in a remedy prompt.
	RemedySamples = 64
	// remedyMaxTokens bounds the length of a replacement name.
	remedyMaxTokens = 36
)

// Deduplicator commits one name per cluster per layer, coarsest layer first.
type Deduplicator struct {
	Generator   llm.Generator
	Prompts     *prompts.Builder
	Docs        []string
	Vectors     [][]float64
	MaxAttempts int
	Rand        *rand.Rand
	Logger      *log.Logger
}

// Result is the outcome of a deduplication pass.
type Result struct {
	Names    models.NameLayers
	Labels   models.DocumentLabels
	Used     *models.OrderedSet
	Attempts [][]int
}

// Run resolves name collisions in names, which is indexed like h.Layers.
// Names are never changed other than by a remedy prompt; after MaxAttempts
// the last answer is committed even if it is still a duplicate.
func (d *Deduplicator) Run(ctx context.Context, h *models.Hierarchy, names models.NameLayers) (*Result, error) {
	if len(names) != h.Len() {
		return nil, fmt.Errorf("%w: %d name layers for %d cluster layers", models.ErrConfiguration, len(names), h.Len())
	}
	maxAttempts := d.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	rng := d.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}

	res := &Result{
		Names:    make(models.NameLayers, h.Len()),
		Labels:   models.NewDocumentLabels(h.Len(), len(d.Docs)),
		Used:     models.NewOrderedSet(),
		Attempts: make([][]int, h.Len()),
	}

	for n := h.Len() - 1; n >= 0; n-- {
		layer := &h.Layers[n]
		if len(names[n]) != layer.Len() {
			return nil, fmt.Errorf("%w: layer %d has %d names for %d clusters", models.ErrConfiguration, n, len(names[n]), layer.Len())
		}
		logger.Debug("deduplicating layer", "layer", n, "clusters", layer.Len())
		res.Names[n] = make([]string, layer.Len())
		res.Attempts[n] = make([]int, layer.Len())

		for i, c := range layer.Clusters {
			name := Normalize(names[n][i])
			tried := []string{name}
			attempts := 0
			for res.Used.Contains(name) && attempts < maxAttempts {
				prompt := d.Prompts.Remedy(tried, d.sample(rng, c))
				raw, err := d.Generator.Generate(ctx, prompt, remedyMaxTokens)
				if err != nil {
					return nil, fmt.Errorf("remedy for layer %d cluster %d: %w", n, i, err)
				}
				name = Normalize(raw)
				tried = append(tried, name)
				attempts++
			}
			if attempts > 0 {
				logger.Info("renamed duplicate topic", "layer", n, "cluster", i, "from", tried[0], "to", name, "attempts", attempts)
			}

			res.Used.Add(name)
			res.Names[n][i] = name
			res.Attempts[n][i] = attempts
			for _, doc := range c.Pointset {
				res.Labels[n][doc] = name
			}
		}
	}
	return res, nil
}

// sample draws up to RemedySamples diversified topical documents of c in
// random order.
func (d *Deduplicator) sample(rng *rand.Rand, c models.Cluster) []string {
	sentences := evidence.TopicalSentences(d.Docs, d.Vectors, c.Pointset, c.Vector, RemedySamples)
	rng.Shuffle(len(sentences), func(i, j int) {
		sentences[i], sentences[j] = sentences[j], sentences[i]
	})
	return sentences
}
