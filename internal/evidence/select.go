// ABOUTME: Fixed table from representation technique to layer-wide evidence selector
// ABOUTME: Unknown techniques are rejected when the table is consulted
package evidence

import (
	"fmt"

	"github.com/harper/topicnaming/internal/models"
)

// Corpus is the read-only input every selector draws from. Vocab and
// VocabVectors are only needed by the contrastive selector.
type Corpus struct {
	Docs         []string
	Vectors      [][]float64
	Vocab        *Vocabulary
	VocabVectors [][]float64
	N            int
}

// Selector produces evidence for every cluster of a layer.
type Selector func(c *Corpus, layer *models.Layer) ([][]string, error)

var selectors = map[models.Technique]Selector{
	models.Topical: func(c *Corpus, layer *models.Layer) ([][]string, error) {
		return TopicalLayer(c.Docs, c.Vectors, layer, c.N), nil
	},
	models.Distinctive: func(c *Corpus, layer *models.Layer) ([][]string, error) {
		return DistinctiveLayer(c.Docs, c.Vectors, layer, c.N)
	},
	models.Contrastive: func(c *Corpus, layer *models.Layer) ([][]string, error) {
		if c.Vocab == nil {
			return nil, fmt.Errorf("%w: contrastive keywords need a vocabulary", models.ErrConfiguration)
		}
		opts := DefaultKeywordOptions()
		opts.N = c.N
		return ContrastiveKeywords(c.Vocab, c.VocabVectors, c.Vectors, layer, opts)
	},
}

// SelectorFor returns the selector registered for t.
func SelectorFor(t models.Technique) (Selector, error) {
	s, ok := selectors[t]
	if !ok {
		return nil, fmt.Errorf("%w: no selector for %s", models.ErrConfiguration, t)
	}
	return s, nil
}
