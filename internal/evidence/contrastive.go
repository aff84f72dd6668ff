// ABOUTME: Contrastive keyphrases for every cluster of a layer
// ABOUTME: Weights n-gram counts by class information and keeps the longest diverse phrases
package evidence

import (
	"math"
	"sort"

	"github.com/harper/topicnaming/internal/infoweight"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

// KeywordAlpha is the diversification multiplier used for keyphrases.
const KeywordAlpha = 0.66

// KeywordOptions controls ContrastiveKeywords.
type KeywordOptions struct {
	N             int
	PriorStrength float64
	WeightPower   float64
}

// DefaultKeywordOptions returns 16 keywords with a 0.1 prior.
func DefaultKeywordOptions() KeywordOptions {
	return KeywordOptions{N: DefaultSentenceCount, PriorStrength: 0.1, WeightPower: 2.0}
}

// ContrastiveKeywords picks up to N keyphrases per cluster of layer. Counts
// are restricted to pointset documents and to terms seen in them; clusters
// with no counted documents get NoKeywordsSentinel.
func ContrastiveKeywords(vocab *Vocabulary, vocabVectors, docVectors [][]float64, layer *models.Layer, opts KeywordOptions) ([][]string, error) {
	var docs, labels []int
	for ci, c := range layer.Clusters {
		for _, d := range c.Pointset {
			if len(vocab.Docs[d]) == 0 {
				continue
			}
			docs = append(docs, d)
			labels = append(labels, ci)
		}
	}

	// Compact the columns to terms that occur in the layer.
	colMap := make(map[int]int)
	var terms []int
	for _, d := range docs {
		for _, e := range vocab.Docs[d] {
			if _, ok := colMap[e.Col]; !ok {
				colMap[e.Col] = -1
				terms = append(terms, e.Col)
			}
		}
	}
	sort.Ints(terms)
	for i, t := range terms {
		colMap[t] = i
	}

	counts := &infoweight.Matrix{Rows: make([][]infoweight.Entry, len(docs)), Cols: len(terms)}
	for i, d := range docs {
		for _, e := range vocab.Docs[d] {
			counts.Rows[i] = append(counts.Rows[i], infoweight.Entry{Col: colMap[e.Col], Val: e.Val})
		}
	}

	iwt, err := infoweight.New(infoweight.Options{
		PriorStrength:     opts.PriorStrength,
		WeightPower:       opts.WeightPower,
		SupervisionWeight: infoweight.DefaultSupervisionWeight,
	}).Fit(counts, labels)
	if err != nil {
		return nil, err
	}
	for _, row := range counts.Rows {
		for j := range row {
			row[j].Val = math.Log(row[j].Val + 1)
		}
	}
	weighted := iwt.Transform(counts)

	byCluster := make([][]int, layer.Len())
	for i, l := range labels {
		byCluster[l] = append(byCluster[l], i)
	}

	index := make(map[string]int, len(vocab.Terms))
	for i, t := range vocab.Terms {
		index[t] = i
	}

	out := make([][]string, layer.Len())
	for ci, rows := range byCluster {
		keywords := clusterKeywords(weighted, rows, terms, vocab, index, vocabVectors, docVectors, layer.Clusters[ci].Pointset, opts.N)
		if len(keywords) == 0 {
			keywords = []string{models.NoKeywordsSentinel}
		}
		out[ci] = keywords
	}
	return out, nil
}

func clusterKeywords(weighted *infoweight.Matrix, rows, terms []int, vocab *Vocabulary, index map[string]int, vocabVectors, docVectors [][]float64, pointset []int, n int) []string {
	if len(rows) == 0 {
		return nil
	}
	scores := make([]float64, weighted.Cols)
	for _, r := range rows {
		for _, e := range weighted.Rows[r] {
			scores[e.Col] += e.Val
		}
	}
	order := make([]int, 0, len(scores))
	for j, s := range scores {
		if s > 0 {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if len(order) > 4*n {
		order = order[:4*n]
	}
	if len(order) == 0 {
		return nil
	}

	candidates := make([]string, len(order))
	for i, j := range order {
		candidates[i] = vocab.Terms[terms[j]]
	}
	phrases := LongestKeyphrases(candidates)

	vectors := make([][]float64, len(phrases))
	for i, p := range phrases {
		vectors[i] = vocabVectors[index[p]]
	}
	centroid := vecmath.Mean(vecmath.Gather(docVectors, pointset))
	keep := Diversify(centroid, vectors, KeywordAlpha, DefaultMaxCandidates)
	if len(keep) > n {
		keep = keep[:n]
	}
	out := make([]string, len(keep))
	for i, k := range keep {
		out[i] = phrases[k]
	}
	return out
}
