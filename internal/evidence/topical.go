// ABOUTME: Topical evidence: pointset documents nearest the centroid, diversified
// ABOUTME: Also exposes the ranked indices so remedy prompts can resample them
package evidence

import (
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

// DefaultSentenceCount is the number of documents picked per cluster.
const DefaultSentenceCount = 16

// TopicalIndices ranks pointset documents by cosine distance to centroid,
// diversifies the ranking and returns up to n document indices.
func TopicalIndices(vectors [][]float64, pointset []int, centroid []float64, n int) []int {
	if len(pointset) == 0 {
		return nil
	}
	dists := vecmath.CosineDistances(centroid, vecmath.Gather(vectors, pointset))
	order := vecmath.Argsort(dists)

	ranked := make([]int, len(order))
	for i, o := range order {
		ranked[i] = pointset[o]
	}
	keep := Diversify(centroid, vecmath.Gather(vectors, ranked), DefaultAlpha, n)

	out := make([]int, len(keep))
	for i, k := range keep {
		out[i] = ranked[k]
	}
	return out
}

// TopicalSentences returns the texts for TopicalIndices.
func TopicalSentences(docs []string, vectors [][]float64, pointset []int, centroid []float64, n int) []string {
	return texts(docs, TopicalIndices(vectors, pointset, centroid, n))
}

func texts(docs []string, indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = docs[idx]
	}
	return out
}

// TopicalLayer runs TopicalSentences over every cluster of layer.
func TopicalLayer(docs []string, vectors [][]float64, layer *models.Layer, n int) [][]string {
	out := make([][]string, layer.Len())
	for ci, c := range layer.Clusters {
		out[ci] = TopicalSentences(docs, vectors, c.Pointset, c.Vector, n)
	}
	return out
}
