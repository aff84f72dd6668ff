// ABOUTME: Distinctive evidence: documents separating a cluster from its neighbors
// ABOUTME: Projects onto a truncated SVD, rectifies and scores with information weights
package evidence

import (
	"fmt"

	"github.com/harper/topicnaming/internal/infoweight"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

// SVDComponents is the number of components kept for contrast scoring.
const SVDComponents = 64

// contrastGroup concatenates the members of a cluster and its neighbors and
// labels each row with its group position. The target cluster comes first.
func contrastGroup(members func(c int) []int, cluster int, neighbors []int) ([]int, []int) {
	var rows, labels []int
	groups := append([]int{cluster}, neighbors...)
	for pos, c := range groups {
		for _, m := range members(c) {
			rows = append(rows, m)
			labels = append(labels, pos)
		}
	}
	return rows, labels
}

// lowestScoring fits an SVD on fitRows, projects local onto it, rectifies,
// fits information weights with labels and returns the first limit of the
// leading nTarget rows ordered by ascending weighted score.
func lowestScoring(local, fitRows [][]float64, labels []int, nTarget, limit, k int) ([]int, error) {
	comp, err := vecmath.TruncatedSVD(fitRows, k)
	if err != nil {
		return nil, err
	}
	projected := comp.Project(local)
	vecmath.Rectify(projected)

	iwt, err := infoweight.New(infoweight.DefaultOptions()).Fit(infoweight.FromDense(projected), labels)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, nTarget)
	for i := range scores {
		scores[i] = iwt.Score(projected[i])
	}
	order := vecmath.Argsort(scores)
	if len(order) > limit {
		order = order[:limit]
	}
	return order, nil
}

// DistinctiveSentences picks up to n documents of a cluster whose projected
// features score lowest under information weights fit against the cluster's
// neighbors, then diversifies them around the cluster centroid.
func DistinctiveSentences(docs []string, vectors [][]float64, layer *models.Layer, cluster, n int) ([]string, error) {
	c := layer.Clusters[cluster]
	if len(c.Pointset) == 0 {
		return nil, nil
	}
	var neighbors []int
	if cluster < len(layer.Neighbors) {
		neighbors = layer.Neighbors[cluster]
	}
	rows, labels := contrastGroup(func(i int) []int { return layer.Clusters[i].Pointset }, cluster, neighbors)
	local := vecmath.Gather(vectors, rows)

	order, err := lowestScoring(local, vecmath.CenterAndNormalize(local), labels, len(c.Pointset), 3*n, SVDComponents)
	if err != nil {
		return nil, fmt.Errorf("distinctive scoring for cluster %d: %w", cluster, err)
	}

	candidates := make([][]float64, len(order))
	for i, o := range order {
		candidates[i] = local[o]
	}
	keep := Diversify(c.Vector, candidates, DefaultAlpha, n)

	out := make([]string, len(keep))
	for i, k := range keep {
		out[i] = docs[rows[order[k]]]
	}
	return out, nil
}

// DistinctiveLayer runs DistinctiveSentences over every cluster of layer.
func DistinctiveLayer(docs []string, vectors [][]float64, layer *models.Layer, n int) ([][]string, error) {
	out := make([][]string, layer.Len())
	for ci := range layer.Clusters {
		sentences, err := DistinctiveSentences(docs, vectors, layer, ci, n)
		if err != nil {
			return nil, err
		}
		out[ci] = sentences
	}
	return out, nil
}
