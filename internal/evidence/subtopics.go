// ABOUTME: Sub-topic evidence for upper layers, selected among the names of finer clusters
// ABOUTME: Topical picks metaclusters near the centroid; contrastive scores them against neighbors
package evidence

import (
	"fmt"

	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

const (
	// DefaultTopicalSubtopics is the number of topical sub-topics per cluster.
	DefaultTopicalSubtopics = 32
	// DefaultContrastiveSubtopics is the number of contrastive sub-topics per cluster.
	DefaultContrastiveSubtopics = 24
)

// TopicalSubtopics ranks the finer clusters listed in metaclusters by the
// distance of their document mean to the mean of pointset, keeps the 2n
// nearest, diversifies them and returns the names of up to n.
func TopicalSubtopics(metaclusters, pointset []int, docVectors [][]float64, finerNames []string, finerPointsets [][]int, n int) []string {
	if len(metaclusters) == 0 || len(pointset) == 0 {
		return nil
	}
	centroid := vecmath.Mean(vecmath.Gather(docVectors, pointset))
	subVectors := make([][]float64, len(metaclusters))
	for i, m := range metaclusters {
		subVectors[i] = vecmath.Mean(vecmath.Gather(docVectors, finerPointsets[m]))
		if subVectors[i] == nil {
			subVectors[i] = make([]float64, len(centroid))
		}
	}

	order := vecmath.Argsort(vecmath.CosineDistances(centroid, subVectors))
	if len(order) > 2*n {
		order = order[:2*n]
	}
	keep := Diversify(centroid, vecmath.Gather(subVectors, order), KeywordAlpha, n)

	out := make([]string, len(keep))
	for i, k := range keep {
		out[i] = finerNames[metaclusters[order[k]]]
	}
	return out
}

// ContrastiveSubtopics scores the finer clusters of a cluster against those
// of its neighbors using the embeddings of their names, and returns the names
// of up to n lowest scoring, diversified around the mean name embedding.
func ContrastiveSubtopics(layer *models.Layer, cluster int, nameVectors [][]float64, finerNames []string, n int) ([]string, error) {
	target := layer.Clusters[cluster].Metaclusters
	if len(target) == 0 {
		return nil, nil
	}
	var neighbors []int
	if cluster < len(layer.Neighbors) {
		neighbors = layer.Neighbors[cluster]
	}
	rows, labels := contrastGroup(func(i int) []int { return layer.Clusters[i].Metaclusters }, cluster, neighbors)
	local := vecmath.Gather(nameVectors, rows)

	order, err := lowestScoring(local, vecmath.Center(local), labels, len(target), 3*n, len(local[0]))
	if err != nil {
		return nil, fmt.Errorf("contrastive sub-topic scoring for cluster %d: %w", cluster, err)
	}

	candidates := make([][]float64, len(order))
	for i, o := range order {
		candidates[i] = local[o]
	}
	query := vecmath.Mean(vecmath.Gather(nameVectors, target))
	keep := Diversify(query, candidates, DefaultAlpha, n)

	out := make([]string, len(keep))
	for i, k := range keep {
		out[i] = finerNames[rows[order[k]]]
	}
	return out, nil
}

// SubtopicLayer computes topical followed by contrastive sub-topics for
// every cluster of layer. finer is the layer immediately below it.
func SubtopicLayer(layer, finer *models.Layer, docVectors [][]float64, finerNames []string, nameVectors [][]float64) ([][]string, error) {
	finerPointsets := finer.Pointsets()
	out := make([][]string, layer.Len())
	for ci, c := range layer.Clusters {
		topical := TopicalSubtopics(c.Metaclusters, c.Pointset, docVectors, finerNames, finerPointsets, DefaultTopicalSubtopics)
		contrastive, err := ContrastiveSubtopics(layer, ci, nameVectors, finerNames, DefaultContrastiveSubtopics)
		if err != nil {
			return nil, err
		}
		out[ci] = append(topical, contrastive...)
	}
	return out, nil
}
