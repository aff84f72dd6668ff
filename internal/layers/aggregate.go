// ABOUTME: Aggregates a flat clustering into weighted centroids, pointsets and metaclusters
// ABOUTME: A plain bounded loop over documents with accumulators sized by cluster count
package layers

import (
	"fmt"
	"sort"

	"github.com/harper/topicnaming/internal/models"
)

// DefaultMembershipThreshold is the strength a document needs to join a pointset.
const DefaultMembershipThreshold = 0.2

// Aggregate is the per-cluster summary of one flat clustering, indexed by
// cluster id.
type Aggregate struct {
	Vectors      [][]float64
	Locations    [][]float64
	Pointsets    [][]int
	Metaclusters [][]int
}

// LayerFromClustering computes strength-weighted centroids over every
// document carrying a cluster's label. Documents whose strength exceeds
// threshold join the pointset, and their finer label (when assigned) joins
// the metacluster set.
func LayerFromClustering(vectors, locations [][]float64, flat models.FlatClustering, finerLabels []int, threshold float64) (*Aggregate, error) {
	n := len(flat.Labels)
	if len(vectors) != n || len(locations) != n || len(flat.Strengths) != n || len(finerLabels) != n {
		return nil, fmt.Errorf("%w: aggregate inputs disagree on document count", models.ErrConfiguration)
	}
	k := flat.NClusters()
	agg := &Aggregate{
		Vectors:      make([][]float64, k),
		Locations:    make([][]float64, k),
		Pointsets:    make([][]int, k),
		Metaclusters: make([][]int, k),
	}
	if k == 0 {
		return agg, nil
	}
	vdim := len(vectors[0])
	ldim := len(locations[0])
	weights := make([]float64, k)
	meta := make([]map[int]bool, k)
	for c := 0; c < k; c++ {
		agg.Vectors[c] = make([]float64, vdim)
		agg.Locations[c] = make([]float64, ldim)
		meta[c] = make(map[int]bool)
	}

	for i, c := range flat.Labels {
		if c < 0 {
			continue
		}
		s := flat.Strengths[i]
		for j, v := range vectors[i] {
			agg.Vectors[c][j] += s * v
		}
		for j, v := range locations[i] {
			agg.Locations[c][j] += s * v
		}
		weights[c] += s

		if s > threshold {
			agg.Pointsets[c] = append(agg.Pointsets[c], i)
			if sub := finerLabels[i]; sub != models.Unassigned {
				meta[c][sub] = true
			}
		}
	}

	for c := 0; c < k; c++ {
		if weights[c] == 0 {
			return nil, fmt.Errorf("%w: cluster %d has zero total membership strength", models.ErrClusteringDegenerate, c)
		}
		for j := range agg.Vectors[c] {
			agg.Vectors[c][j] /= weights[c]
		}
		for j := range agg.Locations[c] {
			agg.Locations[c][j] /= weights[c]
		}
		subs := make([]int, 0, len(meta[c]))
		for sub := range meta[c] {
			subs = append(subs, sub)
		}
		sort.Ints(subs)
		agg.Metaclusters[c] = subs
	}
	return agg, nil
}
