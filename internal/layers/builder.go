// ABOUTME: Builds fine-to-coarse cluster layers by re-condensing one dendrogram
// ABOUTME: Each coarser layer must merge at least two clusters of the layer below it
package layers

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/harper/topicnaming/internal/hdbscan"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

// Options controls layer construction.
type Options struct {
	MinClusters         int
	MinSamples          int
	BaseMinClusterSize  int
	MembershipThreshold float64
	NextSizeQuantile    float64
	NeighborCount       int
	Logger              *log.Logger
}

// DefaultOptions returns the standard layering parameters.
func DefaultOptions() Options {
	return Options{
		MinClusters:         2,
		MinSamples:          5,
		BaseMinClusterSize:  10,
		MembershipThreshold: DefaultMembershipThreshold,
		NextSizeQuantile:    0.8,
		NeighborCount:       DefaultNeighborCount,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.MinClusters < 1:
		return fmt.Errorf("%w: min clusters must be positive, got %d", models.ErrConfiguration, o.MinClusters)
	case o.MinSamples < 1:
		return fmt.Errorf("%w: min samples must be positive, got %d", models.ErrConfiguration, o.MinSamples)
	case o.BaseMinClusterSize < 2:
		return fmt.Errorf("%w: base min cluster size must be at least 2, got %d", models.ErrConfiguration, o.BaseMinClusterSize)
	case o.MembershipThreshold < 0 || o.MembershipThreshold >= 1:
		return fmt.Errorf("%w: membership threshold must be in [0,1), got %f", models.ErrConfiguration, o.MembershipThreshold)
	case o.NextSizeQuantile <= 0 || o.NextSizeQuantile > 1:
		return fmt.Errorf("%w: next size quantile must be in (0,1], got %f", models.ErrConfiguration, o.NextSizeQuantile)
	case o.NeighborCount < 1:
		return fmt.Errorf("%w: neighbor count must be positive, got %d", models.ErrConfiguration, o.NeighborCount)
	}
	return nil
}

// Build constructs the layered hierarchy. Layer 0 is the base clustering at
// BaseMinClusterSize; every following layer re-condenses the same dendrogram
// at the NextSizeQuantile of the previous layer's pointset sizes and keeps
// only clusters that merge two or more clusters of the previous layer.
func Build(vectors, locations [][]float64, opts Options) (*models.Hierarchy, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(vectors) != len(locations) {
		return nil, fmt.Errorf("%w: %d vectors but %d locations", models.ErrConfiguration, len(vectors), len(locations))
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	dendrogram, err := hdbscan.BuildDendrogram(locations, opts.MinSamples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrClusteringDegenerate, err)
	}

	minClusterSize := opts.BaseMinClusterSize
	flat := hdbscan.FlatCluster(dendrogram, minClusterSize)
	nClusters := flat.NClusters()
	if nClusters == 0 {
		return nil, fmt.Errorf("%w: base clustering at min cluster size %d found no clusters", models.ErrClusteringDegenerate, minClusterSize)
	}

	hierarchy := &models.Hierarchy{}
	finer := flat.Labels
	base := true

	for nClusters >= opts.MinClusters {
		agg, err := LayerFromClustering(vectors, locations, flat, finer, opts.MembershipThreshold)
		if err != nil {
			return nil, fmt.Errorf("aggregating layer %d: %w", hierarchy.Len(), err)
		}

		layer, remap := selectClusters(agg, hierarchy.Len(), base)
		if !base {
			prev := hierarchy.Coarsest().Len()
			if layer.Len() == 0 || layer.Len() >= prev {
				logger.Debug("stopping layer construction", "candidate_clusters", layer.Len(), "previous_clusters", prev)
				break
			}
		}
		hierarchy.Layers = append(hierarchy.Layers, layer)

		finer = make([]int, len(flat.Labels))
		for i, l := range flat.Labels {
			finer[i] = models.Unassigned
			if l >= 0 {
				finer[i] = remap[l]
			}
		}

		sizes := make([]int, len(layer.Clusters))
		for i, c := range layer.Clusters {
			sizes[i] = len(c.Pointset)
		}
		next := int(vecmath.Quantile(vecmath.IntsToFloats(sizes), opts.NextSizeQuantile))
		if next < 1 {
			next = 1
		}
		logger.Debug("built layer",
			"layer", layer.Index,
			"clusters", layer.Len(),
			"min_cluster_size", minClusterSize,
			"next_min_cluster_size", next)

		minClusterSize = next
		flat = hdbscan.FlatCluster(dendrogram, minClusterSize)
		nClusters = flat.NClusters()
		base = false
	}

	if hierarchy.Len() == 0 {
		return nil, fmt.Errorf("%w: base clustering found %d clusters, need at least %d", models.ErrClusteringDegenerate, nClusters, opts.MinClusters)
	}

	for i := range hierarchy.Layers {
		layer := &hierarchy.Layers[i]
		layer.Neighbors = NeighborTable(layer.Vectors(), opts.NeighborCount)
	}
	logger.Info("cluster layers built", "layers", hierarchy.Len(), "base_clusters", hierarchy.Layers[0].Len())
	return hierarchy, nil
}

// selectClusters turns an aggregate into a layer. Outside the base layer,
// clusters with fewer than two metaclusters are dropped. remap sends every
// aggregate cluster id to its layer index, or Unassigned when dropped.
func selectClusters(agg *Aggregate, index int, base bool) (models.Layer, []int) {
	layer := models.Layer{Index: index}
	remap := make([]int, len(agg.Vectors))
	for c := range agg.Vectors {
		if !base && len(agg.Metaclusters[c]) <= 1 {
			remap[c] = models.Unassigned
			continue
		}
		remap[c] = len(layer.Clusters)
		layer.Clusters = append(layer.Clusters, models.Cluster{
			Index:        len(layer.Clusters),
			Vector:       agg.Vectors[c],
			Location:     agg.Locations[c],
			Pointset:     agg.Pointsets[c],
			Metaclusters: agg.Metaclusters[c],
		})
	}
	return layer, remap
}
