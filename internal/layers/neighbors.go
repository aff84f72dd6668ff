// ABOUTME: Nearest-cluster table within a layer by centroid cosine distance
// ABOUTME: Each row lists the K closest other clusters, nearest first
package layers

import "github.com/harper/topicnaming/internal/vecmath"

// DefaultNeighborCount is the number of neighbors kept per cluster.
const DefaultNeighborCount = 16

// NeighborTable returns, for each centroid, up to k other centroid indices
// ordered by ascending cosine distance.
func NeighborTable(centroids [][]float64, k int) [][]int {
	table := make([][]int, len(centroids))
	for i, c := range centroids {
		dists := vecmath.CosineDistances(c, centroids)
		row := make([]int, 0, k)
		for _, j := range vecmath.Argsort(dists) {
			if j == i {
				continue
			}
			if len(row) == k {
				break
			}
			row = append(row, j)
		}
		table[i] = row
	}
	return table
}
