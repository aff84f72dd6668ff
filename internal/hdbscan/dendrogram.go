// ABOUTME: Builds a single-linkage dendrogram over mutual reachability distances
// ABOUTME: Core distances come from a gonum kd-tree; the MST is a dense Prim pass
package hdbscan

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// MSTEdge is one edge of the minimum spanning tree.
type MSTEdge struct {
	A, B   int
	Weight float64
}

// Merge is one row of the linkage: nodes Left and Right join at Distance
// into a new node holding Size points. Merge i creates node N+i.
type Merge struct {
	Left     int
	Right    int
	Distance float64
	Size     int
}

// Dendrogram is the full merge tree over N points.
type Dendrogram struct {
	N      int
	Merges []Merge
}

// root returns the id of the last merge node.
func (d *Dendrogram) root() int {
	return d.N + len(d.Merges) - 1
}

func (d *Dendrogram) size(node int) int {
	if node < d.N {
		return 1
	}
	return d.Merges[node-d.N].Size
}

// BuildDendrogram computes core distances with minSamples neighbors, builds
// the minimum spanning tree of the mutual reachability graph and converts the
// sorted edges into a linkage.
func BuildDendrogram(locations [][]float64, minSamples int) (*Dendrogram, error) {
	n := len(locations)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 points to build a dendrogram, got %d", n)
	}
	if minSamples < 1 {
		return nil, fmt.Errorf("min samples must be positive, got %d", minSamples)
	}
	dim := len(locations[0])
	for i, loc := range locations {
		if len(loc) != dim {
			return nil, fmt.Errorf("location %d has dimension %d, want %d", i, len(loc), dim)
		}
	}

	core := CoreDistances(locations, minSamples)
	edges := primMST(locations, core)
	sort.SliceStable(edges, func(i, j int) bool { return edges[i].Weight < edges[j].Weight })
	return &Dendrogram{N: n, Merges: linkage(n, edges)}, nil
}

// CoreDistances returns, per point, the distance to its minSamples-th
// nearest neighbor counting the point itself.
func CoreDistances(locations [][]float64, minSamples int) []float64 {
	pts := make(kdtree.Points, len(locations))
	for i, loc := range locations {
		pts[i] = kdtree.Point(loc)
	}
	// kdtree.New partitions its input in place.
	tree := kdtree.New(append(kdtree.Points(nil), pts...), false)

	core := make([]float64, len(locations))
	for i, p := range pts {
		keeper := kdtree.NewNKeeper(minSamples)
		tree.NearestSet(keeper, p)

		var dists []float64
		for _, cd := range keeper.Heap {
			if cd.Comparable == nil || math.IsInf(cd.Dist, 1) {
				continue
			}
			dists = append(dists, cd.Dist)
		}
		if len(dists) == 0 {
			continue
		}
		sort.Float64s(dists)
		// Point.Distance is squared euclidean.
		core[i] = math.Sqrt(dists[len(dists)-1])
	}
	return core
}

func euclidean(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}

// primMST runs Prim's algorithm over the implicit complete mutual
// reachability graph.
func primMST(locations [][]float64, core []float64) []MSTEdge {
	n := len(locations)
	inTree := make([]bool, n)
	best := make([]float64, n)
	from := make([]int, n)
	for i := range best {
		best[i] = math.Inf(1)
		from[i] = -1
	}

	edges := make([]MSTEdge, 0, n-1)
	current := 0
	inTree[0] = true
	for len(edges) < n-1 {
		next := -1
		nextDist := math.Inf(1)
		for j := 0; j < n; j++ {
			if inTree[j] {
				continue
			}
			d := math.Max(euclidean(locations[current], locations[j]), math.Max(core[current], core[j]))
			if d < best[j] {
				best[j] = d
				from[j] = current
			}
			if best[j] < nextDist || next == -1 {
				nextDist = best[j]
				next = j
			}
		}
		inTree[next] = true
		edges = append(edges, MSTEdge{A: from[next], B: next, Weight: nextDist})
		current = next
	}
	return edges
}

// linkage converts edges sorted by weight into merges with union-find.
func linkage(n int, edges []MSTEdge) []Merge {
	parent := make([]int, 2*n-1)
	size := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
		if i < n {
			size[i] = 1
		}
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}

	merges := make([]Merge, 0, len(edges))
	next := n
	for _, e := range edges {
		ra, rb := find(e.A), find(e.B)
		merges = append(merges, Merge{Left: ra, Right: rb, Distance: e.Weight, Size: size[ra] + size[rb]})
		parent[ra] = next
		parent[rb] = next
		size[next] = size[ra] + size[rb]
		next++
	}
	return merges
}
