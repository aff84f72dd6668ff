// ABOUTME: Cluster hierarchy types: flat clusterings, clusters and layers
// ABOUTME: Layers run fine to coarse; index 0 is the base layer
package models

// Unassigned is the label given to noise documents.
const Unassigned = -1

// FlatClustering is one cut through the dendrogram.
type FlatClustering struct {
	Labels    []int     `json:"labels"`
	Strengths []float64 `json:"strengths"`
}

// NClusters returns max(label)+1, or 0 when every document is noise.
func (f FlatClustering) NClusters() int {
	n := 0
	for _, l := range f.Labels {
		if l+1 > n {
			n = l + 1
		}
	}
	return n
}

// Cluster is one node of a layer.
type Cluster struct {
	Index        int       `json:"index" yaml:"index"`
	Vector       []float64 `json:"vector" yaml:"-"`
	Location     []float64 `json:"location" yaml:"location"`
	Pointset     []int     `json:"pointset" yaml:"pointset"`
	Metaclusters []int     `json:"metaclusters" yaml:"metaclusters"`
}

// Layer is an ordered list of clusters at one granularity.
type Layer struct {
	Index     int       `json:"index" yaml:"index"`
	Clusters  []Cluster `json:"clusters" yaml:"clusters"`
	Neighbors [][]int   `json:"neighbors" yaml:"neighbors"`
}

// Len returns the number of clusters in the layer.
func (l *Layer) Len() int {
	return len(l.Clusters)
}

// Vectors returns the centroid vectors in cluster order.
func (l *Layer) Vectors() [][]float64 {
	out := make([][]float64, len(l.Clusters))
	for i, c := range l.Clusters {
		out[i] = c.Vector
	}
	return out
}

// Pointsets returns the pointsets in cluster order.
func (l *Layer) Pointsets() [][]int {
	out := make([][]int, len(l.Clusters))
	for i, c := range l.Clusters {
		out[i] = c.Pointset
	}
	return out
}

// Hierarchy holds every kept layer, fine to coarse.
type Hierarchy struct {
	Layers []Layer `json:"layers" yaml:"layers"`
}

// Len returns the number of layers.
func (h *Hierarchy) Len() int {
	return len(h.Layers)
}

// Coarsest returns the last layer or nil for an empty hierarchy.
func (h *Hierarchy) Coarsest() *Layer {
	if len(h.Layers) == 0 {
		return nil
	}
	return &h.Layers[len(h.Layers)-1]
}
