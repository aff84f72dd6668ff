// ABOUTME: Condenses a dendrogram at a minimum cluster size and derives flat labels
// ABOUTME: Leaves, label vectors and membership strengths follow HDBSCAN leaf selection
package hdbscan

import (
	"math"
	"sort"

	"github.com/harper/topicnaming/internal/models"
)

// CondensedEdge records a child leaving Parent at Lambda. Points have ids
// below N and Size 1; clusters have ids from N upward.
type CondensedEdge struct {
	Parent int
	Child  int
	Lambda float64
	Size   int
}

// CondensedTree is the pruned cluster tree for one minimum cluster size.
type CondensedTree struct {
	N     int
	Edges []CondensedEdge
}

// Root returns the root cluster id.
func (t *CondensedTree) Root() int {
	return t.N
}

// Condense prunes the dendrogram so that every surviving split has two
// children of at least minClusterSize points. The result depends only on its
// inputs.
func Condense(d *Dendrogram, minClusterSize int) *CondensedTree {
	tree := &CondensedTree{N: d.N}
	if len(d.Merges) == 0 {
		return tree
	}
	if minClusterSize < 1 {
		minClusterSize = 1
	}

	root := d.root()
	relabel := make(map[int]int)
	relabel[root] = d.N
	nextLabel := d.N + 1
	ignore := make([]bool, root+1)

	for _, node := range bfs(d, root) {
		if node < d.N || ignore[node] {
			continue
		}
		m := d.Merges[node-d.N]
		lambda := math.Inf(1)
		if m.Distance > 0 {
			lambda = 1 / m.Distance
		}
		leftCount := d.size(m.Left)
		rightCount := d.size(m.Right)
		label := relabel[node]

		switch {
		case leftCount >= minClusterSize && rightCount >= minClusterSize:
			relabel[m.Left] = nextLabel
			nextLabel++
			tree.Edges = append(tree.Edges, CondensedEdge{label, relabel[m.Left], lambda, leftCount})
			relabel[m.Right] = nextLabel
			nextLabel++
			tree.Edges = append(tree.Edges, CondensedEdge{label, relabel[m.Right], lambda, rightCount})

		case leftCount < minClusterSize && rightCount < minClusterSize:
			tree.Edges = fallOut(d, tree.Edges, m.Left, label, lambda, ignore)
			tree.Edges = fallOut(d, tree.Edges, m.Right, label, lambda, ignore)

		case leftCount < minClusterSize:
			relabel[m.Right] = label
			tree.Edges = fallOut(d, tree.Edges, m.Left, label, lambda, ignore)

		default:
			relabel[m.Left] = label
			tree.Edges = fallOut(d, tree.Edges, m.Right, label, lambda, ignore)
		}
	}
	return tree
}

// fallOut records every point under node as leaving label at lambda.
func fallOut(d *Dendrogram, edges []CondensedEdge, node, label int, lambda float64, ignore []bool) []CondensedEdge {
	for _, sub := range bfs(d, node) {
		if sub < d.N {
			edges = append(edges, CondensedEdge{label, sub, lambda, 1})
		}
		ignore[sub] = true
	}
	return edges
}

func bfs(d *Dendrogram, start int) []int {
	order := []int{start}
	for i := 0; i < len(order); i++ {
		node := order[i]
		if node >= d.N {
			m := d.Merges[node-d.N]
			order = append(order, m.Left, m.Right)
		}
	}
	return order
}

// ExtractLeaves returns the cluster ids with no cluster children, ascending.
// A tree that never splits yields its root.
func ExtractLeaves(t *CondensedTree) []int {
	if len(t.Edges) == 0 {
		return nil
	}
	maxNode := t.N
	for _, e := range t.Edges {
		if e.Parent > maxNode {
			maxNode = e.Parent
		}
	}
	leaf := make([]bool, maxNode+1)
	for i := t.N; i <= maxNode; i++ {
		leaf[i] = true
	}
	for _, e := range t.Edges {
		if e.Size > 1 {
			leaf[e.Parent] = false
		}
	}
	var leaves []int
	for i := t.N; i <= maxNode; i++ {
		if leaf[i] {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// LabelVector assigns each point the index of its selected ancestor in the
// sorted leaves. Points whose only selected ancestor is the root are noise.
func LabelVector(t *CondensedTree, leaves []int) []int {
	labels := make([]int, t.N)
	for i := range labels {
		labels[i] = models.Unassigned
	}
	if len(t.Edges) == 0 {
		return labels
	}

	sorted := append([]int(nil), leaves...)
	sort.Ints(sorted)
	index := make(map[int]int, len(sorted))
	for i, c := range sorted {
		index[c] = i
	}

	parentOf := make(map[int]int, len(t.Edges))
	for _, e := range t.Edges {
		parentOf[e.Child] = e.Parent
	}

	root := t.Root()
	for p := 0; p < t.N; p++ {
		node, ok := parentOf[p]
		for ok {
			if _, selected := index[node]; selected || node == root {
				break
			}
			node, ok = parentOf[node]
		}
		if !ok || node == root {
			continue
		}
		labels[p] = index[node]
	}
	return labels
}

// MembershipStrengths scales each labelled point's exit lambda by the largest
// point exit lambda of its cluster. Noise points get 0.
func MembershipStrengths(t *CondensedTree, leaves []int, labels []int) []float64 {
	strengths := make([]float64, len(labels))
	if len(t.Edges) == 0 {
		return strengths
	}

	sorted := append([]int(nil), leaves...)
	sort.Ints(sorted)
	selected := make(map[int]bool, len(sorted))
	for _, c := range sorted {
		selected[c] = true
	}

	deaths := make(map[int]float64, len(sorted))
	for _, e := range t.Edges {
		if selected[e.Parent] && e.Size == 1 && e.Lambda > deaths[e.Parent] {
			deaths[e.Parent] = e.Lambda
		}
	}

	for _, e := range t.Edges {
		point := e.Child
		if point >= t.N || labels[point] < 0 {
			continue
		}
		maxLambda := deaths[sorted[labels[point]]]
		if maxLambda == 0 || math.IsInf(e.Lambda, 0) || math.IsNaN(e.Lambda) {
			strengths[point] = 1
			continue
		}
		strengths[point] = math.Min(e.Lambda, maxLambda) / maxLambda
	}
	return strengths
}

// FlatCluster condenses d at minClusterSize and returns labels and strengths.
func FlatCluster(d *Dendrogram, minClusterSize int) models.FlatClustering {
	tree := Condense(d, minClusterSize)
	leaves := ExtractLeaves(tree)
	labels := LabelVector(tree, leaves)
	return models.FlatClustering{
		Labels:    labels,
		Strengths: MembershipStrengths(tree, leaves, labels),
	}
}
