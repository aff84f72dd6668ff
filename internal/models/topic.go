// ABOUTME: Evidence bundles and topic name layers produced by the naming stages
// ABOUTME: Every per-layer slice is indexed by cluster id
package models

const (
	// UnlabelledPlaceholder is assigned to documents outside every pointset.
	UnlabelledPlaceholder = "Unlabelled"

	// NoKeywordsSentinel stands in for a cluster with no keyphrase evidence.
	NoKeywordsSentinel = "no keywords were found"
)

// EvidenceLayers is evidence per layer, per cluster.
type EvidenceLayers [][][]string

// At returns the evidence for a cluster, or nil when it is absent.
func (e EvidenceLayers) At(layer, cluster int) []string {
	if layer < 0 || layer >= len(e) {
		return nil
	}
	if cluster < 0 || cluster >= len(e[layer]) {
		return nil
	}
	return e[layer][cluster]
}

// Representation maps each computed technique to its evidence layers.
type Representation map[Technique]EvidenceLayers

// Has reports whether t has been computed.
func (r Representation) Has(t Technique) bool {
	_, ok := r[t]
	return ok
}

// NameLayers is one topic name per cluster, per layer.
type NameLayers [][]string

// DocumentLabels holds, for each layer, the committed name of every document.
type DocumentLabels [][]string

// NewDocumentLabels creates labels for nLayers layers of nDocs documents, all
// set to UnlabelledPlaceholder.
func NewDocumentLabels(nLayers, nDocs int) DocumentLabels {
	labels := make(DocumentLabels, nLayers)
	for i := range labels {
		labels[i] = make([]string, nDocs)
		for j := range labels[i] {
			labels[i][j] = UnlabelledPlaceholder
		}
	}
	return labels
}
