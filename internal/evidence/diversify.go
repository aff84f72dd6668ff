// ABOUTME: Greedy redundancy filter over nearest-neighbor candidates
// ABOUTME: Keeps a candidate only if no kept candidate is closer to it than the query is
package evidence

import "github.com/harper/topicnaming/internal/vecmath"

const (
	// DefaultAlpha is the redundancy multiplier; smaller values keep more diverse sets.
	DefaultAlpha = 1.0
	// DefaultMaxCandidates caps the number of retained candidates.
	DefaultMaxCandidates = 16
	// DuplicateDistance is the cosine distance at or below which two
	// candidates count as the same item.
	DuplicateDistance = 1e-4
)

// Diversify walks candidates in order and returns the indices it keeps.
// Candidate 0 is always kept. Candidate i is rejected when, for some kept j,
// alpha*d(query, i) > d(i, j) or d(i, j) <= DuplicateDistance. The walk
// stops once maxCandidates are kept.
func Diversify(query []float64, candidates [][]float64, alpha float64, maxCandidates int) []int {
	if len(candidates) == 0 || maxCandidates < 1 {
		return nil
	}
	toQuery := vecmath.CosineDistances(query, candidates)

	kept := []int{0}
	for i := 1; i < len(candidates) && len(kept) < maxCandidates; i++ {
		redundant := false
		for _, j := range kept {
			d := vecmath.CosineDistance(candidates[i], candidates[j])
			if d <= DuplicateDistance || alpha*toQuery[i] > d {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, i)
		}
	}
	return kept
}
