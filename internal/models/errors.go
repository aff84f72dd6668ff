// ABOUTME: Error taxonomy shared by the layering, evidence and naming stages
// ABOUTME: Callers match these with errors.Is after fmt.Errorf wrapping
package models

import "errors"

var (
	// ErrConfiguration reports an invalid pipeline setup such as an unknown
	// representation technique or mismatched input dimensions.
	ErrConfiguration = errors.New("configuration error")

	// ErrClusteringDegenerate reports a base clustering with no clusters or a
	// cluster whose total membership strength is zero.
	ErrClusteringDegenerate = errors.New("clustering degenerate")

	// ErrContextOverflow reports a prompt that cannot be fit into the
	// generation model's context window.
	ErrContextOverflow = errors.New("context overflow")

	// ErrEmptyVocabulary reports that no keyphrase survived filtering.
	// Keyword selection recovers from it with NoKeywordsSentinel.
	ErrEmptyVocabulary = errors.New("empty vocabulary")
)
