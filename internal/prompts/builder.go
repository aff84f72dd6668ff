// ABOUTME: Renders naming prompts from cluster evidence and fits them to the context window
// ABOUTME: Over-long prompts are rebuilt with half the documents, then truncated as a last resort
package prompts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/topicnaming/internal/llm"
	"github.com/harper/topicnaming/internal/models"
	"github.com/harper/topicnaming/internal/vecmath"
)

const (
	// DefaultTrimPercentile picks the per-document token budget from the corpus.
	DefaultTrimPercentile = 99
	// DefaultTrimLength is the smallest per-document token budget.
	DefaultTrimLength = 100
	// keywordRecap is the number of keywords restated in the closing question.
	keywordRecap = 8
)

// Options bounds the amount of evidence in a prompt.
type Options struct {
	MaxDocsPerCluster   int
	MaxAdjacentClusters int
	MaxAdjacentDocs     int
	MaxSubtopics        int
}

// BaseOptions are the defaults for base layer prompts.
func BaseOptions() Options {
	return Options{MaxDocsPerCluster: 100, MaxAdjacentClusters: 3, MaxAdjacentDocs: 2, MaxSubtopics: 24}
}

// SubtopicOptions are the defaults for upper layer prompts.
func SubtopicOptions() Options {
	return Options{MaxDocsPerCluster: 4, MaxAdjacentClusters: 3, MaxAdjacentDocs: 2, MaxSubtopics: 24}
}

// Builder renders prompts for one corpus.
type Builder struct {
	DocumentType      string
	CorpusDescription string
	Techniques        []models.Technique
	Tokenizer         llm.Tokenizer
	ContextWindow     int
	// TrimLength is the per-document token budget; see TrimLength.
	TrimLength int
	Logger     *log.Logger
}

// TrimLength returns max(percentile of document token counts, minimum),
// halved to fit when it exceeds the context window.
func TrimLength(tk llm.Tokenizer, docs []string, percentile float64, minimum, contextWindow int, logger *log.Logger) int {
	counts := make([]float64, len(docs))
	for i, d := range docs {
		counts[i] = float64(tk.Count(d))
	}
	trim := max(int(vecmath.Quantile(counts, percentile/100)), minimum)
	if contextWindow > 0 && trim > contextWindow {
		if logger != nil {
			logger.Warn("trim length exceeds the context window, using half the window", "trim_length", trim, "context_window", contextWindow)
		}
		trim = contextWindow / 2
	}
	return trim
}

func (b *Builder) has(t models.Technique) bool {
	return models.ContainsTechnique(b.Techniques, t)
}

func (b *Builder) trim(text string) string {
	if b.Tokenizer == nil || b.TrimLength <= 0 {
		return text
	}
	return b.Tokenizer.Truncate(text, b.TrimLength)
}

func (b *Builder) logger() *log.Logger {
	if b.Logger == nil {
		return log.Default()
	}
	return b.Logger
}

func head(items []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

func neighborsOf(layer *models.Layer, cluster, n int) []int {
	if cluster >= len(layer.Neighbors) {
		return nil
	}
	row := layer.Neighbors[cluster]
	if len(row) > n {
		row = row[:n]
	}
	return row
}

func (b *Builder) writeKeywords(sb *strings.Builder, rep models.Representation, layerIdx, cluster int) {
	if !b.has(models.Contrastive) {
		return
	}
	keywords := rep[models.Contrastive].At(layerIdx, cluster)
	fmt.Fprintf(sb, "Distinguishing keywords for this group:\n - \"%s\"\n", strings.Join(keywords, ", "))
}

func (b *Builder) writeTopical(sb *strings.Builder, layer *models.Layer, rep models.Representation, layerIdx, cluster int, opts Options) {
	if !b.has(models.Topical) {
		return
	}
	topical := rep[models.Topical]
	fmt.Fprintf(sb, "\nSample topical %s from the group include:\n", b.DocumentType)
	for _, text := range head(topical.At(layerIdx, cluster), opts.MaxDocsPerCluster) {
		fmt.Fprintf(sb, " - \"%s\"\n", b.trim(text))
	}
	fmt.Fprintf(sb, "\n\nSimilar %s from different groups with distinct topics include:\n", b.DocumentType)
	for _, adj := range neighborsOf(layer, cluster, opts.MaxAdjacentClusters) {
		for _, text := range head(topical.At(layerIdx, adj), opts.MaxAdjacentDocs) {
			fmt.Fprintf(sb, "- \"%s\"\n", b.trim(text))
		}
	}
}

func (b *Builder) writeDistinctive(sb *strings.Builder, rep models.Representation, layerIdx, cluster int, opts Options) {
	if !b.has(models.Distinctive) {
		return
	}
	fmt.Fprintf(sb, "\nSample distinctive %s from the group include:\n", b.DocumentType)
	for _, text := range head(rep[models.Distinctive].At(layerIdx, cluster), opts.MaxDocsPerCluster) {
		fmt.Fprintf(sb, " - \"%s\"\n", b.trim(text))
	}
}

func (b *Builder) writeQuestion(sb *strings.Builder, rep models.Representation, layerIdx, cluster int) {
	sb.WriteString("\n\nThe short distinguishing topic name for the group ")
	if b.has(models.Contrastive) {
		keywords := head(rep[models.Contrastive].At(layerIdx, cluster), keywordRecap)
		fmt.Fprintf(sb, "that had the keywords:\n -  \"%s\" \n", strings.Join(keywords, ", "))
	}
	sb.WriteString("is:\n")
}

// Base renders the prompt for one cluster from its own evidence.
func (b *Builder) Base(layer *models.Layer, rep models.Representation, layerIdx, cluster int, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--\n\nBelow is a information about a group of %s from %s:\n\n", b.DocumentType, b.CorpusDescription)
	b.writeKeywords(&sb, rep, layerIdx, cluster)
	b.writeTopical(&sb, layer, rep, layerIdx, cluster, opts)
	b.writeDistinctive(&sb, rep, layerIdx, cluster, opts)
	b.writeQuestion(&sb, rep, layerIdx, cluster)
	return sb.String()
}

// Subtopic renders the prompt for an upper layer cluster. subtopics holds,
// per cluster of the layer, the names of selected finer clusters.
func (b *Builder) Subtopic(layer *models.Layer, rep models.Representation, layerIdx, cluster int, subtopics [][]string, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--\n\nBelow is a information about a group of %s from %s that are all on the same topic:\n\n", b.DocumentType, b.CorpusDescription)
	b.writeKeywords(&sb, rep, layerIdx, cluster)
	sb.WriteString("Sample sub-topics from the group include:\n")
	for _, text := range head(subtopics[cluster], opts.MaxSubtopics) {
		fmt.Fprintf(&sb, "- \"%s\"\n", text)
	}
	b.writeTopical(&sb, layer, rep, layerIdx, cluster, opts)
	b.writeDistinctive(&sb, rep, layerIdx, cluster, opts)
	sb.WriteString("\nSub-topics from different but similar groups include:\n")
	for _, adj := range neighborsOf(layer, cluster, opts.MaxAdjacentClusters) {
		for _, text := range head(subtopics[adj], opts.MaxSubtopics) {
			fmt.Fprintf(&sb, "- \"%s\"\n", text)
		}
	}
	b.writeQuestion(&sb, rep, layerIdx, cluster)
	return sb.String()
}

// Remedy asks for a more specific replacement after tried names collided
// with other clusters. The last tried name is the current one.
func (b *Builder) Remedy(tried, sentences []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "A set of %s from %s was described as having a topic of one of %s.\n", b.DocumentType, b.CorpusDescription, strings.Join(tried, ", "))
	fmt.Fprintf(&sb, "These topic names were not specific enough and were shared with other different but similar groups of %s.\n", b.DocumentType)
	fmt.Fprintf(&sb, "A sampling of %s from this specific set of %s includes:\n", b.DocumentType, b.DocumentType)
	for _, s := range sentences {
		fmt.Fprintf(&sb, "- %s\n", b.trim(s))
	}
	current := ""
	if len(tried) > 0 {
		current = tried[len(tried)-1]
	}
	fmt.Fprintf(&sb, "\n\nThe current name for this topic of these %s is: %s\n", b.DocumentType, current)
	fmt.Fprintf(&sb, "A better and more specific name that still captures the topic of these %s is: ", b.DocumentType)
	return sb.String()
}

// Fit renders a prompt with build and halves the document quota until the
// prompt fits the context window. Once the quota reaches zero the prompt is
// truncated to the window; ErrContextOverflow is returned if even that fails.
func (b *Builder) Fit(build func(quota int) string, quota int) (string, error) {
	prompt := build(quota)
	if b.Tokenizer == nil || b.ContextWindow <= 0 {
		return prompt, nil
	}
	for b.Tokenizer.Count(prompt) > b.ContextWindow {
		if quota < 1 {
			b.logger().Warn("prompt too long for the context window, truncating",
				"tokens", b.Tokenizer.Count(prompt), "context_window", b.ContextWindow)
			prompt = b.Tokenizer.Truncate(prompt, b.ContextWindow)
			if n := b.Tokenizer.Count(prompt); n > b.ContextWindow {
				return "", fmt.Errorf("%w: prompt has %d tokens after truncation, window is %d", models.ErrContextOverflow, n, b.ContextWindow)
			}
			break
		}
		quota /= 2
		prompt = build(quota)
	}
	return prompt, nil
}

// BaseLayer renders a fitted base prompt for every cluster of layer.
func (b *Builder) BaseLayer(layer *models.Layer, rep models.Representation, layerIdx int, opts Options) ([]string, error) {
	out := make([]string, layer.Len())
	for ci := range layer.Clusters {
		prompt, err := b.Fit(func(quota int) string {
			o := opts
			o.MaxDocsPerCluster = quota
			return b.Base(layer, rep, layerIdx, ci, o)
		}, opts.MaxDocsPerCluster)
		if err != nil {
			return nil, fmt.Errorf("prompt for layer %d cluster %d: %w", layerIdx, ci, err)
		}
		out[ci] = prompt
	}
	return out, nil
}

// SubtopicLayer renders a fitted sub-topic prompt for every cluster of layer.
func (b *Builder) SubtopicLayer(layer *models.Layer, rep models.Representation, layerIdx int, subtopics [][]string, opts Options) ([]string, error) {
	out := make([]string, layer.Len())
	for ci := range layer.Clusters {
		prompt, err := b.Fit(func(quota int) string {
			o := opts
			o.MaxDocsPerCluster = quota
			o.MaxSubtopics = max(quota, 1) * opts.MaxSubtopics / max(opts.MaxDocsPerCluster, 1)
			return b.Subtopic(layer, rep, layerIdx, ci, subtopics, o)
		}, opts.MaxDocsPerCluster)
		if err != nil {
			return nil, fmt.Errorf("prompt for layer %d cluster %d: %w", layerIdx, ci, err)
		}
		out[ci] = prompt
	}
	return out, nil
}
