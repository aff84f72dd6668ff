// ABOUTME: Keyphrase vocabulary construction and longest-phrase collapsing
// ABOUTME: Counts lowercase n-grams per document with a document-frequency floor
package evidence

import (
	"regexp"
	"sort"
	"strings"

	"github.com/harper/topicnaming/internal/infoweight"
	"github.com/harper/topicnaming/internal/models"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_][-'\p{L}\p{N}_]+`)

// VocabularyOptions controls keyphrase extraction.
type VocabularyOptions struct {
	MinN           int
	MaxN           int
	MinOccurrences int
}

// DefaultVocabularyOptions returns 1..4-grams seen in at least 25 documents.
func DefaultVocabularyOptions() VocabularyOptions {
	return VocabularyOptions{MinN: 1, MaxN: 4, MinOccurrences: 25}
}

// Vocabulary holds candidate keyphrases and per-document counts of them.
type Vocabulary struct {
	Terms []string
	Docs  [][]infoweight.Entry
}

// Tokenize lowercases text and splits it into word tokens of two or more
// characters.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, tok := range raw {
		tok = strings.TrimRight(tok, "-'")
		if len([]rune(tok)) >= 2 {
			out = append(out, tok)
		}
	}
	return out
}

func ngrams(tokens []string, minN, maxN int) []string {
	var out []string
	for n := minN; n <= maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// BuildVocabulary extracts n-grams, keeps those present in at least
// MinOccurrences documents and drops any whose first or last word is an
// English stop word. Terms are sorted.
func BuildVocabulary(docs []string, opts VocabularyOptions) *Vocabulary {
	if opts.MinN < 1 {
		opts.MinN = 1
	}
	if opts.MaxN < opts.MinN {
		opts.MaxN = opts.MinN
	}

	perDoc := make([]map[string]float64, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		counts := make(map[string]float64)
		for _, g := range ngrams(Tokenize(doc), opts.MinN, opts.MaxN) {
			counts[g]++
		}
		for g := range counts {
			df[g]++
		}
		perDoc[i] = counts
	}

	var terms []string
	for term, n := range df {
		if n < opts.MinOccurrences {
			continue
		}
		words := strings.Fields(term)
		if IsStopWord(words[0]) || IsStopWord(words[len(words)-1]) {
			continue
		}
		terms = append(terms, term)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	vocab := &Vocabulary{Terms: terms, Docs: make([][]infoweight.Entry, len(docs))}
	for i, counts := range perDoc {
		var row []infoweight.Entry
		for g, c := range counts {
			if col, ok := index[g]; ok {
				row = append(row, infoweight.Entry{Col: col, Val: c})
			}
		}
		sort.Slice(row, func(a, b int) bool { return row[a].Col < row[b].Col })
		vocab.Docs[i] = row
	}
	return vocab
}

// LongestKeyphrases replaces each phrase with the longest candidate that
// extends it at a word boundary, then removes repeats keeping first
// occurrence order. Applying it to its own output changes nothing.
func LongestKeyphrases(candidates []string) []string {
	result := models.NewOrderedSet()
	for _, phrase := range candidates {
		current := phrase
		for changed := true; changed; {
			changed = false
			for _, other := range candidates {
				if other != current && extends(other, current) {
					current = other
					changed = true
				}
			}
		}
		result.Add(current)
	}
	return result.Items()
}

// extends reports whether longer contains phrase as a whitespace bounded run.
func extends(longer, phrase string) bool {
	return strings.Contains(longer, " "+phrase) || strings.Contains(longer, phrase+" ")
}
