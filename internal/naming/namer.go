// ABOUTME: Turns naming prompts into normalized topic names
// ABOUTME: Keeps the first non-blank line, strips punctuation and capitalizes each word
package naming

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/harper/topicnaming/internal/llm"
)

// Normalize cleans a raw completion into a topic name.
func Normalize(raw string) string {
	if strings.Contains(raw, "\n") {
		raw = strings.TrimLeft(raw, "\n ")
		raw = strings.SplitN(raw, "\n", 2)[0]
	}
	raw = strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return capWords(raw)
}

// capWords capitalizes the first letter of every whitespace separated word,
// lowercases the rest and joins the words with single spaces.
func capWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NameLayer generates and normalizes one name per prompt.
func NameLayer(ctx context.Context, gen llm.Generator, prompts []string) ([]string, error) {
	names := make([]string, len(prompts))
	for i, p := range prompts {
		raw, err := gen.Generate(ctx, p, 0)
		if err != nil {
			return nil, fmt.Errorf("naming cluster %d: %w", i, err)
		}
		names[i] = Normalize(raw)
	}
	return names, nil
}
