// ABOUTME: Token counting for prompt budgeting
// ABOUTME: Loads a HuggingFace tokenizer.json when configured, else estimates from characters
package llm

import (
	"fmt"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// HFTokenizer counts tokens with a HuggingFace tokenizer definition.
type HFTokenizer struct {
	tk *tokenizer.Tokenizer
}

// LoadTokenizer reads a tokenizer.json file.
func LoadTokenizer(path string) (*HFTokenizer, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}
	return &HFTokenizer{tk: tk}, nil
}

func (h *HFTokenizer) encode(text string) []int {
	en, err := h.tk.EncodeSingle(text, false)
	if err != nil {
		return nil
	}
	return en.Ids
}

// Count returns the number of tokens in text.
func (h *HFTokenizer) Count(text string) int {
	return len(h.encode(text))
}

// Truncate keeps the first maxTokens tokens of text.
func (h *HFTokenizer) Truncate(text string, maxTokens int) string {
	ids := h.encode(text)
	if len(ids) <= maxTokens {
		return text
	}
	if maxTokens <= 0 {
		return ""
	}
	return h.tk.Decode(ids[:maxTokens], true)
}

// charsPerToken is the usual English estimate for BPE vocabularies.
const charsPerToken = 4

// ApproxTokenizer estimates tokens as one per four characters.
type ApproxTokenizer struct{}

// Count returns ceil(runes/4).
func (ApproxTokenizer) Count(text string) int {
	n := len([]rune(text))
	return (n + charsPerToken - 1) / charsPerToken
}

// Truncate keeps the first maxTokens*4 runes.
func (ApproxTokenizer) Truncate(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	limit := maxTokens * charsPerToken
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
