// ABOUTME: Tests for corpus loading and derived vectors and locations
// ABOUTME: Uses in-memory readers and a stub embedder
package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/topicnaming/internal/models"
)

func TestReadJSONL(t *testing.T) {
	input := `{"text": "paper on cells", "vector": [1, 0], "location": [0, 0]}

{"text": "paper on stars", "vector": [0, 1], "location": [5, 5]}
`
	c, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"paper on cells", "paper on stars"}, c.Documents)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, c.Vectors)
	assert.Equal(t, [][]float64{{0, 0}, {5, 5}}, c.Locations)
	assert.Equal(t, 2, c.Len())
}

func TestReadJSONL_TextOnly(t *testing.T) {
	c, err := ReadJSONL(strings.NewReader(`{"text": "a"}` + "\n" + `{"text": "b"}`))
	require.NoError(t, err)
	assert.Nil(t, c.Vectors)
	assert.Nil(t, c.Locations)
}

func TestReadJSONL_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", "\n\n"},
		{"bad json", `{"text": `},
		{"mixed vectors", `{"text": "a", "vector": [1]}` + "\n" + `{"text": "b"}`},
		{"mixed locations", `{"text": "a"}` + "\n" + `{"text": "b", "location": [1, 2]}`},
		{"vector dims", `{"text": "a", "vector": [1, 2]}` + "\n" + `{"text": "b", "vector": [1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSONL(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, models.ErrConfiguration), "got %v", err)
		})
	}
}

func TestReadFile_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "titles.txt")
	require.NoError(t, os.WriteFile(path, []byte("first title\n\n  second title  \n"), 0o600))

	c, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"first title", "second title"}, c.Documents)
}

type stubEmbedder struct{ calls int }

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), float64(i), 1}
	}
	return out, nil
}

func TestEmbedAndLayout(t *testing.T) {
	c := &Corpus{Documents: []string{"a", "bb", "ccc", "dddd"}}
	require.Error(t, c.Layout(DefaultLayoutDims), "layout needs vectors")

	emb := &stubEmbedder{}
	require.NoError(t, c.Embed(context.Background(), emb))
	require.NoError(t, c.Embed(context.Background(), emb))
	assert.Equal(t, 1, emb.calls, "existing vectors are kept")

	require.NoError(t, c.Layout(DefaultLayoutDims))
	require.Len(t, c.Locations, 4)
	for _, loc := range c.Locations {
		assert.Len(t, loc, 2)
	}

	// Centered projections sum to zero along each axis
	var sum float64
	for _, loc := range c.Locations {
		sum += loc[0]
	}
	assert.InDelta(t, 0, sum, 1e-9)
}
