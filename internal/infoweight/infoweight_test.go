// ABOUTME: Tests for the information weight transformer
// ABOUTME: Class-specific columns must outweigh uniformly spread ones
package infoweight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Matrix {
	return FromDense([][]float64{
		{1, 1, 0},
		{1, 1, 0},
		{0, 1, 0},
		{0, 1, 0},
	})
}

func TestFit_ClassSpecificColumnWins(t *testing.T) {
	tr, err := New(DefaultOptions()).Fit(sample(), []int{0, 0, 1, 1})
	require.NoError(t, err)
	require.Len(t, tr.Weights, 3)

	assert.Greater(t, tr.Weights[0], tr.Weights[1])
	assert.Equal(t, 0.0, tr.Weights[2])
	for _, w := range tr.Weights {
		assert.False(t, math.IsNaN(w) || math.IsInf(w, 0))
		assert.GreaterOrEqual(t, w, 0.0)
	}
}

func TestFit_Unsupervised(t *testing.T) {
	tr, err := New(DefaultOptions()).Fit(sample(), nil)
	require.NoError(t, err)
	assert.Greater(t, tr.Weights[0], tr.Weights[1])
}

func TestFit_LabelCountMismatch(t *testing.T) {
	_, err := New(DefaultOptions()).Fit(sample(), []int{0, 1})
	assert.Error(t, err)
}

func TestFit_AllZeroMatrix(t *testing.T) {
	tr, err := New(DefaultOptions()).Fit(FromDense([][]float64{{0, 0}, {0, 0}}), []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, tr.Weights)
}

func TestTransformAndScore(t *testing.T) {
	tr := &Transformer{Weights: []float64{2, 0.5, 0}}
	out := tr.Transform(FromDense([][]float64{{1, 2, 3}}))
	require.Len(t, out.Rows, 1)
	assert.Equal(t, []Entry{{Col: 0, Val: 2}, {Col: 1, Val: 1}}, out.Rows[0])
	assert.Equal(t, 3.0, tr.Score([]float64{1, 2, 3}))
}

func TestFromDense(t *testing.T) {
	m := FromDense([][]float64{{0, 3}, {0, 0}})
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, []Entry{{Col: 1, Val: 3}}, m.Rows[0])
	assert.Empty(t, m.Rows[1])
}
