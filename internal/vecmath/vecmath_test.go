// ABOUTME: Tests for vector helpers and the truncated SVD projection
// ABOUTME: Uses testify for tolerance checks on numeric output
package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0.0, CosineDistance([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 1.0, CosineDistance([]float64{1, 0}, []float64{0, 3}), 1e-12)
	assert.InDelta(t, 2.0, CosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-12)
	assert.Equal(t, 1.0, CosineDistance([]float64{0, 0}, []float64{1, 0}))
}

func TestArgsortIsStable(t *testing.T) {
	got := Argsort([]float64{0.3, 0.1, 0.3, 0.0})
	assert.Equal(t, []int{3, 1, 0, 2}, got)
}

func TestMeanAndGather(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	assert.Equal(t, []float64{3, 4}, Mean(rows))
	assert.Nil(t, Mean(nil))
	assert.Equal(t, [][]float64{{5, 6}, {1, 2}}, Gather(rows, []int{2, 0}))
}

func TestCenterAndNormalize(t *testing.T) {
	out := CenterAndNormalize([][]float64{{1, 1}, {3, 1}})
	require.Len(t, out, 2)
	assert.InDeltaSlice(t, []float64{-1, 0}, out[0], 1e-12)
	assert.InDeltaSlice(t, []float64{1, 0}, out[1], 1e-12)
}

func TestRectify(t *testing.T) {
	rows := [][]float64{{-1, 2}, {0.5, -0.1}}
	Rectify(rows)
	assert.Equal(t, [][]float64{{0, 2}, {0.5, 0}}, rows)
}

func TestQuantile(t *testing.T) {
	assert.Equal(t, 0.0, Quantile(nil, 0.8))
	assert.Equal(t, 7.0, Quantile([]float64{7}, 0.8))
	q := Quantile([]float64{40, 10, 30, 20}, 1.0)
	assert.Equal(t, 40.0, q)
	mid := Quantile([]float64{10, 20, 30, 40}, 0.5)
	assert.True(t, mid >= 10 && mid <= 40)
}

func TestTruncatedSVD_ProjectsOntoLeadingComponent(t *testing.T) {
	rows := [][]float64{
		{2, 0, 0},
		{-2, 0, 0},
		{0, 1, 0},
		{0, -1, 0},
	}
	comp, err := TruncatedSVD(rows, 64)
	require.NoError(t, err)
	assert.Equal(t, 3, comp.K())

	proj := comp.Project([][]float64{{1, 0, 0}})
	require.Len(t, proj, 1)
	// The leading component is the x axis, up to sign.
	assert.InDelta(t, 1.0, math.Abs(proj[0][0]), 1e-9)
	assert.InDelta(t, 0.0, proj[0][1], 1e-9)
}

func TestTruncatedSVD_Errors(t *testing.T) {
	_, err := TruncatedSVD(nil, 4)
	assert.Error(t, err)

	_, err = TruncatedSVD([][]float64{{1, 2}, {1}}, 4)
	assert.Error(t, err)
}

func TestCenter(t *testing.T) {
	out := Center([][]float64{{1, 4}, {3, 0}})
	assert.Equal(t, [][]float64{{-1, 2}, {1, -2}}, out)
}
