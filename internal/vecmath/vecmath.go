// ABOUTME: Dense vector helpers built on gonum floats and stat
// ABOUTME: Cosine distances, centroids, argsort and quantiles used by every stage
package vecmath

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CosineDistance returns 1 - cos(a, b). A zero vector is treated as
// orthogonal to everything.
func CosineDistance(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - floats.Dot(a, b)/(na*nb)
	if d < 0 {
		return 0
	}
	return d
}

// CosineDistances returns the distance from query to every candidate.
func CosineDistances(query []float64, candidates [][]float64) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = CosineDistance(query, c)
	}
	return out
}

// Argsort returns the indices that sort values ascending. Ties keep input order.
func Argsort(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})
	return idx
}

// Mean returns the component-wise mean of vectors, or nil for no vectors.
func Mean(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		floats.Add(out, v)
	}
	floats.Scale(1/float64(len(vectors)), out)
	return out
}

// Gather returns rows[i] for every i in indices. Rows are shared, not copied.
func Gather(rows [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = rows[idx]
	}
	return out
}

// Center subtracts the column mean from each row.
func Center(rows [][]float64) [][]float64 {
	mean := Mean(rows)
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = make([]float64, len(r))
		floats.SubTo(out[i], r, mean)
	}
	return out
}

// CenterAndNormalize subtracts the column mean from each row and scales each
// row to unit L2 norm. Zero rows stay zero.
func CenterAndNormalize(rows [][]float64) [][]float64 {
	mean := Mean(rows)
	out := make([][]float64, len(rows))
	for i, r := range rows {
		v := make([]float64, len(r))
		floats.SubTo(v, r, mean)
		if n := floats.Norm(v, 2); n > 0 {
			floats.Scale(1/n, v)
		}
		out[i] = v
	}
	return out
}

// Rectify zeroes every negative entry in place.
func Rectify(rows [][]float64) {
	for _, r := range rows {
		for j, v := range r {
			if v < 0 {
				r[j] = 0
			}
		}
	}
}

// Quantile returns the linearly interpolated q-quantile of values.
// It returns 0 for no values.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q = math.Max(0, math.Min(1, q))
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}

// IntsToFloats converts counts for use with Quantile.
func IntsToFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
