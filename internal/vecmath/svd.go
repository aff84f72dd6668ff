// ABOUTME: Truncated SVD projection over gonum mat
// ABOUTME: Projects raw rows onto the leading right singular vectors of a fitted matrix
package vecmath

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Components holds the leading right singular vectors of a fitted matrix,
// one per column, ordered by descending singular value.
type Components struct {
	v *mat.Dense
}

// K returns the number of retained components.
func (c *Components) K() int {
	_, k := c.v.Dims()
	return k
}

// TruncatedSVD fits rows and keeps at most k components. Fewer are kept when
// the matrix rank bound min(rows, cols) is smaller than k.
func TruncatedSVD(rows [][]float64, k int) (*Components, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("svd of empty matrix")
	}
	r, c := len(rows), len(rows[0])
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("svd row %d has %d columns, want %d", i, len(row), c)
		}
		data = append(data, row...)
	}
	a := mat.NewDense(r, c, data)

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization failed")
	}

	var v mat.Dense
	svd.VTo(&v)
	_, avail := v.Dims()
	if k > avail {
		k = avail
	}
	if k <= 0 {
		return nil, fmt.Errorf("svd kept no components")
	}
	keep := mat.DenseCopyOf(v.Slice(0, c, 0, k))
	return &Components{v: keep}, nil
}

// Project returns rows multiplied by the component matrix.
func (c *Components) Project(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	d, k := c.v.Dims()
	data := make([]float64, 0, len(rows)*d)
	for _, row := range rows {
		data = append(data, row...)
	}
	x := mat.NewDense(len(rows), d, data)

	var out mat.Dense
	out.Mul(x, c.v)

	result := make([][]float64, len(rows))
	for i := range result {
		result[i] = make([]float64, k)
		mat.Row(result[i], i, &out)
	}
	return result
}
