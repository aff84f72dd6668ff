// ABOUTME: Information-weighted feature reweighting over sparse non-negative matrices
// ABOUTME: Scores each column by KL divergence from the row and class baselines
package infoweight

import (
	"fmt"
	"math"
)

const (
	// DefaultPriorStrength smooths observed column distributions toward the baseline.
	DefaultPriorStrength = 1e-4
	// DefaultWeightPower sharpens the final weights.
	DefaultWeightPower = 2.0
	// DefaultSupervisionWeight is the share of the power given to class weights.
	DefaultSupervisionWeight = 0.95
)

// Entry is one nonzero cell of a sparse row.
type Entry struct {
	Col int
	Val float64
}

// Matrix is a row-major sparse matrix of non-negative values.
type Matrix struct {
	Rows [][]Entry
	Cols int
}

// FromDense converts dense rows, keeping only nonzero cells.
func FromDense(rows [][]float64) *Matrix {
	m := &Matrix{Rows: make([][]Entry, len(rows))}
	for i, r := range rows {
		if len(r) > m.Cols {
			m.Cols = len(r)
		}
		for j, v := range r {
			if v != 0 {
				m.Rows[i] = append(m.Rows[i], Entry{Col: j, Val: v})
			}
		}
	}
	return m
}

// Options configures a Transformer.
type Options struct {
	PriorStrength     float64
	WeightPower       float64
	SupervisionWeight float64
}

// DefaultOptions returns the library defaults.
func DefaultOptions() Options {
	return Options{
		PriorStrength:     DefaultPriorStrength,
		WeightPower:       DefaultWeightPower,
		SupervisionWeight: DefaultSupervisionWeight,
	}
}

// Transformer holds fitted per-column information weights.
type Transformer struct {
	opts    Options
	Weights []float64
}

// New creates an unfitted transformer.
func New(opts Options) *Transformer {
	return &Transformer{opts: opts}
}

// Fit computes column weights. With labels the unsupervised weights are
// combined with weights computed over per-class column totals.
func (t *Transformer) Fit(x *Matrix, labels []int) (*Transformer, error) {
	if labels != nil && len(labels) != len(x.Rows) {
		return nil, fmt.Errorf("got %d labels for %d rows", len(labels), len(x.Rows))
	}

	unsupervised := columnDivergence(x, t.opts.PriorStrength)
	if labels == nil {
		t.Weights = rescale(unsupervised, t.opts.WeightPower)
		return t, nil
	}

	power := t.opts.WeightPower
	s := t.opts.SupervisionWeight
	weights := rescale(unsupervised, (1-s)*power)
	supervised := rescale(columnDivergence(aggregateByClass(x, labels), t.opts.PriorStrength), s*power)
	for i := range weights {
		weights[i] *= supervised[i]
		if math.IsNaN(weights[i]) || math.IsInf(weights[i], 0) {
			weights[i] = 0
		}
	}
	t.Weights = weights
	return t, nil
}

// Transform returns a copy of x with every column scaled by its weight.
func (t *Transformer) Transform(x *Matrix) *Matrix {
	out := &Matrix{Rows: make([][]Entry, len(x.Rows)), Cols: x.Cols}
	for i, row := range x.Rows {
		for _, e := range row {
			w := 0.0
			if e.Col < len(t.Weights) {
				w = t.Weights[e.Col]
			}
			if v := e.Val * w; v != 0 {
				out.Rows[i] = append(out.Rows[i], Entry{Col: e.Col, Val: v})
			}
		}
	}
	return out
}

// Score returns the dot product of a dense row with the weights.
func (t *Transformer) Score(row []float64) float64 {
	var s float64
	for j, v := range row {
		if j < len(t.Weights) {
			s += v * t.Weights[j]
		}
	}
	return s
}

// aggregateByClass sums rows sharing a label. Classes are ordered by first
// appearance.
func aggregateByClass(x *Matrix, labels []int) *Matrix {
	classIndex := make(map[int]int)
	var sums []map[int]float64
	for i, row := range x.Rows {
		c, ok := classIndex[labels[i]]
		if !ok {
			c = len(sums)
			classIndex[labels[i]] = c
			sums = append(sums, make(map[int]float64))
		}
		for _, e := range row {
			sums[c][e.Col] += e.Val
		}
	}
	out := &Matrix{Rows: make([][]Entry, len(sums)), Cols: x.Cols}
	for c, m := range sums {
		for col := 0; col < x.Cols; col++ {
			if v, ok := m[col]; ok && v != 0 {
				out.Rows[c] = append(out.Rows[c], Entry{Col: col, Val: v})
			}
		}
	}
	return out
}

// columnDivergence returns, per column, KL(p || b) where b is the normalized
// row-total distribution and p is the column's prior-smoothed distribution
// over rows.
func columnDivergence(x *Matrix, prior float64) []float64 {
	result := make([]float64, x.Cols)
	baseline := make([]float64, len(x.Rows))
	var total float64
	for i, row := range x.Rows {
		for _, e := range row {
			baseline[i] += e.Val
		}
		total += baseline[i]
	}
	if total == 0 {
		return result
	}
	for i := range baseline {
		baseline[i] /= total
	}

	type cell struct {
		row int
		val float64
	}
	columns := make([][]cell, x.Cols)
	for i, row := range x.Rows {
		for _, e := range row {
			columns[e.Col] = append(columns[e.Col], cell{i, e.Val})
		}
	}

	for j, col := range columns {
		var colSum, baselineCovered float64
		for _, c := range col {
			colSum += c.val
		}
		norm := colSum + prior
		if norm <= 0 {
			continue
		}
		var kl float64
		for _, c := range col {
			b := baseline[c.row]
			if b <= 0 {
				continue
			}
			baselineCovered += b
			p := (c.val + prior*b) / norm
			if p > 0 {
				kl += p * math.Log(p/b)
			}
		}
		// Rows with no entry in this column all share the same log ratio.
		if prior > 0 {
			zero := (prior / norm) * math.Log(prior/norm)
			kl += (1 - baselineCovered) * zero
		}
		result[j] = kl
	}
	return result
}

// rescale divides by the mean, clamps at zero and raises to power.
func rescale(values []float64, power float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for i, v := range values {
		w := math.Max(v/mean, 0)
		w = math.Pow(w, power)
		if math.IsNaN(w) || math.IsInf(w, 0) {
			w = 0
		}
		out[i] = w
	}
	return out
}
