package pca

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// meanFloor bounds |mean| from below before the inverse square root.
const meanFloor = 1e-12

// Weights holds the per-channel (Rows) and per-pixel (Cols) weights of a
// weighted decomposition.
type Weights struct {
	Rows []float64
	Cols []float64
}

// Uniform returns weights of 1/rows and 1/cols.
func Uniform(rows, cols int) *Weights {
	w := &Weights{Rows: make([]float64, rows), Cols: make([]float64, cols)}
	for i := range w.Rows {
		w.Rows[i] = 1 / float64(rows)
	}
	for i := range w.Cols {
		w.Cols[i] = 1 / float64(cols)
	}
	return w
}

// ComputeWeights derives g[r] = |mean of row r|^(-1/2) and
// h[c] = |mean of column c|^(-1/2) from raw, each normalized to sum 1.
func ComputeWeights(raw mat.Matrix) *Weights {
	rows, cols := raw.Dims()
	w := &Weights{Rows: make([]float64, rows), Cols: make([]float64, cols)}

	row := make([]float64, cols)
	for r := 0; r < rows; r++ {
		mat.Row(row, r, raw)
		w.Rows[r] = inverseSqrtMean(stat.Mean(row, nil))
	}
	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		mat.Col(col, c, raw)
		w.Cols[c] = inverseSqrtMean(stat.Mean(col, nil))
	}

	vecmath.ScaleBlockInPlace(w.Rows, 1/vecmath.Sum(w.Rows))
	vecmath.ScaleBlockInPlace(w.Cols, 1/vecmath.Sum(w.Cols))
	return w
}

func inverseSqrtMean(mean float64) float64 {
	return 1 / math.Sqrt(math.Max(math.Abs(mean), meanFloor))
}

// apply scales obs[r,c] by g[r]*h[c] in place.
func (w *Weights) apply(obs *mat.Dense) {
	rows, _ := obs.Dims()
	for r := 0; r < rows; r++ {
		row := obs.RawRowView(r)
		vecmath.ScaleBlockInPlace(row, w.Rows[r])
		vecmath.MulBlockInPlace(row, w.Cols)
	}
}

// unapply divides U rows by g and V rows by h.
func (w *Weights) unapply(u, v *mat.Dense) {
	ur, _ := u.Dims()
	for r := 0; r < ur; r++ {
		vecmath.ScaleBlockInPlace(u.RawRowView(r), 1/w.Rows[r])
	}
	vr, _ := v.Dims()
	for c := 0; c < vr; c++ {
		vecmath.ScaleBlockInPlace(v.RawRowView(c), 1/w.Cols[c])
	}
}
