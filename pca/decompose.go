package pca

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/linalg"
	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ScreeScale is the display constant c of the scree curve.
const ScreeScale = 1e4

// Center selects the mean removed by mean-centering.
type Center int

const (
	// CenterAuto removes per-pixel means from maps and per-channel means
	// from line scans and single spectra.
	CenterAuto Center = iota
	// CenterPixels removes the mean of every column.
	CenterPixels
	// CenterChannels removes the mean of every row.
	CenterChannels
)

func (c Center) String() string {
	switch c {
	case CenterAuto:
		return "auto"
	case CenterPixels:
		return "pixels"
	case CenterChannels:
		return "channels"
	default:
		return fmt.Sprintf("Center(%d)", int(c))
	}
}

// resolve maps CenterAuto onto a concrete axis for k.
func (c Center) resolve(k cube.Kind) Center {
	if c != CenterAuto {
		return c
	}
	if k == cube.KindMap {
		return CenterPixels
	}
	return CenterChannels
}

// Options selects the preprocessing of a decomposition.
type Options struct {
	Weighted     bool
	MeanCentered bool
	Center       Center

	// Weights overrides the weights of a weighted decomposition. When nil
	// they are computed from the raw (unsubtracted) data.
	Weights *Weights
}

// Result holds a decomposition in physical units.
type Result struct {
	// Values are the singular values in descending order.
	Values []float64
	Scree  []float64

	// U holds one component spectrum per column, V one component map per
	// column.
	U *mat.Dense
	V *mat.Dense

	// X is the spectral axis of the rows of U, if known.
	X []float64

	// Weights is set for weighted decompositions.
	Weights *Weights

	height, width int
}

// Components returns the number of components.
func (r *Result) Components() int { return len(r.Values) }

// Spectrum returns component i sampled over the PCA window.
func (r *Result) Spectrum(i int) []float64 {
	return mat.Col(nil, i, r.U)
}

// Map returns component i as a spatial concentration map.
func (r *Result) Map(i int) *cube.Map2D {
	return cube.MapFrom(r.height, r.width, mat.Col(nil, i, r.V))
}

// Reconstruct rebuilds the (weighted-back, possibly centered) observation
// matrix from the first n components.
func (r *Result) Reconstruct(n int) (*mat.Dense, error) {
	if n < 1 || n > r.Components() {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidComponents, n, r.Components())
	}
	rows, _ := r.U.Dims()
	cols, _ := r.V.Dims()
	us := mat.DenseCopyOf(r.U.Slice(0, rows, 0, n))
	for j := 0; j < rows; j++ {
		vecmath.MulBlockInPlace(us.RawRowView(j), r.Values[:n])
	}
	var out mat.Dense
	out.Mul(us, r.V.Slice(0, cols, 0, n).T())
	return &out, nil
}

// Scree returns ln(1 + ScreeScale*v/max) for every singular value. An
// all-zero spectrum yields zeros.
func Scree(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	sMax := floats.Max(values)
	if sMax <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = math.Log1p(ScreeScale * v / sMax)
	}
	return out
}

// Decompose runs the weighted, centered decomposition of obs, which has
// one row per channel and one column per pixel. When opts.Weighted is set
// and opts.Weights is nil the weights are computed from obs itself.
// CenterAuto removes per-channel means. A nil solver selects linalg.Dense.
func Decompose(obs mat.Matrix, opts Options, solver linalg.Solver) (*Result, error) {
	rows, cols := obs.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("pca: %w: empty observation matrix", cube.ErrInvalidWindow)
	}
	if opts.Weighted && opts.Weights == nil {
		opts.Weights = ComputeWeights(obs)
	}
	if opts.Center == CenterAuto {
		opts.Center = CenterChannels
	}
	if solver == nil {
		solver = linalg.NewDense()
	}
	res, err := decompose(mat.DenseCopyOf(obs), opts, solver)
	if err != nil {
		return nil, err
	}
	res.height, res.width = 1, cols
	return res, nil
}

// decompose works in place on obs.
func decompose(obs *mat.Dense, opts Options, solver linalg.Solver) (*Result, error) {
	rows, cols := obs.Dims()
	if opts.Weighted {
		if err := validateWeights(opts.Weights, rows, cols); err != nil {
			return nil, err
		}
		opts.Weights.apply(obs)
	}
	if opts.MeanCentered {
		center(obs, opts.Center)
	}

	svd, err := solver.SVD(obs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecompositionFailure, err)
	}
	if opts.Weighted {
		opts.Weights.unapply(svd.U, svd.V)
	}

	res := &Result{
		Values: svd.S,
		Scree:  Scree(svd.S),
		U:      svd.U,
		V:      svd.V,
	}
	if opts.Weighted {
		res.Weights = opts.Weights
	}
	return res, nil
}

func center(obs *mat.Dense, axis Center) {
	rows, cols := obs.Dims()
	switch axis {
	case CenterChannels:
		for r := 0; r < rows; r++ {
			row := obs.RawRowView(r)
			mean := stat.Mean(row, nil)
			for c := range row {
				row[c] -= mean
			}
		}
	case CenterPixels:
		means := make([]float64, cols)
		for r := 0; r < rows; r++ {
			vecmath.AddBlockInPlace(means, obs.RawRowView(r))
		}
		vecmath.ScaleBlockInPlace(means, -1/float64(rows))
		for r := 0; r < rows; r++ {
			vecmath.AddBlockInPlace(obs.RawRowView(r), means)
		}
	}
}
