package fit

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-csi/cube"
	"gonum.org/v1/gonum/mat"
)

// Coefficients holds one fitted (c0, c1) pair per pixel.
type Coefficients struct {
	Model  Model
	C0, C1 []float64
	Params Params

	// Residual is design*coefficients - target in the linearized space,
	// window channels x pixels. Only set when requested and the solve
	// succeeded.
	Residual *mat.Dense

	// Singular is set when the shared solve failed and every pixel fell
	// back to zero coefficients.
	Singular bool
}

// Pixels returns the number of fitted pixels.
func (c *Coefficients) Pixels() int { return len(c.C0) }

// At evaluates pixel p's background at x.
func (c *Coefficients) At(p int, x float64) float64 {
	return models[c.Model].eval(c.C0[p], c.C1[p], x, c.Params)
}

// Curve evaluates pixel p's background at every x.
func (c *Coefficients) Curve(p int, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = c.At(p, xi)
	}
	return out
}

// EvalTo writes every pixel's background at x into dst, which must have one
// element per pixel.
func (c *Coefficients) EvalTo(dst []float64, x float64) {
	eval := models[c.Model].eval
	for p := range dst {
		dst[p] = eval(c.C0[p], c.C1[p], x, c.Params)
	}
}

// Fit fits m to the channels of w. x is the spectral axis and y holds one
// row per channel and one column per pixel.
//
// A singular or otherwise failed solve yields zero coefficients rather than
// an error; errors are returned only for invalid input.
func Fit(m Model, x []float64, y mat.Matrix, w cube.Window, opts ...Option) (*Coefficients, error) {
	if err := validateInput(m, x, y, w); err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return fitModel(m, &cfg, x, y, w), nil
}

func fitModel(m Model, cfg *config, x []float64, y mat.Matrix, w cube.Window) *Coefficients {
	_, pixels := y.Dims()
	out := &Coefficients{
		Model:  m,
		C0:     make([]float64, pixels),
		C1:     make([]float64, pixels),
		Params: Params{LogFloor: cfg.logFloor},
	}

	fn := models[m]
	switch fn.design {
	case designZero:
		return out

	case designOnes:
		design := mat.NewDense(w.Len(), 1, nil)
		for k := 0; k < w.Len(); k++ {
			design.Set(k, 0, 1)
		}
		target := transformTarget(fn, cfg, y, w)
		sol, ok := solve(cfg, out, design, target)
		if !ok {
			return out
		}
		for p := 0; p < pixels; p++ {
			out.C0[p] = sol.At(0, p)
			out.C1[p] = sol.At(0, p)
		}

	case designLinearized:
		design := mat.NewDense(w.Len(), 2, nil)
		for k := 0; k < w.Len(); k++ {
			design.Set(k, 0, 1)
			design.Set(k, 1, fn.fx(x[w.Start+k], cfg.logFloor))
		}
		target := transformTarget(fn, cfg, y, w)
		sol, ok := solve(cfg, out, design, target)
		if !ok {
			return out
		}
		copyRows(out, sol)

	case designPowerBasis:
		r1, r2 := lcplExponents(cfg, x, y, w)
		out.Params.R1, out.Params.R2 = r1, r2
		design := mat.NewDense(w.Len(), 2, nil)
		for k := 0; k < w.Len(); k++ {
			xk := x[w.Start+k]
			design.Set(k, 0, math.Pow(xk, r1))
			design.Set(k, 1, math.Pow(xk, r2))
		}
		target := transformTarget(fn, cfg, y, w)
		sol, ok := solve(cfg, out, design, target)
		if !ok {
			return out
		}
		copyRows(out, sol)
	}

	zeroNonFinite(out)
	return out
}

// lcplExponents fits a power law to every pixel and picks two exponents from
// the distribution of the per-pixel power-law exponents.
func lcplExponents(cfg *config, x []float64, y mat.Matrix, w cube.Window) (r1, r2 float64) {
	power := fitModel(Power, &config{
		solver:   cfg.solver,
		logFloor: cfg.logFloor,
	}, x, y, w)

	exps := append([]float64(nil), power.C1...)
	sort.Float64s(exps)
	n := len(exps)
	r1 = exps[percentileIndex(n, cfg.lower)]
	r2 = math.Min(exps[percentileIndex(n, cfg.upper)], 0)
	return r1, r2
}

func percentileIndex(n int, q float64) int {
	return min(int(float64(n)*q), n-1)
}

func transformTarget(fn modelFuncs, cfg *config, y mat.Matrix, w cube.Window) *mat.Dense {
	_, pixels := y.Dims()
	target := mat.NewDense(w.Len(), pixels, nil)
	for k := 0; k < w.Len(); k++ {
		for p := 0; p < pixels; p++ {
			target.Set(k, p, fn.fy(y.At(w.Start+k, p), cfg.logFloor))
		}
	}
	return target
}

func solve(cfg *config, out *Coefficients, design, target *mat.Dense) (*mat.Dense, bool) {
	sol, err := cfg.solver.SolveLeastSquares(design, target)
	if err != nil {
		out.Singular = true
		return nil, false
	}
	if cfg.residual {
		res := cfg.solver.Mul(design, sol)
		res.Sub(res, target)
		out.Residual = res
	}
	return sol, true
}

func copyRows(out *Coefficients, sol *mat.Dense) {
	mat.Row(out.C0, 0, sol)
	mat.Row(out.C1, 1, sol)
}

func zeroNonFinite(out *Coefficients) {
	for p := range out.C0 {
		if !isFinite(out.C0[p]) || !isFinite(out.C1[p]) {
			out.C0[p], out.C1[p] = 0, 0
		}
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
