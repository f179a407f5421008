package background

import (
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/internal/progress"
	"github.com/cwbudde/algo-csi/linalg"
)

// Option configures an Engine.
type Option func(*config)

type config struct {
	progress progress.Func
	solver   linalg.Solver
	fwhm     float64
	fitOpts  []fit.Option
}

func defaultConfig() config {
	return config{solver: linalg.NewDense()}
}

// WithProgress sets a sink for completion fractions in [0, 1].
func WithProgress(fn func(float64)) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithSolver replaces the default gonum-backed solver.
func WithSolver(s linalg.Solver) Option {
	return func(c *config) {
		if s != nil {
			c.solver = s
		}
	}
}

// WithOversampling fits the background on a copy of the cube blurred by a
// Gaussian of the given full width at half maximum, in pixels. Zero
// disables it.
func WithOversampling(fwhm float64) Option {
	return func(c *config) {
		c.fwhm = fwhm
	}
}

// WithFitOptions forwards options to every fit.
func WithFitOptions(opts ...fit.Option) Option {
	return func(c *config) {
		c.fitOpts = append(c.fitOpts, opts...)
	}
}
