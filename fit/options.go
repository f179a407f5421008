package fit

import "github.com/cwbudde/algo-csi/linalg"

// Option configures a fit.
type Option func(*config)

type config struct {
	solver   linalg.Solver
	logFloor float64
	lower    float64
	upper    float64
	residual bool
}

func defaultConfig() config {
	return config{
		solver:   linalg.NewDense(),
		logFloor: DefaultLogFloor,
		lower:    DefaultLowerPercentile,
		upper:    DefaultUpperPercentile,
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

// WithLogFloor sets the floor applied before taking logarithms in the
// exponential and power-law fits.
func WithLogFloor(v float64) Option {
	return func(c *config) {
		if v > 0 {
			c.logFloor = v
		}
	}
}

// WithPercentiles sets the percentiles of the per-pixel power-law exponent
// distribution used as the two fixed LCPL exponents.
func WithPercentiles(lower, upper float64) Option {
	return func(c *config) {
		if lower >= 0 && lower <= upper && upper <= 1 {
			c.lower = lower
			c.upper = upper
		}
	}
}

// WithResidual requests the linearized residual matrix.
func WithResidual() Option {
	return func(c *config) {
		c.residual = true
	}
}
