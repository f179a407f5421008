package fit

import (
	"fmt"
	"math"
	"strings"
)

// Model selects a background functional form.
type Model int

const (
	NoFit Model = iota
	Constant
	Linear
	Exponential
	Power
	LCPL
)

// Defaults for the empirical constants of the log-space and LCPL fits.
const (
	DefaultLogFloor        = 1e-3
	DefaultLowerPercentile = 0.2
	DefaultUpperPercentile = 0.8
)

// Params carries the per-fit state an evaluator needs beyond the two
// coefficients.
type Params struct {
	R1, R2   float64 // LCPL exponents
	LogFloor float64
}

// DefaultParams returns the parameters used by Model.Eval.
func DefaultParams() Params {
	return Params{LogFloor: DefaultLogFloor}
}

type designKind int

const (
	designZero designKind = iota
	designOnes
	designLinearized
	designPowerBasis
)

type modelFuncs struct {
	name   string
	design designKind
	fx     func(x, floor float64) float64
	fy     func(y, floor float64) float64
	eval   func(c0, c1, x float64, p Params) float64
}

func identity(v, _ float64) float64 { return v }
func zero(_, _ float64) float64     { return 0 }
func logFloor(v, floor float64) float64 {
	return math.Log(math.Max(floor, v))
}

var models = [...]modelFuncs{
	NoFit: {
		name:   "none",
		design: designZero,
		fx:     zero,
		fy:     zero,
		eval:   func(_, _, _ float64, _ Params) float64 { return 0 },
	},
	Constant: {
		name:   "constant",
		design: designOnes,
		fx:     zero,
		fy:     identity,
		eval:   func(c0, _, _ float64, _ Params) float64 { return c0 },
	},
	Linear: {
		name:   "linear",
		design: designLinearized,
		fx:     identity,
		fy:     identity,
		eval:   func(c0, c1, x float64, _ Params) float64 { return c0 + c1*x },
	},
	Exponential: {
		name:   "exponential",
		design: designLinearized,
		fx:     identity,
		fy:     logFloor,
		eval: func(c0, c1, x float64, _ Params) float64 {
			if c0 == 0 && c1 == 0 {
				return 0
			}
			return math.Exp(c0 + c1*x)
		},
	},
	Power: {
		name:   "power",
		design: designLinearized,
		fx:     logFloor,
		fy:     logFloor,
		eval: func(c0, c1, x float64, p Params) float64 {
			if c0 == 0 && c1 == 0 {
				return 0
			}
			return math.Exp(c0 + c1*logFloor(x, p.LogFloor))
		},
	},
	LCPL: {
		name:   "lcpl",
		design: designPowerBasis,
		fx:     zero,
		fy:     identity,
		eval: func(c0, c1, x float64, p Params) float64 {
			if c0 == 0 && c1 == 0 {
				return 0
			}
			return c0*math.Pow(x, p.R1) + c1*math.Pow(x, p.R2)
		},
	},
}

// Valid reports whether m names a known model.
func (m Model) Valid() bool {
	return m >= 0 && int(m) < len(models)
}

func (m Model) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Model(%d)", int(m))
	}
	return models[m].name
}

// Eval evaluates the background with coefficients (c0, c1) at x using
// DefaultParams. LCPL needs its exponents; use Coefficients.At for LCPL fits.
func (m Model) Eval(c0, c1, x float64) float64 {
	return m.EvalParams(c0, c1, x, DefaultParams())
}

// EvalParams evaluates the background at x with explicit parameters.
func (m Model) EvalParams(c0, c1, x float64, p Params) float64 {
	return models[m].eval(c0, c1, x, p)
}

// Fx applies the model's x-axis linearization.
func (m Model) Fx(x float64) float64 { return models[m].fx(x, DefaultLogFloor) }

// Fy applies the model's intensity linearization.
func (m Model) Fy(y float64) float64 { return models[m].fy(y, DefaultLogFloor) }

// Models lists every model in declaration order.
func Models() []Model {
	out := make([]Model, len(models))
	for i := range out {
		out[i] = Model(i)
	}
	return out
}

// ParseModel maps a case-insensitive name to a Model.
func ParseModel(name string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none", "nofit", "no-fit":
		return NoFit, nil
	case "constant", "const":
		return Constant, nil
	case "linear":
		return Linear, nil
	case "exponential", "exp":
		return Exponential, nil
	case "power", "powerlaw", "power-law":
		return Power, nil
	case "lcpl":
		return LCPL, nil
	}
	return NoFit, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
