package background

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-csi/blur"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/internal/progress"
)

// ErrInvalidOversampling is returned for a negative or non-finite FWHM.
var ErrInvalidOversampling = errors.New("background: oversampling FWHM must be finite and non-negative")

// Engine fits backgrounds of one model on one cube. It holds no mutable
// state and may be shared between goroutines.
type Engine struct {
	cube  *cube.Cube
	model fit.Model
	cfg   config
}

// New returns an Engine for c and m.
func New(c *cube.Cube, m fit.Model, opts ...Option) (*Engine, error) {
	if c == nil {
		return nil, fmt.Errorf("background: %w", cube.ErrEmptyCube)
	}
	if !m.Valid() {
		return nil, fmt.Errorf("background: %w: %d", fit.ErrUnknownModel, int(m))
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if math.IsNaN(cfg.fwhm) || math.IsInf(cfg.fwhm, 0) || cfg.fwhm < 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidOversampling, cfg.fwhm)
	}
	return &Engine{cube: c, model: m, cfg: cfg}, nil
}

// Cube returns the cube the engine operates on.
func (e *Engine) Cube() *cube.Cube { return e.cube }

// Model returns the background model.
func (e *Engine) Model() fit.Model { return e.model }

// Oversampling returns the blur FWHM applied before fitting.
func (e *Engine) Oversampling() float64 { return e.cfg.fwhm }

func (e *Engine) tracker(ctx context.Context) progress.Tracker {
	return progress.New(ctx, e.cfg.progress)
}

func (e *Engine) validate(name string, w cube.Window) error {
	if err := w.Validate(e.cube.Channels()); err != nil {
		return fmt.Errorf("background: %s window: %w", name, err)
	}
	return nil
}

// Fit fits the model over w, on the blurred cube when oversampling is set.
func (e *Engine) Fit(ctx context.Context, w cube.Window) (*fit.Coefficients, error) {
	if err := e.validate("fit", w); err != nil {
		return nil, err
	}
	return e.fit(e.tracker(ctx), w, true, false)
}

// fit reports into tr. oversample selects the blurred cube as the fit
// source.
func (e *Engine) fit(tr progress.Tracker, w cube.Window, oversample, residual bool) (*fit.Coefficients, error) {
	src := e.cube
	if err := tr.Report(0); err != nil {
		return nil, wrapCancel(err)
	}
	if oversample && e.cfg.fwhm > 0 {
		blurred, err := blur.Cube(src, blur.SigmaFromFWHM(e.cfg.fwhm))
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		src = blurred
		if err := tr.Report(0.5); err != nil {
			return nil, wrapCancel(err)
		}
	}

	y, err := src.Matrix(w)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	x := e.cube.Calibration().Slice(w).X

	opts := append([]fit.Option{fit.WithSolver(e.cfg.solver)}, e.cfg.fitOpts...)
	if residual {
		opts = append(opts, fit.WithResidual())
	}
	coef, err := fit.Fit(e.model, x, y, cube.Window{Start: 0, End: w.Len()}, opts...)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	if err := tr.Report(1); err != nil {
		return nil, wrapCancel(err)
	}
	return coef, nil
}

func wrapCancel(err error) error {
	return fmt.Errorf("background: %w", err)
}
