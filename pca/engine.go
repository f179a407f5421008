package pca

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-csi/background"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/internal/progress"
	"github.com/cwbudde/algo-csi/linalg"
	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/mat"
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
	return func(c *config) { c.progress = fn }
}

// WithSolver replaces the default gonum-backed solver for both the
// background fit and the decomposition.
func WithSolver(s linalg.Solver) Option {
	return func(c *config) {
		if s != nil {
			c.solver = s
		}
	}
}

// WithOversampling blurs the cube before the background fit; see
// background.WithOversampling.
func WithOversampling(fwhm float64) Option {
	return func(c *config) { c.fwhm = fwhm }
}

// WithFitOptions forwards options to the background fit.
func WithFitOptions(opts ...fit.Option) Option {
	return func(c *config) { c.fitOpts = append(c.fitOpts, opts...) }
}

// Engine runs decompositions of one cube with one background model.
type Engine struct {
	cube  *cube.Cube
	model fit.Model
	cfg   config
}

// New returns an Engine for c and m.
func New(c *cube.Cube, m fit.Model, opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine{cube: c, model: m, cfg: cfg}
	// Validate the shared settings once up front.
	if _, err := e.background(progress.New(context.Background(), nil)); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) background(tr progress.Tracker) (*background.Engine, error) {
	return background.New(e.cube, e.model,
		background.WithProgress(tr.Func()),
		background.WithSolver(e.cfg.solver),
		background.WithOversampling(e.cfg.fwhm),
		background.WithFitOptions(e.cfg.fitOpts...),
	)
}

// Run fits the background over fw, subtracts it from the channels of pw
// and decomposes the result.
func (e *Engine) Run(ctx context.Context, fw, pw cube.Window, opts Options) (*Result, error) {
	c := e.cube
	if err := pw.Validate(c.Channels()); err != nil {
		return nil, fmt.Errorf("pca: PCA window: %w", err)
	}
	if err := fw.Validate(c.Channels()); err != nil {
		return nil, fmt.Errorf("pca: fit window: %w", err)
	}
	if opts.Weights != nil {
		if err := validateWeights(opts.Weights, pw.Len(), c.Pixels()); err != nil {
			return nil, err
		}
	}

	tr := progress.New(ctx, e.cfg.progress)
	bg, err := e.background(tr.Sub(0, 0.3))
	if err != nil {
		return nil, err
	}
	coef, err := bg.Fit(ctx, fw)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}

	raw, err := c.Matrix(pw)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	if opts.Weighted && opts.Weights == nil {
		opts.Weights = ComputeWeights(raw)
	}

	x := c.Calibration().Slice(pw).X
	obs := mat.DenseCopyOf(raw)
	model := make([]float64, c.Pixels())
	build := tr.Sub(0.3, 0.5)
	for k := 0; k < pw.Len(); k++ {
		if err := build.Loop(k, pw.Len()); err != nil {
			return nil, fmt.Errorf("pca: %w", err)
		}
		coef.EvalTo(model, x[k])
		vecmath.ScaleBlockInPlace(model, -1)
		vecmath.AddBlockInPlace(obs.RawRowView(k), model)
	}

	if err := tr.Report(0.5); err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	opts.Center = opts.Center.resolve(c.Kind())
	res, err := decompose(obs, opts, e.cfg.solver)
	if err != nil {
		return nil, err
	}
	res.X = x
	res.height, res.width = c.Height(), c.Width()

	if err := tr.Report(1); err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	return res, nil
}

// Denoise keeps the first n singular components of the raw channels of w
// and returns the reconstructed cube. Channels outside w are zero.
func (e *Engine) Denoise(ctx context.Context, w cube.Window, n int) (*cube.Cube, error) {
	c := e.cube
	if err := w.Validate(c.Channels()); err != nil {
		return nil, fmt.Errorf("pca: denoise window: %w", err)
	}
	if k := min(w.Len(), c.Pixels()); n < 1 || n > k {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidComponents, n, k)
	}

	tr := progress.New(ctx, e.cfg.progress)
	if err := tr.Report(0); err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	raw, err := c.Matrix(w)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	res, err := decompose(raw, Options{}, e.cfg.solver)
	if err != nil {
		return nil, err
	}
	if err := tr.Report(0.5); err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	filtered, err := res.Reconstruct(n)
	if err != nil {
		return nil, err
	}

	pixels := c.Pixels()
	data := make([]float64, c.Channels()*pixels)
	for k := 0; k < w.Len(); k++ {
		copy(data[(w.Start+k)*pixels:], filtered.RawRowView(k))
	}
	out, err := c.WithData(data)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	if err := tr.Report(1); err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	return out, nil
}
