package background

import (
	"context"

	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// ModelFitResult holds the per-pixel outputs of a model fit.
type ModelFitResult struct {
	// Scale is the amplitude a that best maps the smoothed background
	// model onto the raw fit-window signal.
	Scale *cube.Map2D
	// Edge is the sum of raw - a*model over the edge window.
	Edge *cube.Map2D
	// Coefficients is the background fitted on the smoothed cube.
	Coefficients *fit.Coefficients
}

// ModelFit fits the background shape over fw on the blurred cube, then
// re-solves a single amplitude per pixel against the unblurred cube over
// the same window and integrates the scaled-background-subtracted signal
// over ew. Pixels whose model vanishes over fw get scale 0 and an edge
// equal to the raw sum.
func (e *Engine) ModelFit(ctx context.Context, fw, ew cube.Window) (*ModelFitResult, error) {
	if err := e.validate("fit", fw); err != nil {
		return nil, err
	}
	if err := e.validate("edge", ew); err != nil {
		return nil, err
	}
	tr := e.tracker(ctx)
	coef, err := e.fit(tr.Sub(0, 0.5), fw, true, false)
	if err != nil {
		return nil, err
	}

	c := e.cube
	n := c.Pixels()
	x := c.Calibration().X
	model := make([]float64, n)
	tmp := make([]float64, n)

	// Normal equations of the one-parameter fit, accumulated channel by
	// channel: scale = (m.y) / (m.m).
	mm := make([]float64, n)
	my := make([]float64, n)
	solve := tr.Sub(0.5, 0.75)
	for k := fw.Start; k < fw.End; k++ {
		if err := solve.Loop(k-fw.Start, fw.Len()); err != nil {
			return nil, wrapCancel(err)
		}
		coef.EvalTo(model, x[k])
		vecmath.MulBlock(tmp, model, model)
		vecmath.AddBlockInPlace(mm, tmp)
		vecmath.MulBlock(tmp, model, c.Raw(k))
		vecmath.AddBlockInPlace(my, tmp)
	}
	scale := make([]float64, n)
	for p := range scale {
		if mm[p] != 0 {
			scale[p] = my[p] / mm[p]
		}
	}

	edge := make([]float64, n)
	sum := tr.Sub(0.75, 1)
	for k := ew.Start; k < ew.End; k++ {
		if err := sum.Loop(k-ew.Start, ew.Len()); err != nil {
			return nil, wrapCancel(err)
		}
		coef.EvalTo(model, x[k])
		vecmath.MulBlockInPlace(model, scale)
		vecmath.ScaleBlockInPlace(model, -1)
		vecmath.AddBlockInPlace(edge, c.Raw(k))
		vecmath.AddBlockInPlace(edge, model)
	}

	if err := tr.Report(1); err != nil {
		return nil, wrapCancel(err)
	}
	return &ModelFitResult{
		Scale:        cube.MapFrom(c.Height(), c.Width(), scale),
		Edge:         cube.MapFrom(c.Height(), c.Width(), edge),
		Coefficients: coef,
	}, nil
}
