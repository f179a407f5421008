package background

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-csi/cube"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// hcmEpsilon replaces signal values closer to zero in HCM integration.
const hcmEpsilon = 1e-12

// Subtract returns the cube with the background fitted over w removed.
// Channels below w.Start are zero; every channel from w.Start up holds
// raw minus the evaluated background.
func (e *Engine) Subtract(ctx context.Context, w cube.Window) (*cube.Cube, error) {
	if err := e.validate("fit", w); err != nil {
		return nil, err
	}
	tr := e.tracker(ctx)
	coef, err := e.fit(tr.Sub(0, 0.5), w, true, false)
	if err != nil {
		return nil, err
	}

	c := e.cube
	n := c.Pixels()
	x := c.Calibration().X
	data := make([]float64, c.Channels()*n)
	bg := make([]float64, n)
	loop := tr.Sub(0.5, 1)
	for k := w.Start; k < c.Channels(); k++ {
		if err := loop.Loop(k-w.Start, c.Channels()-w.Start); err != nil {
			return nil, wrapCancel(err)
		}
		coef.EvalTo(bg, x[k])
		vecmath.ScaleBlockInPlace(bg, -1)
		vecmath.AddBlock(data[k*n:(k+1)*n], c.Raw(k), bg)
	}

	out, err := c.WithData(data)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	if err := tr.Report(1); err != nil {
		return nil, wrapCancel(err)
	}
	return out, nil
}

// Integrate sums the background-subtracted signal over iw with the
// background fitted over fw on the unblurred cube.
//
// With s = iw.Start and e = iw.Last(), the two endpoint channels s and e
// are added in full and the interior contributes channels s+1 through e-2.
// Channel e-1 (iw.End-2) is therefore never summed in windows of four or
// more channels. Windows with e-s < 3 have no interior terms; a one-channel
// window counts its channel at both endpoints.
func (e *Engine) Integrate(ctx context.Context, fw, iw cube.Window) (*cube.Map2D, error) {
	return e.integrate(ctx, fw, iw, func(acc, raw, bg []float64, _ bool) {
		vecmath.ScaleBlockInPlace(bg, -1)
		vecmath.AddBlockInPlace(bg, raw)
		vecmath.AddBlockInPlace(acc, bg)
	})
}

// HCMIntegrate accumulates (f-b)^2/f over the same channels as Integrate,
// where f is the raw signal and b the background. Endpoint terms are
// halved. Signals with |f| below a small epsilon are replaced by it.
func (e *Engine) HCMIntegrate(ctx context.Context, fw, iw cube.Window) (*cube.Map2D, error) {
	return e.integrate(ctx, fw, iw, func(acc, raw, bg []float64, endpoint bool) {
		scale := 1.0
		if endpoint {
			scale = 0.5
		}
		for p, f := range raw {
			if math.Abs(f) < hcmEpsilon {
				f = hcmEpsilon
			}
			s := f - bg[p]
			acc[p] += scale * s * s / f
		}
	})
}

// accumulateFunc adds one channel's contribution to acc. bg may be
// overwritten.
type accumulateFunc func(acc, raw, bg []float64, endpoint bool)

func (e *Engine) integrate(ctx context.Context, fw, iw cube.Window, add accumulateFunc) (*cube.Map2D, error) {
	if err := e.validate("fit", fw); err != nil {
		return nil, err
	}
	if err := e.validate("integration", iw); err != nil {
		return nil, err
	}
	tr := e.tracker(ctx)
	coef, err := e.fit(tr.Sub(0, 0.5), fw, false, false)
	if err != nil {
		return nil, err
	}

	c := e.cube
	x := c.Calibration().X
	acc := make([]float64, c.Pixels())
	bg := make([]float64, c.Pixels())
	channel := func(k int, endpoint bool) {
		coef.EvalTo(bg, x[k])
		add(acc, c.Raw(k), bg, endpoint)
	}

	s, last := iw.Start, iw.Last()
	channel(s, true)
	channel(last, true)
	loop := tr.Sub(0.5, 1)
	for k := s + 1; k <= last-2; k++ {
		if err := loop.Loop(k-s, last-s); err != nil {
			return nil, wrapCancel(err)
		}
		channel(k, false)
	}

	if err := tr.Report(1); err != nil {
		return nil, wrapCancel(err)
	}
	return cube.MapFrom(c.Height(), c.Width(), acc), nil
}

// Residual returns exp of the linearized fit residual for the interior
// channels of w, that is w.Start+1 through w.End-2. The background is
// fitted as in Subtract.
func (e *Engine) Residual(ctx context.Context, w cube.Window) (*cube.Cube, error) {
	if err := e.validate("fit", w); err != nil {
		return nil, err
	}
	if w.Len() < 3 {
		return nil, fmt.Errorf("background: %w: residual of %v has no interior channels", cube.ErrInvalidWindow, w)
	}
	tr := e.tracker(ctx)
	coef, err := e.fit(tr.Sub(0, 0.8), w, true, true)
	if err != nil {
		return nil, err
	}

	interior := cube.Window{Start: w.Start + 1, End: w.End - 1}
	n := e.cube.Pixels()
	data := make([]float64, interior.Len()*n)
	if coef.Residual != nil {
		for k := 0; k < interior.Len(); k++ {
			row := data[k*n : (k+1)*n]
			for p := range row {
				row[p] = math.Exp(coef.Residual.At(k+1, p))
			}
		}
	}

	out, err := e.cube.Reshape(data, e.cube.Calibration().Slice(interior))
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	if err := tr.Report(1); err != nil {
		return nil, wrapCancel(err)
	}
	return out, nil
}
