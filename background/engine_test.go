package background

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-csi/blur"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/internal/testutil"
)

// peakCube builds a linear background per pixel with peak added to every
// pixel at channel peakAt.
func peakCube(t *testing.T, channels, height, width, peakAt int, peak, offset float64) *cube.Cube {
	t.Helper()
	cal := testutil.AffineCalibration(t, channels, 1, 0)
	bg := testutil.LinearBackground(10+offset, 2, 1)
	return testutil.Synthetic(t, channels, height, width, cal, func(p int, x float64) float64 {
		v := bg(p, x)
		if int(x) == peakAt {
			v += peak
		}
		return v
	})
}

func newEngine(t *testing.T, c *cube.Cube, m fit.Model, opts ...Option) *Engine {
	t.Helper()
	e, err := New(c, m, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestSubtractPointScenario(t *testing.T) {
	cal := testutil.AffineCalibration(t, 10, 1, 0)
	c := testutil.Synthetic(t, 10, 1, 1, cal, func(_ int, x float64) float64 { return 3 + 2*x })
	e := newEngine(t, c, fit.Linear)

	coef, err := e.Fit(context.Background(), cube.Window{Start: 0, End: 10})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireNearlyEqual(t, "c0", coef.C0[0], 3, 1e-10)
	testutil.RequireNearlyEqual(t, "c1", coef.C1[0], 2, 1e-10)

	sub, err := e.Subtract(context.Background(), cube.Window{Start: 0, End: 10})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t, sub.Data(), make([]float64, 10), 1e-9)
}

func TestSubtractRoundTrip(t *testing.T) {
	for _, m := range []fit.Model{fit.Constant, fit.Linear, fit.Exponential, fit.Power, fit.LCPL} {
		t.Run(m.String(), func(t *testing.T) {
			cal := testutil.AffineCalibration(t, 16, 2, 50)
			f := testutil.WithNoise(testutil.PowerLaw(1e5, -1.5), 7, 0.05)
			c := testutil.Synthetic(t, 16, 3, 4, cal, f)
			w := cube.Window{Start: 3, End: 11}
			e := newEngine(t, c, m)

			sub, err := e.Subtract(context.Background(), w)
			if err != nil {
				t.Fatal(err)
			}
			coef, err := e.Fit(context.Background(), w)
			if err != nil {
				t.Fatal(err)
			}

			x := c.X()
			for k := 0; k < c.Channels(); k++ {
				for p := 0; p < c.Pixels(); p++ {
					got := sub.Pixel(k, p)
					if k < w.Start {
						if got != 0 {
							t.Fatalf("channel %d below window: %g", k, got)
						}
						continue
					}
					restored := got + coef.At(p, x[k])
					if math.Abs(restored-c.Pixel(k, p)) > 1e-9*math.Max(1, math.Abs(c.Pixel(k, p))) {
						t.Fatalf("k=%d p=%d: restored %g, raw %g", k, p, restored, c.Pixel(k, p))
					}
				}
			}
		})
	}
}

func TestIntegratePeakScenario(t *testing.T) {
	c := peakCube(t, 5, 2, 2, 2, 100, 0)
	e := newEngine(t, c, fit.Linear)

	got, err := e.Integrate(context.Background(), cube.Window{Start: 3, End: 5}, cube.Window{Start: 0, End: 5})
	if err != nil {
		t.Fatal(err)
	}
	if got.Height != 2 || got.Width != 2 {
		t.Fatalf("map %dx%d, want 2x2", got.Height, got.Width)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, []float64{100, 100, 100, 100}, 1e-9)
}

func TestIntegrateEndpointRule(t *testing.T) {
	// Channel values are 1..8 and NoFit keeps them unsubtracted.
	cal := testutil.AffineCalibration(t, 8, 1, 0)
	c := testutil.Synthetic(t, 8, 1, 1, cal, func(_ int, x float64) float64 { return x + 1 })
	e := newEngine(t, c, fit.NoFit)
	fw := cube.Window{Start: 0, End: 8}

	tests := []struct {
		name string
		iw   cube.Window
		want float64
	}{
		{name: "wide", iw: cube.Window{Start: 1, End: 7}, want: 2 + 7 + 3 + 4 + 5},
		{name: "three channels", iw: cube.Window{Start: 2, End: 5}, want: 3 + 5},
		{name: "two channels", iw: cube.Window{Start: 2, End: 4}, want: 3 + 4},
		{name: "single channel", iw: cube.Window{Start: 4, End: 5}, want: 5 + 5},
		{name: "whole cube", iw: cube.Window{Start: 0, End: 8}, want: 1 + 8 + 2 + 3 + 4 + 5 + 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Integrate(context.Background(), fw, tt.iw)
			if err != nil {
				t.Fatal(err)
			}
			testutil.RequireNearlyEqual(t, "integral", got.Data[0], tt.want, 1e-12)
		})
	}
}

func TestIntegrateBackgroundInvariance(t *testing.T) {
	for _, m := range []fit.Model{fit.Constant, fit.Linear} {
		t.Run(m.String(), func(t *testing.T) {
			fw := cube.Window{Start: 6, End: 9}
			iw := cube.Window{Start: 1, End: 6}
			// Constant backgrounds for the constant model, linear otherwise.
			slope := 2.0
			if m == fit.Constant {
				slope = 0
			}
			build := func(offset float64) *cube.Cube {
				cal := testutil.AffineCalibration(t, 9, 1, 0)
				return testutil.Synthetic(t, 9, 2, 3, cal, func(p int, x float64) float64 {
					v := 20 + offset + float64(p) + slope*x
					if x == 3 {
						v += 40
					}
					return v
				})
			}

			base, err := newEngine(t, build(0), m).Integrate(context.Background(), fw, iw)
			if err != nil {
				t.Fatal(err)
			}
			shifted, err := newEngine(t, build(55), m).Integrate(context.Background(), fw, iw)
			if err != nil {
				t.Fatal(err)
			}
			testutil.RequireSliceNearlyEqual(t, shifted.Data, base.Data, 1e-9)
			testutil.RequireNearlyEqual(t, "peak", base.Data[0], 40, 1e-9)
		})
	}
}

func TestHCMIntegrate(t *testing.T) {
	c := peakCube(t, 5, 1, 2, 2, 100, 0)
	e := newEngine(t, c, fit.Linear)

	got, err := e.HCMIntegrate(context.Background(), cube.Window{Start: 3, End: 5}, cube.Window{Start: 0, End: 5})
	if err != nil {
		t.Fatal(err)
	}
	for p := 0; p < 2; p++ {
		f := c.Pixel(2, p)
		testutil.RequireNearlyEqual(t, "interior", got.Data[p], 100*100/f, 1e-9)
	}

	// A peak on the first endpoint counts half.
	c = peakCube(t, 5, 1, 1, 0, 100, 0)
	got, err = newEngine(t, c, fit.Linear).HCMIntegrate(context.Background(),
		cube.Window{Start: 3, End: 5}, cube.Window{Start: 0, End: 5})
	if err != nil {
		t.Fatal(err)
	}
	f := c.Pixel(0, 0)
	testutil.RequireNearlyEqual(t, "endpoint", got.Data[0], 100*100/(2*f), 1e-9)
}

func TestHCMIntegrateZeroSignal(t *testing.T) {
	cal := testutil.AffineCalibration(t, 6, 1, 0)
	c := testutil.Synthetic(t, 6, 1, 1, cal, func(int, float64) float64 { return 0 })
	got, err := newEngine(t, c, fit.NoFit).HCMIntegrate(context.Background(),
		cube.Window{Start: 0, End: 6}, cube.Window{Start: 0, End: 6})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireFinite(t, got.Data)
}

func TestModelFit(t *testing.T) {
	const peakAt = 12
	cal := testutil.AffineCalibration(t, 16, 1, 20)
	bg := testutil.PowerLaw(5e4, -2)
	c := testutil.Synthetic(t, 16, 4, 5, cal, func(p int, x float64) float64 {
		v := bg(p, x)
		if x == 20+peakAt {
			v += 7
		}
		return v
	})
	fw := cube.Window{Start: 0, End: 10}
	ew := cube.Window{Start: 11, End: 15}

	for _, fwhm := range []float64{0, 2} {
		e := newEngine(t, c, fit.Power, WithOversampling(fwhm))
		res, err := e.ModelFit(context.Background(), fw, ew)
		if err != nil {
			t.Fatalf("fwhm %g: %v", fwhm, err)
		}
		testutil.RequireFinite(t, res.Scale.Data)
		for p := range res.Edge.Data {
			testutil.RequireNearlyEqual(t, "edge", res.Edge.Data[p], 7, 1e-6)
		}
		if fwhm == 0 {
			for p := range res.Scale.Data {
				testutil.RequireNearlyEqual(t, "scale", res.Scale.Data[p], 1, 1e-9)
			}
		}
	}
}

func TestModelFitNoFit(t *testing.T) {
	c := peakCube(t, 6, 1, 2, 4, 10, 0)
	res, err := newEngine(t, c, fit.NoFit).ModelFit(context.Background(),
		cube.Window{Start: 0, End: 3}, cube.Window{Start: 3, End: 6})
	if err != nil {
		t.Fatal(err)
	}
	for p := 0; p < 2; p++ {
		if res.Scale.Data[p] != 0 {
			t.Fatalf("scale = %g, want 0", res.Scale.Data[p])
		}
		want := c.Pixel(3, p) + c.Pixel(4, p) + c.Pixel(5, p)
		testutil.RequireNearlyEqual(t, "edge", res.Edge.Data[p], want, 1e-12)
	}
}

func TestResidual(t *testing.T) {
	cal := testutil.AffineCalibration(t, 10, 1, 0)
	c := testutil.Synthetic(t, 10, 2, 2, cal, testutil.Exponential(3, -0.2))
	e := newEngine(t, c, fit.Exponential)

	res, err := e.Residual(context.Background(), cube.Window{Start: 2, End: 8})
	if err != nil {
		t.Fatal(err)
	}
	if res.Channels() != 4 {
		t.Fatalf("channels = %d, want 4", res.Channels())
	}
	testutil.RequireSliceNearlyEqual(t, res.X(), []float64{3, 4, 5, 6}, 0)
	for _, v := range res.Data() {
		testutil.RequireNearlyEqual(t, "exp(residual)", v, 1, 1e-9)
	}

	if _, err := e.Residual(context.Background(), cube.Window{Start: 2, End: 4}); !errors.Is(err, cube.ErrInvalidWindow) {
		t.Fatalf("err = %v, want ErrInvalidWindow", err)
	}
}

func TestEngineErrors(t *testing.T) {
	c := peakCube(t, 5, 1, 1, 2, 1, 0)

	if _, err := New(nil, fit.Linear); !errors.Is(err, cube.ErrEmptyCube) {
		t.Fatalf("nil cube err = %v", err)
	}
	if _, err := New(c, fit.Model(17)); !errors.Is(err, fit.ErrUnknownModel) {
		t.Fatalf("model err = %v", err)
	}
	for _, fwhm := range []float64{-1, math.NaN()} {
		if _, err := New(c, fit.Linear, WithOversampling(fwhm)); !errors.Is(err, ErrInvalidOversampling) {
			t.Fatalf("fwhm %g err = %v", fwhm, err)
		}
	}

	e := newEngine(t, c, fit.Linear)
	ctx := context.Background()
	good := cube.Window{Start: 0, End: 5}
	bad := cube.Window{Start: 3, End: 9}

	calls := []struct {
		name string
		run  func() error
	}{
		{"fit", func() error { _, err := e.Fit(ctx, bad); return err }},
		{"subtract", func() error { _, err := e.Subtract(ctx, bad); return err }},
		{"integrate fit", func() error { _, err := e.Integrate(ctx, bad, good); return err }},
		{"integrate window", func() error { _, err := e.Integrate(ctx, good, bad); return err }},
		{"hcm", func() error { _, err := e.HCMIntegrate(ctx, good, cube.Window{Start: 2, End: 2}); return err }},
		{"model fit", func() error { _, err := e.ModelFit(ctx, good, bad); return err }},
		{"residual", func() error { _, err := e.Residual(ctx, bad); return err }},
	}
	for _, tt := range calls {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, cube.ErrInvalidWindow) {
				t.Fatalf("err = %v, want ErrInvalidWindow", err)
			}
		})
	}
}

func TestCancellation(t *testing.T) {
	c := peakCube(t, 8, 3, 3, 4, 5, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newEngine(t, c, fit.Linear, WithOversampling(1))
	w := cube.Window{Start: 0, End: 4}

	if sub, err := e.Subtract(ctx, w); !errors.Is(err, context.Canceled) || sub != nil {
		t.Fatalf("Subtract = %v, %v", sub, err)
	}
	if m, err := e.Integrate(ctx, w, cube.Window{Start: 4, End: 8}); !errors.Is(err, context.Canceled) || m != nil {
		t.Fatalf("Integrate = %v, %v", m, err)
	}
	if r, err := e.ModelFit(ctx, w, cube.Window{Start: 4, End: 8}); !errors.Is(err, context.Canceled) || r != nil {
		t.Fatalf("ModelFit = %v, %v", r, err)
	}
}

func TestCancellationMidway(t *testing.T) {
	c := peakCube(t, 40, 2, 2, 30, 5, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newEngine(t, c, fit.Linear, WithProgress(func(f float64) {
		if f >= 0.6 {
			cancel()
		}
	}))
	sub, err := e.Subtract(ctx, cube.Window{Start: 0, End: 10})
	if !errors.Is(err, context.Canceled) || sub != nil {
		t.Fatalf("Subtract = %v, %v", sub, err)
	}
}

func TestProgress(t *testing.T) {
	c := peakCube(t, 12, 2, 3, 6, 5, 0)
	var seen []float64
	e := newEngine(t, c, fit.Linear, WithOversampling(1.5), WithProgress(func(f float64) {
		seen = append(seen, f)
	}))

	if _, err := e.Subtract(context.Background(), cube.Window{Start: 0, End: 5}); err != nil {
		t.Fatal(err)
	}
	if len(seen) == 0 {
		t.Fatal("no progress reported")
	}
	for i, f := range seen {
		if f < 0 || f > 1 {
			t.Fatalf("progress %g outside [0,1]", f)
		}
		if i > 0 && f < seen[i-1] {
			t.Fatalf("progress went backwards: %v", seen)
		}
	}
	if seen[len(seen)-1] != 1 {
		t.Fatalf("final progress %g, want 1", seen[len(seen)-1])
	}
}

// spikeCube has a background that varies across pixels plus one pixel
// with a steep extra slope, so a spatial blur changes every fit.
func spikeCube(t *testing.T) *cube.Cube {
	t.Helper()
	cal := testutil.AffineCalibration(t, 12, 1, 1)
	bg := testutil.LinearBackground(20, 3, 5)
	return testutil.Synthetic(t, 12, 4, 5, cal, func(p int, x float64) float64 {
		v := bg(p, x)
		if p == 7 {
			v += 40 * x
		}
		return v
	})
}

func TestOversamplingFitsBlurredCube(t *testing.T) {
	const fwhm = 3
	ctx := context.Background()
	c := spikeCube(t)
	x := c.X()
	w := cube.Window{Start: 2, End: 10}

	blurred, err := blur.Cube(c, blur.SigmaFromFWHM(fwhm))
	if err != nil {
		t.Fatal(err)
	}
	y, err := blurred.Matrix(w)
	if err != nil {
		t.Fatal(err)
	}
	want, err := fit.Fit(fit.Linear, x[w.Start:w.End], y, cube.Window{Start: 0, End: w.Len()}, fit.WithResidual())
	if err != nil {
		t.Fatal(err)
	}

	plain, err := newEngine(t, c, fit.Linear).Fit(ctx, w)
	if err != nil {
		t.Fatal(err)
	}
	if d, _ := testutil.MaxAbsDiff(plain.C0, want.C0); d < 1e-3 {
		t.Fatalf("blur left the fit unchanged (diff %v)", d)
	}

	e := newEngine(t, c, fit.Linear, WithOversampling(fwhm))

	t.Run("fit", func(t *testing.T) {
		got, err := e.Fit(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		testutil.RequireSliceNearlyEqual(t, got.C0, want.C0, 1e-9)
		testutil.RequireSliceNearlyEqual(t, got.C1, want.C1, 1e-9)
	})

	t.Run("subtract", func(t *testing.T) {
		sub, err := e.Subtract(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		for k := 0; k < c.Channels(); k++ {
			for p := 0; p < c.Pixels(); p++ {
				expect := 0.0
				if k >= w.Start {
					expect = c.Pixel(k, p) - want.At(p, x[k])
				}
				testutil.RequireNearlyEqual(t, "subtracted", sub.Pixel(k, p), expect, 1e-9)
			}
		}
	})

	t.Run("model fit", func(t *testing.T) {
		res, err := e.ModelFit(ctx, w, cube.Window{Start: 10, End: 12})
		if err != nil {
			t.Fatal(err)
		}
		testutil.RequireSliceNearlyEqual(t, res.Coefficients.C0, want.C0, 1e-9)
		testutil.RequireSliceNearlyEqual(t, res.Coefficients.C1, want.C1, 1e-9)
	})

	t.Run("residual", func(t *testing.T) {
		res, err := e.Residual(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		for k := 0; k < res.Channels(); k++ {
			for p := 0; p < c.Pixels(); p++ {
				expect := math.Exp(want.Residual.At(k+1, p))
				testutil.RequireNearlyEqual(t, "exp(residual)", res.Pixel(k, p), expect, 1e-9)
			}
		}
	})
}

func TestIntegrateIgnoresOversampling(t *testing.T) {
	ctx := context.Background()
	c := spikeCube(t)
	fw := cube.Window{Start: 0, End: 6}
	iw := cube.Window{Start: 6, End: 12}
	plain := newEngine(t, c, fit.Linear)
	over := newEngine(t, c, fit.Linear, WithOversampling(3))

	tests := []struct {
		name string
		run  func(*Engine) (*cube.Map2D, error)
	}{
		{name: "integrate", run: func(e *Engine) (*cube.Map2D, error) { return e.Integrate(ctx, fw, iw) }},
		{name: "hcm", run: func(e *Engine) (*cube.Map2D, error) { return e.HCMIntegrate(ctx, fw, iw) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := tt.run(plain)
			if err != nil {
				t.Fatal(err)
			}
			got, err := tt.run(over)
			if err != nil {
				t.Fatal(err)
			}
			testutil.RequireSliceNearlyEqual(t, got.Data, want.Data, 0)
		})
	}
}

func TestIntegrateSkipsSecondToLastChannel(t *testing.T) {
	// Linear background 10+p+2x with a 100-count peak; window [0,5).
	base := []float64{54, 58, 62, 66}
	tests := []struct {
		peakAt int
		extra  float64
	}{
		{peakAt: 0, extra: 100},
		{peakAt: 1, extra: 100},
		{peakAt: 2, extra: 100},
		{peakAt: 3, extra: 0},
		{peakAt: 4, extra: 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("peak=%d", tt.peakAt), func(t *testing.T) {
			c := peakCube(t, 5, 2, 2, tt.peakAt, 100, 0)
			e := newEngine(t, c, fit.NoFit)
			got, err := e.Integrate(context.Background(), cube.Window{Start: 0, End: 5}, cube.Window{Start: 0, End: 5})
			if err != nil {
				t.Fatal(err)
			}
			want := make([]float64, len(base))
			for p, v := range base {
				want[p] = v + tt.extra
			}
			testutil.RequireSliceNearlyEqual(t, got.Data, want, 1e-9)
		})
	}
}
