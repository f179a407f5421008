package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-csi/cube"
)

// PixelFunc returns the intensity of pixel p at spectral-axis value x.
type PixelFunc func(p int, x float64) float64

// Synthetic builds a cube whose values are f(p, x[k]). It fails t on any
// construction error.
func Synthetic(t testing.TB, channels, height, width int, cal cube.Calibration, f PixelFunc) *cube.Cube {
	t.Helper()
	n := height * width
	data := make([]float64, channels*n)
	for k := 0; k < channels; k++ {
		for p := 0; p < n; p++ {
			data[k*n+p] = f(p, cal.X[k])
		}
	}
	c, err := cube.New(channels, height, width, data, cal)
	if err != nil {
		t.Fatalf("synthetic cube: %v", err)
	}
	return c
}

// AffineCalibration returns x[i] = m*i + b, failing t on error.
func AffineCalibration(t testing.TB, n int, m, b float64) cube.Calibration {
	t.Helper()
	cal, err := cube.Affine(n, m, b)
	if err != nil {
		t.Fatalf("calibration: %v", err)
	}
	return cal
}

// LinearBackground returns a PixelFunc with y = (c0 + p*dc0) + c1*x.
func LinearBackground(c0, c1, dc0 float64) PixelFunc {
	return func(p int, x float64) float64 {
		return c0 + float64(p)*dc0 + c1*x
	}
}

// PowerLaw returns a PixelFunc with y = a_p * x^r where the amplitude grows
// with the pixel index.
func PowerLaw(a, r float64) PixelFunc {
	return func(p int, x float64) float64 {
		return a * (1 + 0.1*float64(p)) * math.Pow(x, r)
	}
}

// Exponential returns a PixelFunc with y = exp(c0 + c1*x).
func Exponential(c0, c1 float64) PixelFunc {
	return func(p int, x float64) float64 {
		return math.Exp(c0 + 0.01*float64(p) + c1*x)
	}
}

// RankOne returns a PixelFunc where every pixel is a scalar multiple of one
// reference spectrum.
func RankOne(spectrum func(x float64) float64) PixelFunc {
	return func(p int, x float64) float64 {
		return float64(p+1) * spectrum(x)
	}
}

// WithNoise adds deterministic uniform noise of the given amplitude to f.
// The noise depends on the seed, the pixel and x only.
func WithNoise(f PixelFunc, seed int64, amplitude float64) PixelFunc {
	return func(p int, x float64) float64 {
		h := seed ^ int64(p)*1_000_003 ^ int64(math.Float64bits(x))
		rng := rand.New(rand.NewSource(h))
		return f(p, x) + (rng.Float64()*2-1)*amplitude
	}
}
