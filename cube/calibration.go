package cube

import (
	"fmt"
	"math"
)

// Calibration maps channel indices to spectral-axis values (energy,
// wavelength, ...).
type Calibration struct {
	X         []float64
	XUnit     string
	ValueUnit string
}

// Channels returns the identity calibration x[i] = i.
func Channels(n int) Calibration {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return Calibration{X: x}
}

// Affine returns the calibration x[i] = m*i + b for n channels.
func Affine(n int, m, b float64) (Calibration, error) {
	if n <= 0 {
		return Calibration{}, fmt.Errorf("%w: %d channels", ErrInvalidCalibration, n)
	}
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return Calibration{}, fmt.Errorf("%w: slope %v, offset %v", ErrInvalidCalibration, m, b)
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = m*float64(i) + b
	}
	return Calibration{X: x}, nil
}

// TwoPoint derives an affine calibration from two reference channels and
// their known values: channel c0 reads e0 and channel c1 reads e1.
func TwoPoint(n, c0 int, e0 float64, c1 int, e1 float64) (Calibration, error) {
	if c0 >= c1 {
		return Calibration{}, fmt.Errorf("%w: reference channels %d >= %d", ErrInvalidCalibration, c0, c1)
	}
	if e0 >= e1 {
		return Calibration{}, fmt.Errorf("%w: reference values %v >= %v", ErrInvalidCalibration, e0, e1)
	}
	m := (e1 - e0) / float64(c1-c0)
	return Affine(n, m, e0-m*float64(c0))
}

// Validate checks that the axis has one value per channel and is strictly
// monotonic.
func (c Calibration) Validate(channels int) error {
	if len(c.X) != channels {
		return fmt.Errorf("%w: calibration has %d values for %d channels",
			ErrDimensionMismatch, len(c.X), channels)
	}
	if len(c.X) < 2 {
		return nil
	}
	increasing := c.X[1] > c.X[0]
	for i := 1; i < len(c.X); i++ {
		d := c.X[i] - c.X[i-1]
		if d == 0 || (d > 0) != increasing || math.IsNaN(d) {
			return fmt.Errorf("%w: axis not strictly monotonic at channel %d", ErrInvalidCalibration, i)
		}
	}
	return nil
}

// Step returns the slope m and offset b of the axis assuming it is affine,
// estimated from the first and last channel.
func (c Calibration) Step() (m, b float64) {
	n := len(c.X)
	switch n {
	case 0:
		return 1, 0
	case 1:
		return 1, c.X[0]
	}
	m = (c.X[n-1] - c.X[0]) / float64(n-1)
	return m, c.X[0]
}

// Origin returns the fractional channel at which the axis reads zero.
func (c Calibration) Origin() float64 {
	m, b := c.Step()
	return -b / m
}

// Slice returns the calibration restricted to the channels of w.
func (c Calibration) Slice(w Window) Calibration {
	out := c
	out.X = append([]float64(nil), c.X[w.Start:w.End]...)
	return out
}

// Clone returns a deep copy.
func (c Calibration) Clone() Calibration {
	out := c
	out.X = append([]float64(nil), c.X...)
	return out
}
