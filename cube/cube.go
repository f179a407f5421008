package cube

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Kind identifies the spatial shape of a cube.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Cube is an immutable Channels x Height x Width block of intensities.
type Cube struct {
	channels int
	height   int
	width    int
	data     []float64 // channel-major: data[k*pixels+p]
	cal      Calibration
}

// New creates a cube. data is copied and must hold channels*height*width
// values in channel-major order. cal must provide one axis value per channel.
func New(channels, height, width int, data []float64, cal Calibration) (*Cube, error) {
	if err := validateDims(channels, height, width); err != nil {
		return nil, err
	}
	if err := validateData(channels, height, width, len(data)); err != nil {
		return nil, err
	}
	if err := cal.Validate(channels); err != nil {
		return nil, err
	}
	return &Cube{
		channels: channels,
		height:   height,
		width:    width,
		data:     append([]float64(nil), data...),
		cal:      cal.Clone(),
	}, nil
}

// FromSpectra builds a line-scan cube from one spectrum per position.
func FromSpectra(spectra [][]float64, cal Calibration) (*Cube, error) {
	if len(spectra) == 0 {
		return nil, ErrEmptyCube
	}
	channels := len(spectra[0])
	data := make([]float64, channels*len(spectra))
	for p, s := range spectra {
		if len(s) != channels {
			return nil, fmt.Errorf("%w: spectrum %d has %d channels, want %d",
				ErrDimensionMismatch, p, len(s), channels)
		}
		for k, v := range s {
			data[k*len(spectra)+p] = v
		}
	}
	return New(channels, len(spectra), 1, data, cal)
}

// Channels returns the number of spectral channels.
func (c *Cube) Channels() int { return c.channels }

// Height returns the number of spatial rows.
func (c *Cube) Height() int { return c.height }

// Width returns the number of spatial columns.
func (c *Cube) Width() int { return c.width }

// Pixels returns Height*Width.
func (c *Cube) Pixels() int { return c.height * c.width }

// Kind reports whether the cube is a point, a line scan or a map.
func (c *Cube) Kind() Kind {
	switch {
	case c.height == 1 && c.width == 1:
		return KindPoint
	case c.width == 1:
		return KindLine
	default:
		return KindMap
	}
}

// Calibration returns a copy of the spectral-axis calibration.
func (c *Cube) Calibration() Calibration { return c.cal.Clone() }

// X returns a copy of the spectral axis.
func (c *Cube) X() []float64 { return append([]float64(nil), c.cal.X...) }

// At returns the value at channel k, spatial position (row, col).
func (c *Cube) At(k, row, col int) float64 {
	return c.data[k*c.Pixels()+row*c.width+col]
}

// Pixel returns the value at channel k, pixel index p.
func (c *Cube) Pixel(k, p int) float64 {
	return c.data[k*c.Pixels()+p]
}

// Channel returns a copy of the image at channel k.
func (c *Cube) Channel(k int) []float64 {
	n := c.Pixels()
	return append([]float64(nil), c.data[k*n:(k+1)*n]...)
}

// Spectrum returns a copy of the spectrum at pixel p.
func (c *Cube) Spectrum(p int) []float64 {
	n := c.Pixels()
	out := make([]float64, c.channels)
	for k := range out {
		out[k] = c.data[k*n+p]
	}
	return out
}

// Matrix returns the channels of w as a dense matrix with one row per
// channel and one column per pixel.
func (c *Cube) Matrix(w Window) (*mat.Dense, error) {
	if err := w.Validate(c.channels); err != nil {
		return nil, err
	}
	n := c.Pixels()
	data := append([]float64(nil), c.data[w.Start*n:w.End*n]...)
	return mat.NewDense(w.Len(), n, data), nil
}

// Data returns a copy of the raw channel-major buffer.
func (c *Cube) Data() []float64 {
	return append([]float64(nil), c.data...)
}

// Raw returns a read-only view of the image at channel k. Callers must not
// modify the returned slice.
func (c *Cube) Raw(k int) []float64 {
	n := c.Pixels()
	return c.data[k*n : (k+1)*n : (k+1)*n]
}

// WithData returns a cube with the same shape and calibration as c holding
// data. data is copied.
func (c *Cube) WithData(data []float64) (*Cube, error) {
	return New(c.channels, c.height, c.width, data, c.cal)
}

// Reshape returns a cube with channels from cal and the spatial shape of c.
func (c *Cube) Reshape(data []float64, cal Calibration) (*Cube, error) {
	return New(len(cal.X), c.height, c.width, data, cal)
}
