package blur

import (
	"fmt"

	"github.com/cwbudde/algo-csi/cube"
	vecmath "github.com/cwbudde/algo-vecmath"
)

// directMaxTaps is the longest kernel applied without the FFT path.
const directMaxTaps = 32

// lineFilter smooths one edge-padded line. padded holds len(dst)+2*radius
// values.
type lineFilter interface {
	filter(dst, padded []float64) error
}

type directFilter struct {
	kernel []float64
	tmp    []float64
}

func (f *directFilter) filter(dst, padded []float64) error {
	n := len(dst)
	if cap(f.tmp) < n {
		f.tmp = make([]float64, n)
	}
	tmp := f.tmp[:n]
	clear(dst)
	for j, kj := range f.kernel {
		vecmath.ScaleBlock(tmp, padded[j:j+n], kj)
		vecmath.AddBlockInPlace(dst, tmp)
	}
	return nil
}

type fftFilter struct {
	oa     *overlapAdd
	radius int
	full   []float64
}

func (f *fftFilter) filter(dst, padded []float64) error {
	n := len(padded) + f.oa.kernelLen - 1
	if cap(f.full) < n {
		f.full = make([]float64, n)
	}
	full := f.full[:n]
	if err := f.oa.convolve(full, padded); err != nil {
		return err
	}
	// The kernel is symmetric, so the centered correlation starts 2*radius
	// samples into the full convolution.
	copy(dst, full[2*f.radius:2*f.radius+len(dst)])
	return nil
}

func newLineFilter(kernel []float64) (lineFilter, error) {
	if len(kernel) < directMaxTaps {
		return &directFilter{kernel: kernel}, nil
	}
	oa, err := newOverlapAdd(kernel)
	if err != nil {
		return nil, err
	}
	return &fftFilter{oa: oa, radius: len(kernel) / 2}, nil
}

// Smoother blurs images of a fixed kernel. It keeps scratch buffers and is
// not safe for concurrent use.
type Smoother struct {
	radius int
	line   lineFilter
	padded []float64
	src    []float64
	dst    []float64
}

// NewSmoother returns a Smoother for the Gaussian of the given sigma.
func NewSmoother(sigma float64) (*Smoother, error) {
	kernel, err := Kernel(sigma)
	if err != nil {
		return nil, err
	}
	line, err := newLineFilter(kernel)
	if err != nil {
		return nil, err
	}
	return &Smoother{radius: len(kernel) / 2, line: line}, nil
}

// Image blurs a row-major height x width image from src into dst. dst and
// src may be the same slice.
func (s *Smoother) Image(dst, src []float64, height, width int) error {
	if len(src) != height*width || len(dst) != len(src) {
		return fmt.Errorf("%w: %d/%d values for %dx%d", ErrShape, len(dst), len(src), height, width)
	}
	if s.radius == 0 {
		copy(dst, src)
		return nil
	}

	for r := 0; r < height; r++ {
		if err := s.smoothLine(dst[r*width:(r+1)*width], src[r*width:(r+1)*width]); err != nil {
			return err
		}
	}

	if height == 1 {
		return nil
	}
	if cap(s.src) < height {
		s.src = make([]float64, height)
		s.dst = make([]float64, height)
	}
	col, out := s.src[:height], s.dst[:height]
	for c := 0; c < width; c++ {
		for r := 0; r < height; r++ {
			col[r] = dst[r*width+c]
		}
		if err := s.smoothLine(out, col); err != nil {
			return err
		}
		for r := 0; r < height; r++ {
			dst[r*width+c] = out[r]
		}
	}
	return nil
}

func (s *Smoother) smoothLine(dst, src []float64) error {
	n := len(src)
	if n == 1 {
		dst[0] = src[0]
		return nil
	}
	m := n + 2*s.radius
	if cap(s.padded) < m {
		s.padded = make([]float64, m)
	}
	padded := s.padded[:m]
	for i := range padded {
		padded[i] = src[min(max(i-s.radius, 0), n-1)]
	}
	return s.line.filter(dst, padded)
}

// Cube returns c with every channel image blurred by a Gaussian of the
// given sigma. sigma == 0 returns c itself.
func Cube(c *cube.Cube, sigma float64) (*cube.Cube, error) {
	if err := validateSigma(sigma); err != nil {
		return nil, err
	}
	if sigma == 0 {
		return c, nil
	}

	s, err := NewSmoother(sigma)
	if err != nil {
		return nil, err
	}
	n := c.Pixels()
	data := make([]float64, c.Channels()*n)
	for k := 0; k < c.Channels(); k++ {
		if err := s.Image(data[k*n:(k+1)*n], c.Raw(k), c.Height(), c.Width()); err != nil {
			return nil, fmt.Errorf("blur: channel %d: %w", k, err)
		}
	}
	return c.WithData(data)
}
