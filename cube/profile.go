package cube

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Profile returns the mean spectrum over the given pixel indices. A nil or
// empty roi averages the whole cube.
func (c *Cube) Profile(roi []int) ([]float64, error) {
	n := c.Pixels()
	if len(roi) == 0 {
		out := make([]float64, c.channels)
		for k := range out {
			out[k] = stat.Mean(c.Raw(k), nil)
		}
		return out, nil
	}
	for _, p := range roi {
		if p < 0 || p >= n {
			return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrPixelOutOfRange, p, n)
		}
	}
	out := make([]float64, c.channels)
	buf := make([]float64, len(roi))
	for k := range out {
		img := c.Raw(k)
		for i, p := range roi {
			buf[i] = img[p]
		}
		out[k] = stat.Mean(buf, nil)
	}
	return out, nil
}

// Rect returns the pixel indices of the rectangle with top-left corner
// (row, col) and the given size, clipped to the cube.
func (c *Cube) Rect(row, col, height, width int) []int {
	var roi []int
	for r := max(row, 0); r < min(row+height, c.height); r++ {
		for q := max(col, 0); q < min(col+width, c.width); q++ {
			roi = append(roi, r*c.width+q)
		}
	}
	return roi
}

// BinToLine sums every row of a map over its columns, producing a line
// scan with one spectrum per row.
func (c *Cube) BinToLine() *Cube {
	n := c.Pixels()
	data := make([]float64, c.channels*c.height)
	for k := 0; k < c.channels; k++ {
		img := c.data[k*n : (k+1)*n]
		for r := 0; r < c.height; r++ {
			var sum float64
			for q := 0; q < c.width; q++ {
				sum += img[r*c.width+q]
			}
			data[k*c.height+r] = sum
		}
	}
	return &Cube{
		channels: c.channels,
		height:   c.height,
		width:    1,
		data:     data,
		cal:      c.cal.Clone(),
	}
}
