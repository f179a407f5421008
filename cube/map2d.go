package cube

import "gonum.org/v1/gonum/floats"

// Map2D is a Height x Width grid of values stored row-major.
type Map2D struct {
	Height int
	Width  int
	Data   []float64
}

// NewMap2D returns a zeroed map.
func NewMap2D(height, width int) *Map2D {
	return &Map2D{
		Height: height,
		Width:  width,
		Data:   make([]float64, height*width),
	}
}

// MapFrom wraps data, which must have height*width values, without copying.
func MapFrom(height, width int, data []float64) *Map2D {
	return &Map2D{Height: height, Width: width, Data: data}
}

func (m *Map2D) At(row, col int) float64     { return m.Data[row*m.Width+col] }
func (m *Map2D) Set(row, col int, v float64) { m.Data[row*m.Width+col] = v }

// Range returns the minimum and maximum value.
func (m *Map2D) Range() (lo, hi float64) {
	if len(m.Data) == 0 {
		return 0, 0
	}
	return floats.Min(m.Data), floats.Max(m.Data)
}

// Sum returns the sum of all values.
func (m *Map2D) Sum() float64 {
	return floats.Sum(m.Data)
}
