package fit

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-csi/cube"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownModel is returned for a Model outside the known set.
var ErrUnknownModel = errors.New("fit: unknown model")

func validateInput(m Model, x []float64, y mat.Matrix, w cube.Window) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownModel, int(m))
	}
	rows, cols := y.Dims()
	if len(x) != rows {
		return fmt.Errorf("fit: %w: %d axis values for %d channels", cube.ErrDimensionMismatch, len(x), rows)
	}
	if err := w.Validate(rows); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if cols == 0 {
		return fmt.Errorf("fit: %w: no pixels", cube.ErrInvalidWindow)
	}
	return nil
}
