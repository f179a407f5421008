package pca

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-csi/cube"
)

var (
	ErrDecompositionFailure = errors.New("pca: decomposition failed")
	ErrInvalidWeights       = errors.New("pca: weights must be finite and non-zero")
	ErrInvalidComponents    = errors.New("pca: invalid component count")
)

func validateWeights(w *Weights, rows, cols int) error {
	if len(w.Rows) != rows || len(w.Cols) != cols {
		return fmt.Errorf("pca: %w: weights %dx%d for %dx%d observations",
			cube.ErrDimensionMismatch, len(w.Rows), len(w.Cols), rows, cols)
	}
	for _, v := range w.Rows {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: row weight %g", ErrInvalidWeights, v)
		}
	}
	for _, v := range w.Cols {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: column weight %g", ErrInvalidWeights, v)
		}
	}
	return nil
}
