package analyzer

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/linalg"
	"github.com/cwbudde/algo-csi/pca"
)

// ErrNoCube is returned for a Request without a cube.
var ErrNoCube = errors.New("analyzer: request has no cube")

// Request describes one analysis. The zero values of the optional fields
// select no oversampling, no weighting, no centering and one component.
type Request struct {
	Cube  *cube.Cube
	Model fit.Model

	FitWindow cube.Window
	// IntWindow is the integration window, and the edge window of
	// ModelFit.
	IntWindow cube.Window
	PCAWindow cube.Window

	Weighted     bool
	MeanCentered bool
	Center       pca.Center

	// Oversampling is the FWHM, in pixels, of the Gaussian blur applied
	// before oversampled fits.
	Oversampling float64
	// Components is the number of components kept by Denoise.
	Components int

	Progress func(float64)
	Solver   linalg.Solver
	FitOpts  []fit.Option
}

// Validate checks the fields shared by every operation: the cube, the
// model, the oversampling width and the fit window.
func (r Request) Validate() error {
	if r.Cube == nil {
		return ErrNoCube
	}
	if !r.Model.Valid() {
		return fmt.Errorf("analyzer: %w: %d", fit.ErrUnknownModel, int(r.Model))
	}
	if math.IsNaN(r.Oversampling) || math.IsInf(r.Oversampling, 0) || r.Oversampling < 0 {
		return fmt.Errorf("analyzer: oversampling %g must be finite and non-negative", r.Oversampling)
	}
	if err := r.FitWindow.Validate(r.Cube.Channels()); err != nil {
		return fmt.Errorf("analyzer: fit window: %w", err)
	}
	return nil
}

func (r Request) window(name string, w cube.Window) error {
	if err := w.Validate(r.Cube.Channels()); err != nil {
		return fmt.Errorf("analyzer: %s window: %w", name, err)
	}
	return nil
}

func (r Request) components() int {
	if r.Components <= 0 {
		return 1
	}
	return r.Components
}

func (r Request) pcaOptions() pca.Options {
	return pca.Options{
		Weighted:     r.Weighted,
		MeanCentered: r.MeanCentered,
		Center:       r.Center,
	}
}
