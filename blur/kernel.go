package blur

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// FWHMToSigma converts a full width at half maximum into a Gaussian sigma.
const FWHMToSigma = 0.42466

var (
	ErrInvalidSigma = errors.New("blur: sigma must be finite and non-negative")
	ErrShape        = errors.New("blur: image shape mismatch")
)

// SigmaFromFWHM returns the Gaussian sigma for an oversampling FWHM.
func SigmaFromFWHM(fwhm float64) float64 {
	return fwhm * FWHMToSigma
}

// Kernel returns a normalized Gaussian kernel with radius ceil(3*sigma).
// sigma == 0 yields the identity kernel {1}.
func Kernel(sigma float64) ([]float64, error) {
	if err := validateSigma(sigma); err != nil {
		return nil, err
	}
	if sigma == 0 {
		return []float64{1}, nil
	}

	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	inv := 1 / (2 * sigma * sigma)
	for i := range kernel {
		d := float64(i - radius)
		kernel[i] = math.Exp(-d * d * inv)
	}
	vecmath.ScaleBlockInPlace(kernel, 1/vecmath.Sum(kernel))
	return kernel, nil
}

func validateSigma(sigma float64) error {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma < 0 {
		return fmt.Errorf("%w: %g", ErrInvalidSigma, sigma)
	}
	return nil
}
