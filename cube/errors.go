package cube

import (
	"errors"
	"fmt"
)

// Errors returned by cube constructors and validators.
var (
	ErrInvalidWindow      = errors.New("cube: invalid channel window")
	ErrDimensionMismatch  = errors.New("cube: dimension mismatch")
	ErrInvalidCalibration = errors.New("cube: invalid calibration")
	ErrEmptyCube          = errors.New("cube: empty cube")
	ErrPixelOutOfRange    = errors.New("cube: pixel out of range")
)

func validateDims(channels, height, width int) error {
	if channels <= 0 || height <= 0 || width <= 0 {
		return fmt.Errorf("%w: %dx%dx%d", ErrEmptyCube, channels, height, width)
	}
	return nil
}

func validateData(channels, height, width, n int) error {
	if want := channels * height * width; n != want {
		return fmt.Errorf("%w: data length %d, want %d", ErrDimensionMismatch, n, want)
	}
	return nil
}
