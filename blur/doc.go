// Package blur provides the spatial Gaussian pre-filter used for
// oversampled background fits.
//
// Every channel image of a cube is smoothed with a separable, normalized
// Gaussian kernel. Image borders are clamped, so a constant image is left
// unchanged. Short kernels are applied directly with block vector
// operations; long kernels are applied with FFT overlap-add convolution.
package blur
