// Package fit implements the per-pixel background models used for
// spectrum-image background subtraction.
//
// Each Model linearizes one functional form so that a single least-squares
// solve, shared by every pixel, yields two coefficients per pixel:
//
//   - NoFit: background is identically zero
//   - Constant: y = c0
//   - Linear: y = c0 + c1*x
//   - Exponential: y = exp(c0 + c1*x), fitted in log space
//   - Power: y = exp(c0 + c1*ln x), fitted in log-log space
//   - LCPL: y = c0*x^R1 + c1*x^R2, a linear combination of two power laws
//     whose exponents are fixed across the image from the distribution of
//     per-pixel power-law exponents
//
// A failed solve never aborts a fit. The affected coefficients are zero,
// and a zero coefficient pair evaluates to a zero background for every model.
package fit
