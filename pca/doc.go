// Package pca decomposes background-subtracted spectrum images into
// orthogonal spectral components and their spatial concentration maps.
//
// The observation matrix has one row per channel of the PCA window and one
// column per pixel. Optional statistical weighting scales each element by
// g[row]*h[col], where g and h are the normalized inverse square roots of
// the raw row and column means; the weighting is divided back out of the
// singular vectors after decomposition so components are returned in
// physical units. Optional mean-centering runs after weighting.
//
// Singular values are summarized as a scree curve
//
//	s[i] = ln(1 + 1e4 * S[i] / S[0])
//
// for display.
package pca
