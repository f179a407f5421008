// Package linalg defines the small linear-algebra capability the fitting and
// decomposition code depends on, and a dense implementation backed by
// gonum.
//
// Only four operations are needed: least-squares solves with many right-hand
// sides, thin singular value decomposition, transpose and multiplication.
// Keeping them behind Solver lets callers swap in another backend without
// touching the fit or PCA code.
package linalg
