// Package background fits a per-pixel background model over a channel
// window of a spectrum-image cube and derives subtracted cubes and
// integrated maps from it.
//
// An Engine binds one cube to one fit.Model. Every operation fits the
// background afresh, validates its windows before any computation, reports
// progress at coarse checkpoints and honours context cancellation at the
// same checkpoints. Results are returned only on full success.
//
// Per-pixel numerical failures never abort an operation: such pixels carry
// a zero background, as described in package fit.
package background
