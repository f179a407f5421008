// Package analyzer is the entry point for spectrum-image analysis.
//
// A Request is an immutable description of one analysis: the cube, the
// background model, the channel windows and the PCA switches. Each
// operation takes a context and a Request, validates the windows it uses
// and returns a fresh result; nothing is retained between calls.
//
//	req := analyzer.Request{
//		Cube:      c,
//		Model:     fit.Power,
//		FitWindow: cube.Window{Start: 10, End: 40},
//		IntWindow: cube.Window{Start: 45, End: 80},
//	}
//	m, err := analyzer.Integrate(ctx, req)
package analyzer
