package analyzer

import (
	"context"

	"github.com/cwbudde/algo-csi/background"
	"github.com/cwbudde/algo-csi/cube"
	"github.com/cwbudde/algo-csi/fit"
	"github.com/cwbudde/algo-csi/pca"
)

func (r Request) background() (*background.Engine, error) {
	return background.New(r.Cube, r.Model,
		background.WithProgress(r.Progress),
		background.WithSolver(r.Solver),
		background.WithOversampling(r.Oversampling),
		background.WithFitOptions(r.FitOpts...),
	)
}

func (r Request) pca() (*pca.Engine, error) {
	return pca.New(r.Cube, r.Model,
		pca.WithProgress(r.Progress),
		pca.WithSolver(r.Solver),
		pca.WithOversampling(r.Oversampling),
		pca.WithFitOptions(r.FitOpts...),
	)
}

// Fit returns the per-pixel background coefficients over the fit window.
func Fit(ctx context.Context, r Request) (*fit.Coefficients, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	e, err := r.background()
	if err != nil {
		return nil, err
	}
	return e.Fit(ctx, r.FitWindow)
}

// Subtract returns the background-subtracted cube.
func Subtract(ctx context.Context, r Request) (*cube.Cube, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	e, err := r.background()
	if err != nil {
		return nil, err
	}
	return e.Subtract(ctx, r.FitWindow)
}

// Integrate returns the background-subtracted integral over the
// integration window.
func Integrate(ctx context.Context, r Request) (*cube.Map2D, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.window("integration", r.IntWindow); err != nil {
		return nil, err
	}
	e, err := r.background()
	if err != nil {
		return nil, err
	}
	return e.Integrate(ctx, r.FitWindow, r.IntWindow)
}

// HCMIntegrate returns the chi-square-like map over the integration
// window.
func HCMIntegrate(ctx context.Context, r Request) (*cube.Map2D, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.window("integration", r.IntWindow); err != nil {
		return nil, err
	}
	e, err := r.background()
	if err != nil {
		return nil, err
	}
	return e.HCMIntegrate(ctx, r.FitWindow, r.IntWindow)
}

// ModelFit runs the oversampled fit-to-model with the integration window as
// the edge window.
func ModelFit(ctx context.Context, r Request) (*background.ModelFitResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.window("edge", r.IntWindow); err != nil {
		return nil, err
	}
	e, err := r.background()
	if err != nil {
		return nil, err
	}
	return e.ModelFit(ctx, r.FitWindow, r.IntWindow)
}

// Residual returns exp of the fit residual over the interior of the fit
// window.
func Residual(ctx context.Context, r Request) (*cube.Cube, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	e, err := r.background()
	if err != nil {
		return nil, err
	}
	return e.Residual(ctx, r.FitWindow)
}

// PCA decomposes the background-subtracted PCA window.
func PCA(ctx context.Context, r Request) (*pca.Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.window("PCA", r.PCAWindow); err != nil {
		return nil, err
	}
	e, err := r.pca()
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, r.FitWindow, r.PCAWindow, r.pcaOptions())
}

// Denoise keeps Components singular components of the raw fit window.
func Denoise(ctx context.Context, r Request) (*cube.Cube, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	e, err := r.pca()
	if err != nil {
		return nil, err
	}
	return e.Denoise(ctx, r.FitWindow, r.components())
}
