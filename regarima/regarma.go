package regarima

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/likelihood"
	"github.com/sartorproj/regarima/params"
	"github.com/sartorproj/regarima/ssq"
)

// RegArmaProcessor runs the nonlinear estimation of the ARMA parameters of
// a differenced model. The regression coefficients are concentrated out of
// the likelihood at each evaluation.
type RegArmaProcessor[M arima.Family[M]] struct {
	// ML selects the exact maximum likelihood objective. Otherwise the
	// sum of squares of the standardized innovations is minimized.
	ML bool
	// Parallel computes the numerical derivatives concurrently.
	Parallel bool
	Logger   logr.Logger
}

// RegArmaEstimation is the outcome of RegArmaProcessor.Compute.
type RegArmaEstimation[M arima.Family[M]] struct {
	// Model is the stationary model at the optimum.
	Model      M
	Parameters []float64
	// Gradient and Hessian are those of minus the log-likelihood.
	Gradient   []float64
	Hessian    *mat.SymDense
	Converged  bool
	Iterations int
	// Trace holds the objective at the start and after each accepted
	// iteration.
	Trace []float64
	// Objective is the objective at the optimum.
	Objective float64
}

// armaFunction is the objective of the estimation loop: the residual
// vector of the concentrated likelihood of the model mapped from p.
type armaFunction[M arima.Family[M]] struct {
	dmodel   *ArmaModel[M]
	mapping  params.Mapping[M]
	ml       bool
	parallel bool
}

var _ ssq.Differentiable = (*armaFunction[*arima.Model])(nil)

func (f *armaFunction[M]) Domain() params.Domain { return f.mapping }

func (f *armaFunction[M]) Evaluate(p []float64) (*ssq.Point, error) {
	m, err := f.mapping.Map(p)
	if err != nil {
		return nil, err
	}
	ll, err := likelihood.Computer{KeepResiduals: true}.Compute(f.dmodel.y, f.dmodel.design(), m)
	if err != nil {
		return nil, err
	}
	e := ll.Residuals()
	if f.ml {
		e = ll.V()
	}
	return ssq.NewPoint(append([]float64(nil), p...), e), nil
}

func (f *armaFunction[M]) Jacobian(ctx context.Context, pt *ssq.Point) (*mat.Dense, error) {
	return ssq.NumericalJacobian(ctx, f, pt, f.parallel)
}

// Compute estimates the parameters of the ARMA errors of dmodel, starting
// from start. mapping defines the free parameters; ndf is the number of
// degrees of freedom used to scale the derivatives to the log-likelihood.
//
// An invalid starting model yields an error matching both
// ErrOptimizationFailed and the error of the first evaluation (usually
// filter.ErrInvalidModel). A run that neither converges nor improves on
// its starting point fails with ErrOptimizationFailed.
func (p RegArmaProcessor[M]) Compute(ctx context.Context, dmodel *ArmaModel[M], start M,
	mapping params.Mapping[M], minimizer ssq.Minimizer, ndf int) (*RegArmaEstimation[M], error) {
	fn := &armaFunction[M]{
		dmodel:   dmodel,
		mapping:  mapping,
		ml:       p.ML,
		parallel: p.Parallel,
	}
	if mapping.Dim() == 0 {
		return p.evaluate(fn)
	}
	converged, err := minimizer.Minimize(ctx, fn, mapping.ParametersOf(start))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}

	best := minimizer.Result()
	trace := minimizer.Trace()
	if !converged && !(best.Ssq < trace[0]) {
		return nil, fmt.Errorf("%w: no improvement on the starting objective %g", ErrOptimizationFailed, trace[0])
	}
	model, err := mapping.Map(best.Parameters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}
	p.Logger.V(1).Info("Estimation loop finished",
		"converged", converged, "iterations", minimizer.Iterations(), "objective", best.Ssq)

	// derivatives of -log L = ndf/2 log(ssq) + constant, Gauss-Newton terms
	scale := 0.5 * float64(ndf) / best.Ssq
	grad := append([]float64(nil), minimizer.Gradient()...)
	for i := range grad {
		grad[i] *= scale
	}
	var hess *mat.SymDense
	if h := minimizer.Hessian(); h != nil {
		hess = mat.NewSymDense(h.SymmetricDim(), nil)
		hess.ScaleSym(scale, h)
	}

	return &RegArmaEstimation[M]{
		Model:      model,
		Parameters: append([]float64(nil), best.Parameters...),
		Gradient:   grad,
		Hessian:    hess,
		Converged:  converged,
		Iterations: minimizer.Iterations(),
		Trace:      append([]float64(nil), trace...),
		Objective:  best.Ssq,
	}, nil
}

// evaluate handles models without free parameters.
func (p RegArmaProcessor[M]) evaluate(fn *armaFunction[M]) (*RegArmaEstimation[M], error) {
	pt, err := fn.Evaluate(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}
	model, err := fn.mapping.Map(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptimizationFailed, err)
	}
	return &RegArmaEstimation[M]{
		Model:     model,
		Converged: true,
		Trace:     []float64{pt.Ssq},
		Objective: pt.Ssq,
	}, nil
}
