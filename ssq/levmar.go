package ssq

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/params"
)

const (
	// initial damping relative to the largest diagonal element of J'J
	lmTau = 1e-3
	// relative size of a step that ends the minimization
	lmStepTolerance = 1e-12
	// gradient norm that ends the minimization
	lmGradientTolerance = 1e-14
	// damping beyond which no progress is possible
	lmMaxDamping = 1e32
)

// LevenbergMarquardt is a damped Gauss-Newton minimizer with the damping
// update of Nielsen. Candidates outside the domain, or whose evaluation
// fails, are rejected by increasing the damping.
type LevenbergMarquardt struct {
	// MaxIterations bounds the number of iterations, accepted or not.
	MaxIterations int
	Logger        logr.Logger

	precision float64
	outcome
}

var _ Minimizer = (*LevenbergMarquardt)(nil)

// NewLevenbergMarquardt creates a minimizer with default settings.
func NewLevenbergMarquardt() *LevenbergMarquardt {
	return &LevenbergMarquardt{
		MaxIterations: 200,
		Logger:        logr.Discard(),
		precision:     DefaultPrecision,
	}
}

// SetFunctionPrecision sets the relative precision on the objective.
func (lm *LevenbergMarquardt) SetFunctionPrecision(eps float64) { lm.precision = eps }

// FunctionPrecision returns the relative precision on the objective.
func (lm *LevenbergMarquardt) FunctionPrecision() float64 { return lm.precision }

// Minimize minimizes fn from start.
func (lm *LevenbergMarquardt) Minimize(ctx context.Context, fn Function, start []float64) (bool, error) {
	lm.reset()
	log := lm.Logger
	dom := fn.Domain()

	p := append([]float64(nil), start...)
	if !dom.CheckBoundaries(p) && dom.Validate(p) == params.Invalid {
		return false, fmt.Errorf("%w: %v", ErrInvalidStart, start)
	}
	pt, err := fn.Evaluate(p)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidStart, err)
	}
	lm.trace = append(lm.trace, pt.Ssq)

	jac, err := Jacobian(ctx, fn, pt)
	if err != nil {
		return false, err
	}
	a, g := normalEquations(jac, pt.Residuals)
	m := len(p)

	mu := 0.0
	for i := 0; i < m; i++ {
		mu = math.Max(mu, a.At(i, i))
	}
	mu *= lmTau
	if mu == 0 {
		mu = lmTau
	}
	nu := 2.0

	converged := false
	for iter := 0; iter < lm.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			lm.result = pt
			return false, err
		}
		if floats.Norm(g, math.Inf(1)) <= lmGradientTolerance {
			converged = true
			break
		}
		if mu > lmMaxDamping {
			log.V(1).Info("Damping too large, stopping", "iteration", iter, "ssq", pt.Ssq)
			break
		}

		h, ok := dampedStep(a, g, mu)
		if !ok {
			mu *= nu
			nu *= 2
			continue
		}
		if floats.Norm(h, 2) <= lmStepTolerance*(floats.Norm(pt.Parameters, 2)+lmStepTolerance) {
			converged = true
			break
		}

		np := make([]float64, m)
		floats.AddTo(np, pt.Parameters, h)
		var npt *Point
		if dom.CheckBoundaries(np) || dom.Validate(np) != params.Invalid {
			npt, err = fn.Evaluate(np)
			if err != nil {
				if ctx.Err() != nil {
					lm.result = pt
					return false, ctx.Err()
				}
				log.V(2).Info("Rejected candidate", "parameters", np, "error", err.Error())
				npt = nil
			}
		}
		if npt == nil {
			mu *= nu
			nu *= 2
			continue
		}

		// gain ratio: actual decrease over the decrease of the linear model
		denom := mu*floats.Dot(h, h) - floats.Dot(h, g)
		rho := (pt.Ssq - npt.Ssq) / denom
		if !(rho > 0) || math.IsInf(npt.Ssq, 0) || math.IsNaN(npt.Ssq) {
			log.V(2).Info("Rejected step", "ssq", npt.Ssq, "mu", mu)
			mu *= nu
			nu *= 2
			continue
		}

		decrease := pt.Ssq - npt.Ssq
		pt = npt
		lm.iterations++
		lm.trace = append(lm.trace, pt.Ssq)
		log.V(1).Info("Levenberg-Marquardt iteration", "iteration", lm.iterations, "ssq", pt.Ssq, "mu", mu)

		if jac, err = Jacobian(ctx, fn, pt); err != nil {
			lm.result = pt
			return false, err
		}
		a, g = normalEquations(jac, pt.Residuals)
		mu *= math.Max(1.0/3, 1-math.Pow(2*rho-1, 3))
		nu = 2

		if decrease <= lm.precision*math.Abs(pt.Ssq+decrease) {
			converged = true
			break
		}
	}

	lm.result = pt
	lm.finish(jac)
	return converged, nil
}

// dampedStep solves (A + mu I) h = -g.
func dampedStep(a *mat.SymDense, g []float64, mu float64) ([]float64, bool) {
	m := len(g)
	damped := mat.NewSymDense(m, nil)
	damped.CopySym(a)
	for i := 0; i < m; i++ {
		damped.SetSym(i, i, a.At(i, i)+mu)
	}
	var chol mat.Cholesky
	if !chol.Factorize(damped) {
		return nil, false
	}
	rhs := make([]float64, m)
	floats.ScaleTo(rhs, -1, g)
	var h mat.VecDense
	if err := chol.SolveVecTo(&h, mat.NewVecDense(m, rhs)); err != nil {
		return nil, false
	}
	step := mat.Col(nil, 0, &h)
	for _, x := range step {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
	}
	return step, true
}
