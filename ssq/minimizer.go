package ssq

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// DefaultPrecision is the default relative precision on the objective.
const DefaultPrecision = 1e-9

// Minimizer minimizes sum-of-squares functions.
//
// A Minimizer keeps the outcome of its last run; it must not be shared by
// concurrent estimations.
type Minimizer interface {
	// SetFunctionPrecision sets the relative decrease of the objective
	// below which the minimization has converged.
	SetFunctionPrecision(eps float64)
	FunctionPrecision() float64
	// Minimize runs the minimization from start. It reports whether the
	// convergence criterion was met. The context is checked between
	// iterations.
	Minimize(ctx context.Context, fn Function, start []float64) (bool, error)
	// Result returns the best point of the last run.
	Result() *Point
	// Gradient returns the gradient of the objective at Result.
	Gradient() []float64
	// Hessian returns an approximation of the Hessian of the objective at
	// Result.
	Hessian() *mat.SymDense
	// Iterations returns the number of accepted iterations.
	Iterations() int
	// Trace returns the objective at the start and after each accepted
	// iteration.
	Trace() []float64
}

// outcome holds the results shared by the minimizers.
type outcome struct {
	result     *Point
	gradient   []float64
	hessian    *mat.SymDense
	iterations int
	trace      []float64
}

func (o *outcome) reset() { *o = outcome{} }

// finish computes the gradient 2J'e and the Hessian approximation 2J'J at
// the result.
func (o *outcome) finish(jac *mat.Dense) {
	a, g := normalEquations(jac, o.result.Residuals)
	for i := range g {
		g[i] *= 2
	}
	a.ScaleSym(2, a)
	o.gradient, o.hessian = g, a
}

func (o *outcome) Result() *Point         { return o.result }
func (o *outcome) Gradient() []float64    { return o.gradient }
func (o *outcome) Hessian() *mat.SymDense { return o.hessian }
func (o *outcome) Iterations() int        { return o.iterations }
func (o *outcome) Trace() []float64       { return o.trace }
