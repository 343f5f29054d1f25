package ssq

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/regarima/params"
)

// Gonum minimizes the scalar sum of squares with a gonum/optimize method.
// Points outside the domain, or whose evaluation fails, are given an
// infinite objective.
type Gonum struct {
	// Method is the optimization method; nil means Nelder-Mead.
	Method optimize.Method
	// MaxIterations bounds the number of major iterations (0 means no bound).
	MaxIterations int
	// Patience is the number of major iterations without a relative
	// improvement larger than the precision after which the run stops.
	Patience int
	Logger   logr.Logger

	precision float64
	outcome
}

var _ Minimizer = (*Gonum)(nil)

// NewGonum creates a minimizer driving method.
func NewGonum(method optimize.Method) *Gonum {
	return &Gonum{
		Method:        method,
		MaxIterations: 1000,
		Patience:      20,
		Logger:        logr.Discard(),
		precision:     DefaultPrecision,
	}
}

// SetFunctionPrecision sets the relative precision on the objective.
func (gm *Gonum) SetFunctionPrecision(eps float64) { gm.precision = eps }

// FunctionPrecision returns the relative precision on the objective.
func (gm *Gonum) FunctionPrecision() float64 { return gm.precision }

// traceRecorder keeps the objective at each major iteration.
type traceRecorder struct {
	trace []float64
	log   logr.Logger
}

func (r *traceRecorder) Init() error { return nil }

func (r *traceRecorder) Record(loc *optimize.Location, op optimize.Operation, stats *optimize.Stats) error {
	if op != optimize.MajorIteration {
		return nil
	}
	if n := len(r.trace); n == 0 || loc.F < r.trace[n-1] {
		r.trace = append(r.trace, loc.F)
		r.log.V(1).Info("Major iteration", "iteration", stats.MajorIterations, "ssq", loc.F)
	}
	return nil
}

// Minimize minimizes fn from start.
func (gm *Gonum) Minimize(ctx context.Context, fn Function, start []float64) (bool, error) {
	gm.reset()
	dom := fn.Domain()

	p := append([]float64(nil), start...)
	if !dom.CheckBoundaries(p) && dom.Validate(p) == params.Invalid {
		return false, fmt.Errorf("%w: %v", ErrInvalidStart, start)
	}
	first, err := fn.Evaluate(p)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidStart, err)
	}

	objective := func(x []float64) float64 {
		if !dom.CheckBoundaries(x) {
			return math.Inf(1)
		}
		pt, err := fn.Evaluate(x)
		if err != nil {
			return math.Inf(1)
		}
		return pt.Ssq
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			pt, err := fn.Evaluate(x)
			if err != nil {
				fill(grad, math.NaN())
				return
			}
			jac, err := Jacobian(ctx, fn, pt)
			if err != nil {
				fill(grad, math.NaN())
				return
			}
			_, g := normalEquations(jac, pt.Residuals)
			for i := range grad {
				grad[i] = 2 * g[i]
			}
		},
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	rec := &traceRecorder{trace: []float64{first.Ssq}, log: gm.Logger}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Relative:   gm.precision,
			Iterations: gm.Patience,
		},
		MajorIterations: gm.MaxIterations,
		Recorder:        rec,
	}
	method := gm.Method
	if method == nil {
		method = &optimize.NelderMead{}
	}

	res, err := optimize.Minimize(problem, p, settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if res == nil {
		return false, fmt.Errorf("ssq: %w", err)
	}

	best := first
	if res.F < first.Ssq {
		if pt, perr := fn.Evaluate(res.X); perr == nil {
			best = pt
		}
	}
	jac, jerr := Jacobian(ctx, fn, best)
	if jerr != nil {
		return false, jerr
	}
	gm.result = best
	gm.trace = rec.trace
	gm.iterations = res.MajorIterations
	gm.finish(jac)
	return err == nil && !res.Status.Early(), nil
}

func fill(x []float64, v float64) {
	for i := range x {
		x[i] = v
	}
}
