// Package ssq defines sum-of-squares objectives and their minimizers.
package ssq

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/params"
)

// ErrInvalidStart is returned when the starting parameters lie outside the
// domain and cannot be repaired.
var ErrInvalidStart = errors.New("ssq: invalid starting point")

// Function is an objective of the form sum_i e_i(p)^2 over a parameter
// domain. Evaluate must be safe for concurrent use.
type Function interface {
	Domain() params.Domain
	Evaluate(p []float64) (*Point, error)
}

// Differentiable is a Function that computes its own Jacobian, the matrix
// of the derivatives of the residuals with respect to the parameters.
type Differentiable interface {
	Function
	Jacobian(ctx context.Context, pt *Point) (*mat.Dense, error)
}

// Point is an evaluation of a Function.
type Point struct {
	Parameters []float64
	Residuals  []float64
	Ssq        float64
}

// NewPoint creates the point of parameters p with residuals e.
func NewPoint(p, e []float64) *Point {
	return &Point{Parameters: p, Residuals: e, Ssq: floats.Dot(e, e)}
}

// Jacobian returns the Jacobian of fn at pt, computed by fn itself when it
// is Differentiable and by forward differences otherwise.
func Jacobian(ctx context.Context, fn Function, pt *Point) (*mat.Dense, error) {
	if d, ok := fn.(Differentiable); ok {
		return d.Jacobian(ctx, pt)
	}
	return NumericalJacobian(ctx, fn, pt, false)
}

// NumericalJacobian computes the Jacobian of fn at pt by forward
// differences, using the steps given by the domain. Steps that leave the
// domain are reversed. When parallel is set the columns are evaluated
// concurrently.
func NumericalJacobian(ctx context.Context, fn Function, pt *Point, parallel bool) (*mat.Dense, error) {
	d := fn.Domain()
	n, m := len(pt.Residuals), len(pt.Parameters)
	if n == 0 || m == 0 {
		return nil, fmt.Errorf("ssq: empty point (%d residuals, %d parameters)", n, m)
	}
	jac := mat.NewDense(n, m, nil)

	column := func(i int) error {
		p := append([]float64(nil), pt.Parameters...)
		eps := d.Epsilon(p, i)
		p[i] += eps
		if !d.CheckBoundaries(p) {
			eps = -eps
			p[i] = pt.Parameters[i] + eps
		}
		q, err := fn.Evaluate(p)
		if err != nil {
			return fmt.Errorf("ssq: derivative of %s: %w", d.Description(i), err)
		}
		if len(q.Residuals) != n {
			return fmt.Errorf("ssq: derivative of %s: %d residuals, want %d", d.Description(i), len(q.Residuals), n)
		}
		col := make([]float64, n)
		floats.SubTo(col, q.Residuals, pt.Residuals)
		floats.Scale(1/eps, col)
		jac.SetCol(i, col)
		return nil
	}

	if !parallel {
		for i := 0; i < m; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := column(i); err != nil {
				return nil, err
			}
		}
		return jac, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return column(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return jac, nil
}

// normalEquations returns J'J and J'e.
func normalEquations(jac *mat.Dense, e []float64) (*mat.SymDense, []float64) {
	_, m := jac.Dims()
	a := mat.NewSymDense(m, nil)
	a.SymOuterK(1, jac.T())
	var g mat.VecDense
	g.MulVec(jac.T(), mat.NewVecDense(len(e), e))
	return a, mat.Col(nil, 0, &g)
}
