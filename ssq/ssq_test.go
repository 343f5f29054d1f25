package ssq

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/regarima/params"
)

// box is a domain with box constraints.
type box struct {
	lo, hi []float64
}

func unbounded(dim int) *box {
	b := &box{lo: make([]float64, dim), hi: make([]float64, dim)}
	for i := 0; i < dim; i++ {
		b.lo[i], b.hi[i] = math.Inf(-1), math.Inf(1)
	}
	return b
}

func (b *box) Dim() int                 { return len(b.lo) }
func (b *box) LowerBound(i int) float64 { return b.lo[i] }
func (b *box) UpperBound(i int) float64 { return b.hi[i] }
func (b *box) CheckBoundaries(p []float64) bool {
	return params.InBounds(b, p)
}
func (b *box) Epsilon(p []float64, i int) float64 { return 1e-7 }
func (b *box) Validate(p []float64) params.Validation {
	rslt := params.Valid
	for i, x := range p {
		if math.IsNaN(x) {
			return params.Invalid
		}
		if x < b.lo[i] {
			p[i], rslt = b.lo[i], params.Changed
		} else if x > b.hi[i] {
			p[i], rslt = b.hi[i], params.Changed
		}
	}
	return rslt
}
func (b *box) DefaultParameters() []float64 { return make([]float64, b.Dim()) }
func (b *box) Description(i int) string     { return params.DefaultDescription(i) }

// rosenbrock is 100(x2-x1^2)^2 + (1-x1)^2 written as a sum of squares.
type rosenbrock struct {
	dom   params.Domain
	fails func(p []float64) bool
}

func (r rosenbrock) Domain() params.Domain { return r.dom }

func (r rosenbrock) Evaluate(p []float64) (*Point, error) {
	if r.fails != nil && r.fails(p) {
		return nil, errors.New("evaluation failed")
	}
	e := []float64{10 * (p[1] - p[0]*p[0]), 1 - p[0]}
	return NewPoint(append([]float64(nil), p...), e), nil
}

func analyticJacobian(p []float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		-20 * p[0], 10,
		-1, 0,
	})
}

// linear is the residual vector A p - b.
type linear struct {
	a *mat.Dense
	b []float64
}

func (l linear) Domain() params.Domain {
	_, c := l.a.Dims()
	return unbounded(c)
}

func (l linear) Evaluate(p []float64) (*Point, error) {
	var e mat.VecDense
	e.MulVec(l.a, mat.NewVecDense(len(p), p))
	e.SubVec(&e, mat.NewVecDense(len(l.b), l.b))
	return NewPoint(append([]float64(nil), p...), mat.Col(nil, 0, &e)), nil
}

func assertMonotone(t *testing.T, trace []float64) {
	t.Helper()
	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		if trace[i] > trace[i-1] {
			t.Errorf("trace not monotone at %d: %g > %g", i, trace[i], trace[i-1])
		}
	}
	for _, v := range trace {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite objective in trace")
	}
}

func TestLevenbergMarquardtLinear(t *testing.T) {
	fn := linear{
		a: mat.NewDense(4, 2, []float64{1, 0, 1, 1, 1, 2, 1, 3}),
		b: []float64{1, 2.9, 5.1, 7},
	}
	lm := NewLevenbergMarquardt()
	converged, err := lm.Minimize(context.Background(), fn, []float64{0, 0})
	require.NoError(t, err)
	assert.True(t, converged)

	// normal equations solution
	var want mat.VecDense
	require.NoError(t, want.SolveVec(fn.a, mat.NewVecDense(4, fn.b)))
	if diff := cmp.Diff(mat.Col(nil, 0, &want), lm.Result().Parameters, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("parameters mismatch (-want +got):\n%s", diff)
	}
	assertMonotone(t, lm.Trace())
	for _, g := range lm.Gradient() {
		assert.InDelta(t, 0, g, 1e-5)
	}
	// Hessian of the sum of squares of a linear model is 2A'A
	h := lm.Hessian()
	assert.InDelta(t, 8, h.At(0, 0), 1e-5)
	assert.InDelta(t, 12, h.At(0, 1), 1e-5)
	assert.InDelta(t, 28, h.At(1, 1), 1e-5)
}

func TestLevenbergMarquardtRosenbrock(t *testing.T) {
	lm := NewLevenbergMarquardt()
	lm.SetFunctionPrecision(1e-15)
	assert.Equal(t, 1e-15, lm.FunctionPrecision())

	converged, err := lm.Minimize(context.Background(), rosenbrock{dom: unbounded(2)}, []float64{-1.2, 1})
	require.NoError(t, err)
	assert.True(t, converged)
	assert.InDelta(t, 1, lm.Result().Parameters[0], 1e-4)
	assert.InDelta(t, 1, lm.Result().Parameters[1], 1e-4)
	assert.Greater(t, lm.Iterations(), 0)
	assert.Len(t, lm.Trace(), lm.Iterations()+1)
	assertMonotone(t, lm.Trace())
}

func TestLevenbergMarquardtDomain(t *testing.T) {
	dom := &box{lo: []float64{-2, -2}, hi: []float64{0.5, 2}}
	lm := NewLevenbergMarquardt()
	_, err := lm.Minimize(context.Background(), rosenbrock{dom: dom}, []float64{-1.2, 1})
	require.NoError(t, err)

	p := lm.Result().Parameters
	assert.True(t, dom.CheckBoundaries(p), "result %v outside the domain", p)
	assertMonotone(t, lm.Trace())
}

func TestLevenbergMarquardtRejectsFailures(t *testing.T) {
	fn := rosenbrock{
		dom:   unbounded(2),
		fails: func(p []float64) bool { return p[0] > 0.9 && p[1] < 0.5 },
	}
	lm := NewLevenbergMarquardt()
	_, err := lm.Minimize(context.Background(), fn, []float64{-1.2, 1})
	require.NoError(t, err)
	assertMonotone(t, lm.Trace())
	assert.Less(t, lm.Result().Ssq, lm.Trace()[0])
}

func TestInvalidStart(t *testing.T) {
	fn := rosenbrock{dom: unbounded(2), fails: func([]float64) bool { return true }}
	for _, m := range []Minimizer{NewLevenbergMarquardt(), NewGonum(nil)} {
		_, err := m.Minimize(context.Background(), fn, []float64{0, 0})
		assert.ErrorIs(t, err, ErrInvalidStart)

		_, err = m.Minimize(context.Background(), rosenbrock{dom: unbounded(2)}, []float64{math.NaN(), 0})
		assert.ErrorIs(t, err, ErrInvalidStart)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, m := range []Minimizer{NewLevenbergMarquardt(), NewGonum(nil)} {
		converged, err := m.Minimize(ctx, rosenbrock{dom: unbounded(2)}, []float64{-1.2, 1})
		assert.False(t, converged)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestGonum(t *testing.T) {
	tests := []struct {
		name   string
		method optimize.Method
	}{
		{"NelderMead", &optimize.NelderMead{}},
		{"BFGS", &optimize.BFGS{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gm := NewGonum(tt.method)
			gm.Patience = 50
			gm.SetFunctionPrecision(1e-14)
			_, err := gm.Minimize(context.Background(), rosenbrock{dom: unbounded(2)}, []float64{-1.2, 1})
			require.NoError(t, err)
			assert.InDelta(t, 1, gm.Result().Parameters[0], 1e-2)
			assert.InDelta(t, 1, gm.Result().Parameters[1], 2e-2)
			assert.Less(t, gm.Result().Ssq, 1e-3)
			assertMonotone(t, gm.Trace())
			assert.Len(t, gm.Gradient(), 2)
			assert.NotNil(t, gm.Hessian())
		})
	}
}

func TestNumericalJacobian(t *testing.T) {
	fn := rosenbrock{dom: unbounded(2)}
	pt, err := fn.Evaluate([]float64{0.3, -0.4})
	require.NoError(t, err)

	seq, err := NumericalJacobian(context.Background(), fn, pt, false)
	require.NoError(t, err)
	par, err := NumericalJacobian(context.Background(), fn, pt, true)
	require.NoError(t, err)
	assert.True(t, mat.Equal(seq, par))
	assert.True(t, mat.EqualApprox(analyticJacobian(pt.Parameters), seq, 1e-5))

	// steps leaving the domain are reversed
	dom := &box{lo: []float64{-1, -1}, hi: []float64{0.3, -0.4}}
	back, err := NumericalJacobian(context.Background(), rosenbrock{dom: dom}, pt, false)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(analyticJacobian(pt.Parameters), back, 1e-5))
}
