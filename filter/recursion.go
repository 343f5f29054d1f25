package filter

import (
	"fmt"
	"math"

	"github.com/sartorproj/regarima/arima"
)

// shape holds what the AR part of the recursion needs: the AR polynomial,
// its degree and the dimension of the state vectors.
type shape struct {
	ar  arima.Polynomial
	p   int
	dim int
}

// tlast returns the last element of the transition applied to x:
// -sum_{i=1..p} ar[i] x[dim-i].
func (sh shape) tlast(x []float64) float64 {
	last := 0.0
	for i := 1; i <= sh.p; i++ {
		last -= sh.ar[i] * x[sh.dim-i]
	}
	return last
}

// predict moves the state a one step ahead, given the gain c and the
// scaled innovation v.
func (sh shape) predict(a, c []float64, v float64) {
	la := sh.tlast(a)
	last := sh.dim - 1
	for i := 0; i < last; i++ {
		a[i] = a[i+1] + c[i]*v
	}
	a[last] = la + c[last]*v
}

// state is the mutable part of the recursion: the covariance vectors C and
// L and the one-step prediction variance h.
type state struct {
	shape
	variance float64
	tol      float64
	c, l     []float64
	h        float64
	steady   bool
}

// newState derives the initial state of the recursion for model.
func newState(model arima.Arma, tol float64) (*state, error) {
	variance := model.InnovationVariance()
	if math.IsNaN(variance) || math.IsInf(variance, 0) || variance <= 0 {
		return nil, fmt.Errorf("%w: innovation variance %g", ErrInvalidModel, variance)
	}
	ar, ma := model.AR(), model.MA()
	if !finite(ar) || !finite(ma) {
		return nil, fmt.Errorf("%w: non-finite coefficients", ErrInvalidModel)
	}
	p := ar.Degree()
	dim := ma.Degree() + 1
	if p > dim {
		dim = p
	}
	c0, err := arima.AutoCovariance(ar, ma, variance, dim)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}
	h0 := c0[0]
	if math.IsNaN(h0) || math.IsInf(h0, 0) || h0 <= 0 {
		return nil, fmt.Errorf("%w: variance of the process %g", ErrInvalidModel, h0)
	}
	st := &state{
		shape:    shape{ar: ar, p: p, dim: dim},
		variance: variance,
		tol:      tol,
		h:        h0,
	}
	// [g0..g(dim-1)] -> [g1..g(dim)]
	last := st.tlast(c0)
	copy(c0, c0[1:])
	c0[dim-1] = last
	st.c = c0
	st.l = append([]float64(nil), c0...)
	return st, nil
}

func (st *state) clone() *state {
	c := *st
	c.c = append([]float64(nil), st.c...)
	c.l = append([]float64(nil), st.l...)
	return &c
}

// update applies the rank-one correction of one step to C, L and h.
func (st *state) update() {
	zl := st.l[0]
	zlv := zl / st.h
	llast := st.tlast(st.l)
	last := st.dim - 1
	clast := st.c[last]

	if zlv != 0 {
		for i := 0; i < last; i++ {
			li := st.l[i+1]
			st.l[i] = li - st.c[i]*zlv
			st.c[i] -= zlv * li
		}
	} else {
		copy(st.l, st.l[1:])
	}
	st.l[last] = llast - zlv*clast
	st.c[last] -= zlv * llast

	st.h -= zl * zlv
	if st.h < st.variance {
		st.h = st.variance
	}
	if st.tol >= 0 && st.h-st.variance <= st.tol*st.variance {
		st.steady = true
	}
}

// check fails on a prediction variance that is not a positive number.
func (st *state) check(pos int) error {
	if math.IsNaN(st.h) || math.IsInf(st.h, 0) || st.h <= 0 {
		return fmt.Errorf("%w: prediction variance %g at step %d", ErrInvalidModel, st.h, pos)
	}
	return nil
}

// sweep runs the recursion over n steps and returns the log-determinant.
// When y is nil only the determinant is computed, and the sweep stops as
// soon as the steady state is reached. Otherwise the standardized
// innovations of y are written to out.
func (st *state) sweep(n int, y, out []float64) (float64, error) {
	var a []float64
	if y != nil {
		a = make([]float64, st.dim)
	}
	ldet := 0.0
	for pos := 0; pos < n; pos++ {
		if pos > 0 && !st.steady {
			st.update()
		}
		if err := st.check(pos); err != nil {
			return 0, err
		}
		if y == nil {
			if st.steady {
				ldet += float64(n-pos) * math.Log(st.h)
				break
			}
			ldet += math.Log(st.h)
			continue
		}
		ldet += math.Log(st.h)
		s := math.Sqrt(st.h)
		e := (y[pos] - a[0]) / s
		out[pos] = e
		st.predict(a, st.c, e/s)
	}
	return ldet, nil
}

func finite(p arima.Polynomial) bool {
	for _, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
