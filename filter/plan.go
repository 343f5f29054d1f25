package filter

import (
	"fmt"
	"math"

	"github.com/sartorproj/regarima/arima"
)

// Plan is a compiled filter: the full trace of gains and prediction
// standard deviations for a model and a length. A Plan is immutable and may
// be shared by concurrent callers of Apply.
type Plan struct {
	shape
	n    int
	gain []float64 // rows of length dim, one per step until steady state
	s    []float64 // sqrt(h), one per step until steady state
	ldet float64
}

// Compile computes the plan of model for sequences of length n.
func Compile(model arima.Arma, n int, opts ...Option) (*Plan, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLength, n)
	}
	cfg := newConfig(opts)
	st, err := newState(model, cfg.tol)
	if err != nil {
		return nil, err
	}

	dim := st.dim
	pl := &Plan{
		shape: st.shape,
		n:     n,
		gain:  make([]float64, 0, dim*min(n, 64)),
		s:     make([]float64, 0, min(n, 64)),
	}
	pl.gain = append(pl.gain, st.c...)
	pl.s = append(pl.s, math.Sqrt(st.h))
	pl.ldet = math.Log(st.h)

	for pos := 1; pos < n; pos++ {
		if st.steady {
			// the remaining steps reuse the last row
			pl.ldet += float64(n-pos) * math.Log(st.h)
			break
		}
		st.update()
		if err := st.check(pos); err != nil {
			return nil, err
		}
		pl.gain = append(pl.gain, st.c...)
		pl.s = append(pl.s, math.Sqrt(st.h))
		pl.ldet += math.Log(st.h)
	}
	return pl, nil
}

// Len returns the length of the sequences the plan applies to.
func (pl *Plan) Len() int { return pl.n }

// Dim returns the dimension of the recursion, max(p, q+1).
func (pl *Plan) Dim() int { return pl.dim }

// SteadyStep returns the first step from which the gains are frozen, or
// Len() when the steady state is never reached.
func (pl *Plan) SteadyStep() int {
	if len(pl.s) < pl.n {
		return len(pl.s)
	}
	return pl.n
}

// LogDeterminant returns the log-determinant of the covariance matrix of
// the sequences the plan applies to.
func (pl *Plan) LogDeterminant() float64 { return pl.ldet }

// Apply writes the standardized innovations of y to out. Both slices must
// have length Len(); out may alias y.
func (pl *Plan) Apply(y, out []float64) error {
	if len(y) != pl.n {
		return fmt.Errorf("%w: data has %d elements, want %d", ErrLength, len(y), pl.n)
	}
	if len(out) != pl.n {
		return fmt.Errorf("%w: output has %d elements, want %d", ErrLength, len(out), pl.n)
	}
	dim := pl.dim
	rows := len(pl.s)
	a := make([]float64, dim)
	for pos := 0; pos < pl.n; pos++ {
		r := pos
		if r >= rows {
			r = rows - 1
		}
		s := pl.s[r]
		e := (y[pos] - a[0]) / s
		out[pos] = e
		pl.predict(a, pl.gain[r*dim:(r+1)*dim], e/s)
	}
	return nil
}
