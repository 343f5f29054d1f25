package likelihood

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/filter"
)

var (
	// ErrSingularRegression is returned when the whitened regressors are
	// linearly dependent or outnumber the observations.
	ErrSingularRegression = errors.New("likelihood: singular regression")
	// ErrDimension is returned when the regressors and the response have
	// different lengths.
	ErrDimension = errors.New("likelihood: dimension mismatch")
)

// rankTolerance is the smallest relative magnitude of a diagonal element of
// the triangular factor of the whitened regressors.
const rankTolerance = 1e-12

// Computer computes concentrated likelihoods.
type Computer struct {
	// KeepResiduals keeps the standardized innovations in the result.
	KeepResiduals bool
	// FilterOptions are passed to filter.Compile.
	FilterOptions []filter.Option
}

// Compute returns the concentrated likelihood of y = x*b + u, where u
// follows arma. x may be nil when there are no regressors.
//
// The response and the columns of x are whitened with the same compiled
// filter, and b is estimated by least squares on the whitened data.
func (c Computer) Compute(y []float64, x mat.Matrix, arma arima.Arma) (*Concentrated, error) {
	n := len(y)
	nx := 0
	if x != nil {
		r, cols := x.Dims()
		if r != n {
			return nil, fmt.Errorf("%w: %d observations, %d rows of regressors", ErrDimension, n, r)
		}
		nx = cols
	}
	if nx >= n && nx > 0 {
		return nil, fmt.Errorf("%w: %d regressors for %d observations", ErrSingularRegression, nx, n)
	}

	plan, err := filter.Compile(arma, n, c.FilterOptions...)
	if err != nil {
		return nil, err
	}
	e := make([]float64, n)
	if err := plan.Apply(y, e); err != nil {
		return nil, err
	}

	ll := &Concentrated{n: n, nx: nx, ldet: plan.LogDeterminant()}
	if nx > 0 {
		if err := ll.regress(plan, x, e); err != nil {
			return nil, err
		}
	}
	ll.ssq = floats.Dot(e, e)
	if c.KeepResiduals {
		ll.res = e
	}
	return ll, nil
}

// regress removes the GLS regression effects from the whitened response e.
func (ll *Concentrated) regress(plan *filter.Plan, x mat.Matrix, e []float64) error {
	n, nx := ll.n, ll.nx
	xw := mat.NewDense(n, nx, nil)
	col := make([]float64, n)
	for j := 0; j < nx; j++ {
		mat.Col(col, j, x)
		if err := plan.Apply(col, col); err != nil {
			return err
		}
		xw.SetCol(j, col)
	}

	var qr mat.QR
	qr.Factorize(xw)
	var r mat.Dense
	qr.RTo(&r)
	rmax := 0.0
	for i := 0; i < nx; i++ {
		rmax = math.Max(rmax, math.Abs(r.At(i, i)))
	}
	for i := 0; i < nx; i++ {
		if d := math.Abs(r.At(i, i)); d == 0 || d <= rankTolerance*rmax {
			return fmt.Errorf("%w: regressor %d", ErrSingularRegression, i)
		}
	}

	ev := mat.NewVecDense(n, e)
	var b mat.VecDense
	if err := qr.SolveVecTo(&b, false, ev); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularRegression, err)
	}
	var fit mat.VecDense
	fit.MulVec(xw, &b)
	ev.SubVec(ev, &fit)

	rt := mat.NewTriDense(nx, mat.Upper, nil)
	for i := 0; i < nx; i++ {
		for j := i; j < nx; j++ {
			rt.SetTri(i, j, r.At(i, j))
		}
	}
	var rinv mat.TriDense
	if err := rinv.InverseTri(rt); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularRegression, err)
	}
	xtx := mat.NewSymDense(nx, nil)
	xtx.SymOuterK(1, &rinv)

	ll.b = mat.Col(nil, 0, &b)
	ll.xtx = xtx
	return nil
}

// Compute returns the concentrated likelihood of y = x*b + u, keeping the
// residuals.
func Compute(y []float64, x mat.Matrix, arma arima.Arma) (*Concentrated, error) {
	return Computer{KeepResiduals: true}.Compute(y, x, arma)
}
