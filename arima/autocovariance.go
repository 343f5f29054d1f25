package arima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// AutoCovariance returns the autocovariances gamma(0..k-1) of the stationary
// process ar(B) y_t = ma(B) e_t with var(e_t) = variance.
//
// gamma(0..p) solve the linear system
//
//	sum_i ar_i gamma(|j-i|) = variance * sum_{l>=j} ma_l psi_{l-j},  j = 0..p
//
// where psi are the MA(infinity) weights; later lags follow the AR recursion.
func AutoCovariance(ar, ma Polynomial, variance float64, k int) ([]float64, error) {
	if variance < 0 || math.IsNaN(variance) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidVariance, variance)
	}
	if k <= 0 {
		return []float64{}, nil
	}
	ar, ma = normalize(ar), normalize(ma)
	p := ar.Degree()
	q := ma.Degree()

	psi := make([]float64, q+1)
	for j := 0; j <= q; j++ {
		s := ma.Coefficient(j)
		for i := 1; i <= p && i <= j; i++ {
			s -= ar[i] * psi[j-i]
		}
		psi[j] = s
	}
	rhs := func(j int) float64 {
		s := 0.0
		for l := j; l <= q; l++ {
			s += ma[l] * psi[l-j]
		}
		return variance * s
	}

	n := k
	if n < p+1 {
		n = p + 1
	}
	g := make([]float64, n)
	if p == 0 {
		for j := range g {
			g[j] = rhs(j)
		}
		return g[:k], nil
	}

	a := mat.NewDense(p+1, p+1, nil)
	b := mat.NewVecDense(p+1, nil)
	for j := 0; j <= p; j++ {
		for i := 0; i <= p; i++ {
			c := j - i
			if c < 0 {
				c = -c
			}
			a.Set(j, c, a.At(j, c)+ar[i])
		}
		b.SetVec(j, rhs(j))
	}
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotStationary, err)
	}
	for j := 0; j <= p; j++ {
		g[j] = x.AtVec(j)
	}
	for t := p + 1; t < n; t++ {
		s := rhs(t)
		for i := 1; i <= p; i++ {
			s -= ar[i] * g[t-i]
		}
		g[t] = s
	}
	return g[:k], nil
}

// AutoCorrelation returns gamma(0..k-1) / gamma(0).
func AutoCorrelation(m Arma, k int) ([]float64, error) {
	g, err := AutoCovariance(m.AR(), m.MA(), 1, k)
	if err != nil {
		return nil, err
	}
	if len(g) == 0 {
		return g, nil
	}
	if g[0] <= 0 {
		return nil, ErrNotStationary
	}
	g0 := g[0]
	for i := range g {
		g[i] /= g0
	}
	return g, nil
}
