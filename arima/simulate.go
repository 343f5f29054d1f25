package arima

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulate draws n observations of the stationary ARMA part of m, after
// discarding burnin warm-up values. The draw is reproducible for a seed.
func Simulate(m Arma, n, burnin int, seed uint64) []float64 {
	if n <= 0 {
		return nil
	}
	if burnin < 0 {
		burnin = 0
	}
	ar, ma := m.AR(), m.MA()
	p, q := ar.Degree(), ma.Degree()

	noise := distuv.Normal{
		Mu:    0,
		Sigma: math.Sqrt(m.InnovationVariance()),
		Src:   rand.NewSource(seed),
	}

	total := n + burnin
	y := make([]float64, total)
	e := make([]float64, total)
	for t := 0; t < total; t++ {
		e[t] = noise.Rand()
		v := e[t]
		for j := 1; j <= q && t-j >= 0; j++ {
			v += ma[j] * e[t-j]
		}
		for i := 1; i <= p && t-i >= 0; i++ {
			v -= ar[i] * y[t-i]
		}
		y[t] = v
	}
	return y[burnin:]
}

// Integrate undoes differencing: it returns x such that delta(B) x = z,
// using start as the first delta.Degree() values of x.
func Integrate(delta Polynomial, z, start []float64) []float64 {
	d := delta.Degree()
	x := make([]float64, d+len(z))
	copy(x, start)
	for t := d; t < len(x); t++ {
		v := z[t-d]
		for i := 1; i <= d; i++ {
			v -= delta[i] * x[t-i]
		}
		x[t] = v / delta[0]
	}
	return x
}
