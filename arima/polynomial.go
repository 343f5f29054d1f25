package arima

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// maxModulus is the largest inverse-root modulus kept by Stabilize.
const maxModulus = 1 - 1e-6

// Polynomial is a backshift polynomial c[0] + c[1]B + ... + c[d]B^d with
// c[0] == 1.
type Polynomial []float64

// One returns the constant polynomial 1.
func One() Polynomial {
	return Polynomial{1}
}

// FromAR builds the AR polynomial 1 - phi[0]B - phi[1]B^2 - ...
func FromAR(phi []float64) Polynomial {
	p := make(Polynomial, len(phi)+1)
	p[0] = 1
	for i, v := range phi {
		p[i+1] = -v
	}
	return p
}

// FromMA builds the MA polynomial 1 + theta[0]B + theta[1]B^2 + ...
func FromMA(theta []float64) Polynomial {
	p := make(Polynomial, len(theta)+1)
	p[0] = 1
	copy(p[1:], theta)
	return p
}

// Seasonal spreads coeffs (without the leading 1) over lags that are
// multiples of period: 1 + c[0]B^s + c[1]B^2s + ...
func Seasonal(coeffs []float64, period int) Polynomial {
	p := make(Polynomial, len(coeffs)*period+1)
	p[0] = 1
	for i, v := range coeffs {
		p[(i+1)*period] = v
	}
	return p
}

// Difference returns (1-B)^d (1-B^s)^sd.
func Difference(d, sd, period int) Polynomial {
	p := One()
	for i := 0; i < d; i++ {
		p = p.Times(Polynomial{1, -1})
	}
	for i := 0; i < sd; i++ {
		p = p.Times(Seasonal([]float64{-1}, period))
	}
	return p
}

// Degree returns the degree of the polynomial, ignoring trailing zeros.
func (p Polynomial) Degree() int {
	d := len(p) - 1
	for d > 0 && p[d] == 0 {
		d--
	}
	if d < 0 {
		return 0
	}
	return d
}

// Coefficient returns c[i], or 0 beyond the degree.
func (p Polynomial) Coefficient(i int) float64 {
	if i < 0 || i >= len(p) {
		return 0
	}
	return p[i]
}

// Times returns the product p*q.
func (p Polynomial) Times(q Polynomial) Polynomial {
	if len(p) == 0 || len(q) == 0 {
		return One()
	}
	r := make(Polynomial, len(p)+len(q)-1)
	for i, a := range p {
		if a == 0 {
			continue
		}
		for j, b := range q {
			r[i+j] += a * b
		}
	}
	return r[:r.Degree()+1]
}

// Clone returns a copy of p.
func (p Polynomial) Clone() Polynomial {
	c := make(Polynomial, len(p))
	copy(c, p)
	return c
}

// Apply filters x by p: z[t-d] = sum_i c[i] x[t-i] for t >= d.
// The result has len(x)-d elements.
func (p Polynomial) Apply(x []float64) []float64 {
	d := p.Degree()
	if len(x) <= d {
		return nil
	}
	z := make([]float64, len(x)-d)
	for t := d; t < len(x); t++ {
		s := 0.0
		for i := 0; i <= d; i++ {
			s += p[i] * x[t-i]
		}
		z[t-d] = s
	}
	return z
}

// InverseRoots returns the inverses of the roots of p, computed as the
// eigenvalues of the companion matrix of z^d + c[1]z^(d-1) + ... + c[d].
func (p Polynomial) InverseRoots() []complex128 {
	d := p.Degree()
	switch d {
	case 0:
		return nil
	case 1:
		return []complex128{complex(-p[1]/p[0], 0)}
	}
	c := mat.NewDense(d, d, nil)
	for j := 0; j < d; j++ {
		c.Set(0, j, -p[j+1]/p[0])
	}
	for i := 1; i < d; i++ {
		c.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenNone); !ok {
		return nil
	}
	return eig.Values(nil)
}

// MaxInverseRootModulus returns the largest modulus of the inverse roots.
// The polynomial is stationary (invertible) when it is below 1.
func (p Polynomial) MaxInverseRootModulus() float64 {
	if p.Degree() == 0 {
		return 0
	}
	roots := p.InverseRoots()
	if roots == nil {
		return math.NaN()
	}
	m := 0.0
	for _, r := range roots {
		if a := cmplx.Abs(r); a > m {
			m = a
		}
	}
	return m
}

// IsStable reports whether all the roots of p lie outside the unit circle.
func (p Polynomial) IsStable() bool {
	m := p.MaxInverseRootModulus()
	return !math.IsNaN(m) && m < 1
}

// Stabilize reflects the roots lying inside (or on) the unit circle and
// returns the resulting polynomial. The boolean is true when p was changed.
func (p Polynomial) Stabilize() (Polynomial, bool) {
	d := p.Degree()
	if d == 0 || p.IsStable() {
		return p, false
	}
	roots := p.InverseRoots()
	if roots == nil {
		return p, false
	}
	for i, r := range roots {
		a := cmplx.Abs(r)
		if a >= 1 {
			r /= complex(a*a, 0)
			a = 1 / a
		}
		if a > maxModulus {
			r *= complex(maxModulus/a, 0)
		}
		roots[i] = r
	}
	// prod (1 - r_i B)
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	s := make(Polynomial, d+1)
	for i := range s {
		s[i] = real(c[i])
	}
	return s, true
}
