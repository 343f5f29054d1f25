package arima

import (
	"fmt"
	"math"

	"github.com/sartorproj/regarima/params"
)

const (
	defaultAR = 0.1
	defaultMA = 0.1
	// step used for numerical derivatives
	epsilon = 1e-6
)

// Mapping maps [phi_1..phi_p, theta_1..theta_q] onto ARIMA models sharing
// a fixed differencing polynomial. Mapped models have unit variance.
type Mapping struct {
	p, q  int
	delta Polynomial
}

var _ params.Mapping[*Model] = (*Mapping)(nil)

// NewMapping creates the mapping of ARIMA(p, ., q) models whose
// differencing polynomial is delta (nil means no differencing).
func NewMapping(p, q int, delta Polynomial) *Mapping {
	return &Mapping{p: p, q: q, delta: normalize(delta)}
}

// MappingOf returns the mapping matching the orders of m.
func MappingOf(m *Model) params.Mapping[*Model] {
	o := m.Order()
	return NewMapping(o.P, o.Q, m.delta)
}

// Dim returns p + q.
func (mp *Mapping) Dim() int { return mp.p + mp.q }

// LowerBound returns -1 for a lone coefficient, -Inf otherwise.
func (mp *Mapping) LowerBound(i int) float64 {
	if mp.single(i) {
		return -1
	}
	return math.Inf(-1)
}

// UpperBound returns 1 for a lone coefficient, +Inf otherwise.
func (mp *Mapping) UpperBound(i int) float64 {
	if mp.single(i) {
		return 1
	}
	return math.Inf(1)
}

func (mp *Mapping) single(i int) bool {
	if i < mp.p {
		return mp.p == 1
	}
	return mp.q == 1
}

// CheckBoundaries reports whether the AR part is stationary and the MA part
// invertible.
func (mp *Mapping) CheckBoundaries(p []float64) bool {
	if len(p) != mp.Dim() {
		return false
	}
	for _, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return FromAR(p[:mp.p]).IsStable() && FromMA(p[mp.p:]).IsStable()
}

// Epsilon returns a small step pointing towards zero.
func (mp *Mapping) Epsilon(p []float64, i int) float64 {
	if p[i] > 0 {
		return -epsilon
	}
	return epsilon
}

// Validate stabilizes the AR and MA polynomials in place.
func (mp *Mapping) Validate(p []float64) params.Validation {
	if len(p) != mp.Dim() {
		return params.Invalid
	}
	for _, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return params.Invalid
		}
	}
	rslt := params.Valid
	if ar, changed := FromAR(p[:mp.p]).Stabilize(); changed {
		for i := 0; i < mp.p; i++ {
			p[i] = -ar.Coefficient(i + 1)
		}
		rslt = params.Changed
	}
	if ma, changed := FromMA(p[mp.p:]).Stabilize(); changed {
		for i := 0; i < mp.q; i++ {
			p[mp.p+i] = ma.Coefficient(i + 1)
		}
		rslt = params.Changed
	}
	return rslt
}

// DefaultParameters returns small positive coefficients.
func (mp *Mapping) DefaultParameters() []float64 {
	p := make([]float64, mp.Dim())
	for i := range p {
		if i < mp.p {
			p[i] = defaultAR
		} else {
			p[i] = defaultMA
		}
	}
	return p
}

// Description returns "phi(i)" or "theta(i)".
func (mp *Mapping) Description(i int) string {
	if i < mp.p {
		return fmt.Sprintf("phi(%d)", i+1)
	}
	return fmt.Sprintf("theta(%d)", i-mp.p+1)
}

// Map creates the model with the given coefficients.
func (mp *Mapping) Map(p []float64) (*Model, error) {
	if len(p) != mp.Dim() {
		return nil, fmt.Errorf("arima: expected %d parameters, got %d", mp.Dim(), len(p))
	}
	return New(FromAR(p[:mp.p]), mp.delta, FromMA(p[mp.p:]), 1), nil
}

// ParametersOf returns the coefficients of m, truncated or zero-padded to
// the orders of the mapping.
func (mp *Mapping) ParametersOf(m *Model) []float64 {
	p := make([]float64, mp.Dim())
	for i := 0; i < mp.p; i++ {
		p[i] = -m.ar.Coefficient(i + 1)
	}
	for i := 0; i < mp.q; i++ {
		p[mp.p+i] = m.ma.Coefficient(i + 1)
	}
	return p
}
