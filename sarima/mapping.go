package sarima

import (
	"fmt"
	"math"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/params"
)

const epsilon = 1e-6

// Mapping maps [phi, seasonal phi, theta, seasonal theta] onto SARIMA
// models of a given order. Each of the four factors is kept stable on its
// own, seasonal factors being checked as polynomials in B^m.
type Mapping struct {
	order Order
}

var _ params.Mapping[*Model] = (*Mapping)(nil)

// NewMapping returns the mapping of the models of the given order.
func NewMapping(order Order) (*Mapping, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &Mapping{order: order}, nil
}

// MappingOf returns the mapping matching the order of m.
func MappingOf(m *Model) params.Mapping[*Model] {
	return &Mapping{order: m.order}
}

// Dim returns p + P + q + Q.
func (mp *Mapping) Dim() int { return mp.order.ParameterCount() }

// blocks returns the [start, end) ranges of phi, sphi, theta and stheta.
func (mp *Mapping) blocks() [4][2]int {
	o := mp.order
	a := o.P
	b := a + o.SP
	c := b + o.Q
	d := c + o.SQ
	return [4][2]int{{0, a}, {a, b}, {b, c}, {c, d}}
}

func (mp *Mapping) block(i int) (int, [2]int) {
	for k, r := range mp.blocks() {
		if i >= r[0] && i < r[1] {
			return k, r
		}
	}
	return -1, [2]int{}
}

// LowerBound returns -1 when the parameter is alone in its factor.
func (mp *Mapping) LowerBound(i int) float64 {
	if _, r := mp.block(i); r[1]-r[0] == 1 {
		return -1
	}
	return math.Inf(-1)
}

// UpperBound returns 1 when the parameter is alone in its factor.
func (mp *Mapping) UpperBound(i int) float64 {
	if _, r := mp.block(i); r[1]-r[0] == 1 {
		return 1
	}
	return math.Inf(1)
}

// factor returns the polynomial of block k; blocks 0 and 1 are AR factors.
func factor(k int, p []float64) arima.Polynomial {
	if k < 2 {
		return arima.FromAR(p)
	}
	return arima.FromMA(p)
}

// CheckBoundaries reports whether the four factors are stable.
func (mp *Mapping) CheckBoundaries(p []float64) bool {
	if len(p) != mp.Dim() {
		return false
	}
	for _, x := range p {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	for k, r := range mp.blocks() {
		if r[1] > r[0] && !factor(k, p[r[0]:r[1]]).IsStable() {
			return false
		}
	}
	return true
}

// Epsilon returns a small step pointing towards zero.
func (mp *Mapping) Epsilon(p []float64, i int) float64 {
	if p[i] > 0 {
		return -epsilon
	}
	return epsilon
}

// Validate stabilizes each factor in place.
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
	for k, r := range mp.blocks() {
		if r[1] == r[0] {
			continue
		}
		s, changed := factor(k, p[r[0]:r[1]]).Stabilize()
		if !changed {
			continue
		}
		for i := r[0]; i < r[1]; i++ {
			c := s.Coefficient(i - r[0] + 1)
			if k < 2 {
				c = -c
			}
			p[i] = c
		}
		rslt = params.Changed
	}
	return rslt
}

// DefaultParameters returns small positive coefficients.
func (mp *Mapping) DefaultParameters() []float64 {
	p := make([]float64, mp.Dim())
	for i := range p {
		p[i] = 0.1
	}
	return p
}

// Description returns "phi(i)", "sphi(i)", "theta(i)" or "stheta(i)".
func (mp *Mapping) Description(i int) string {
	k, r := mp.block(i)
	names := [4]string{"phi", "sphi", "theta", "stheta"}
	if k < 0 {
		return params.DefaultDescription(i)
	}
	return fmt.Sprintf("%s(%d)", names[k], i-r[0]+1)
}

// Map creates the unit-variance model with the given coefficients.
func (mp *Mapping) Map(p []float64) (*Model, error) {
	if len(p) != mp.Dim() {
		return nil, fmt.Errorf("sarima: expected %d parameters, got %d", mp.Dim(), len(p))
	}
	b := mp.blocks()
	return New(mp.order, p[b[0][0]:b[0][1]], p[b[1][0]:b[1][1]], p[b[2][0]:b[2][1]], p[b[3][0]:b[3][1]], 1)
}

// ParametersOf returns the coefficients of m in mapping order. Models of
// another order are truncated or zero-padded factor by factor.
func (mp *Mapping) ParametersOf(m *Model) []float64 {
	p := make([]float64, 0, mp.Dim())
	p = appendPadded(p, m.phi, mp.order.P)
	p = appendPadded(p, m.sphi, mp.order.SP)
	p = appendPadded(p, m.theta, mp.order.Q)
	p = appendPadded(p, m.stheta, mp.order.SQ)
	return p
}

func appendPadded(dst, src []float64, n int) []float64 {
	for i := 0; i < n; i++ {
		if i < len(src) {
			dst = append(dst, src[i])
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}
