// Package sarima implements Seasonal ARIMA (SARIMA) models.
package sarima

import (
	"errors"
	"fmt"

	"github.com/sartorproj/regarima/arima"
)

// ErrPeriod is returned for seasonal orders without a valid period.
var ErrPeriod = errors.New("sarima: seasonal period must be at least 2")

// Order represents SARIMA model order (p, d, q) x (P, D, Q, m).
type Order struct {
	P int // Non-seasonal AR order
	D int // Non-seasonal differencing order
	Q int // Non-seasonal MA order
	// Seasonal components
	SP int // Seasonal AR order
	SD int // Seasonal differencing order
	SQ int // Seasonal MA order
	M  int // Seasonal period (e.g., 12 for monthly data with yearly seasonality)
}

// IsSeasonal reports whether the order has seasonal components.
func (o Order) IsSeasonal() bool {
	return o.SP+o.SD+o.SQ > 0
}

// ParameterCount returns the number of ARMA coefficients, p + P + q + Q.
func (o Order) ParameterCount() int {
	return o.P + o.SP + o.Q + o.SQ
}

// Validate checks that the orders are non-negative and that seasonal
// components come with a period.
func (o Order) Validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 || o.SP < 0 || o.SD < 0 || o.SQ < 0 {
		return fmt.Errorf("sarima: negative order %s", o)
	}
	if o.IsSeasonal() && o.M < 2 {
		return fmt.Errorf("%w: %s", ErrPeriod, o)
	}
	return nil
}

// String returns the order as "(p,d,q)(P,D,Q)[m]".
func (o Order) String() string {
	if !o.IsSeasonal() {
		return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
	}
	return fmt.Sprintf("(%d,%d,%d)(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
}

// Model is an immutable SARIMA model:
//
//	phi(B) Phi(B^m) (1-B)^d (1-B^m)^D y_t = theta(B) Theta(B^m) e_t
//
// The product polynomials are computed once at construction.
type Model struct {
	order    Order
	phi      []float64
	sphi     []float64
	theta    []float64
	stheta   []float64
	variance float64

	ar, ma, delta arima.Polynomial
}

var _ arima.Family[*Model] = (*Model)(nil)

// New creates a SARIMA model from its conventional coefficients. The length
// of each coefficient slice must match the corresponding order.
func New(order Order, phi, sphi, theta, stheta []float64, variance float64) (*Model, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if len(phi) != order.P || len(sphi) != order.SP || len(theta) != order.Q || len(stheta) != order.SQ {
		return nil, fmt.Errorf("sarima: coefficients do not match order %s", order)
	}
	m := &Model{
		order:    order,
		phi:      clone(phi),
		sphi:     clone(sphi),
		theta:    clone(theta),
		stheta:   clone(stheta),
		variance: variance,
	}
	m.build()
	return m, nil
}

// Airline returns the airline model (0,1,1)(0,1,1)[period].
func Airline(theta, stheta float64, period int) (*Model, error) {
	return New(Order{D: 1, Q: 1, SD: 1, SQ: 1, M: period},
		nil, nil, []float64{theta}, []float64{stheta}, 1)
}

func (m *Model) build() {
	period := m.order.M
	if period < 1 {
		period = 1
	}
	m.ar = arima.FromAR(m.phi).Times(seasonalAR(m.sphi, period))
	m.ma = arima.FromMA(m.theta).Times(arima.Seasonal(m.stheta, period))
	m.delta = arima.Difference(m.order.D, m.order.SD, period)
}

func seasonalAR(sphi []float64, period int) arima.Polynomial {
	neg := make([]float64, len(sphi))
	for i, v := range sphi {
		neg[i] = -v
	}
	return arima.Seasonal(neg, period)
}

func clone(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	c := make([]float64, len(x))
	copy(c, x)
	return c
}

// Order returns the model order.
func (m *Model) Order() Order { return m.order }

// Phi returns the non-seasonal AR coefficients.
func (m *Model) Phi() []float64 { return clone(m.phi) }

// SeasonalPhi returns the seasonal AR coefficients.
func (m *Model) SeasonalPhi() []float64 { return clone(m.sphi) }

// Theta returns the non-seasonal MA coefficients.
func (m *Model) Theta() []float64 { return clone(m.theta) }

// SeasonalTheta returns the seasonal MA coefficients.
func (m *Model) SeasonalTheta() []float64 { return clone(m.stheta) }

// AR returns the product of the regular and seasonal AR polynomials.
func (m *Model) AR() arima.Polynomial { return m.ar.Clone() }

// MA returns the product of the regular and seasonal MA polynomials.
func (m *Model) MA() arima.Polynomial { return m.ma.Clone() }

// Differencing returns (1-B)^d (1-B^m)^D.
func (m *Model) Differencing() arima.Polynomial { return m.delta.Clone() }

// InnovationVariance returns the innovation variance.
func (m *Model) InnovationVariance() float64 { return m.variance }

// Stationary returns the model without its differencing operators.
func (m *Model) Stationary() *Model {
	s := *m
	s.order.D, s.order.SD = 0, 0
	s.delta = arima.One()
	return &s
}

// WithVariance returns a copy of the model with another innovation variance.
func (m *Model) WithVariance(v float64) *Model {
	s := *m
	s.variance = v
	return &s
}

// AutoCovariance returns the first k autocovariances of the stationary part.
func (m *Model) AutoCovariance(k int) ([]float64, error) {
	return arima.AutoCovariance(m.ar, m.ma, m.variance, k)
}

// IsStationary reports whether the model has no differencing and a stable
// AR polynomial.
func (m *Model) IsStationary() bool {
	return m.delta.Degree() == 0 && m.ar.IsStable()
}

// IsInvertible reports whether the MA polynomial is stable.
func (m *Model) IsInvertible() bool {
	return m.ma.IsStable()
}

// String returns a compact description of the model.
func (m *Model) String() string {
	return fmt.Sprintf("SARIMA%s phi=%v sphi=%v theta=%v stheta=%v var=%g",
		m.order, m.phi, m.sphi, m.theta, m.stheta, m.variance)
}
