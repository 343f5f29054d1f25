// Package arima implements ARIMA (AutoRegressive Integrated Moving Average) models.
package arima

import (
	"errors"
	"fmt"
)

var (
	// ErrNotStationary is returned when the autocovariance of a model with a
	// non-stationary AR polynomial is requested.
	ErrNotStationary = errors.New("arima: model is not stationary")
	// ErrInvalidVariance is returned for a negative or NaN innovation variance.
	ErrInvalidVariance = errors.New("arima: invalid innovation variance")
)

// Arma is the part of a model needed to compute its covariance structure.
type Arma interface {
	// AR returns the stationary autoregressive polynomial.
	AR() Polynomial
	// MA returns the moving average polynomial.
	MA() Polynomial
	// InnovationVariance returns the variance of the innovations.
	InnovationVariance() float64
}

// Family is implemented by the model types the estimation engine can handle.
type Family[M any] interface {
	Arma
	// Differencing returns the non-stationary AR polynomial.
	Differencing() Polynomial
	// Stationary returns the model without its differencing polynomial.
	Stationary() M
	// WithVariance returns a copy of the model with another innovation
	// variance.
	WithVariance(v float64) M
}

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// String returns the order as "(p,d,q)".
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model is an immutable ARIMA model:
//
//	AR(B) Delta(B) y_t = MA(B) e_t,  e_t ~ N(0, variance)
type Model struct {
	ar       Polynomial
	delta    Polynomial
	ma       Polynomial
	variance float64
}

// New creates a model from its polynomials. Empty polynomials stand for 1.
// The orders of the AR and MA parts are the lengths of their polynomials,
// so zero coefficients at the highest lags are kept.
func New(ar, delta, ma Polynomial, variance float64) *Model {
	return &Model{
		ar:       declared(ar),
		delta:    normalize(delta),
		ma:       declared(ma),
		variance: variance,
	}
}

// NewArma creates a stationary ARMA model from conventional coefficients:
//
//	y_t = phi_1 y_{t-1} + ... + e_t + theta_1 e_{t-1} + ...
func NewArma(phi, theta []float64, variance float64) *Model {
	return New(FromAR(phi), One(), FromMA(theta), variance)
}

// NewArima creates an ARIMA(p,d,q) model with unit variance.
func NewArima(phi []float64, d int, theta []float64) *Model {
	return New(FromAR(phi), Difference(d, 0, 1), FromMA(theta), 1)
}

func declared(p Polynomial) Polynomial {
	if len(p) == 0 {
		return One()
	}
	return p.Clone()
}

func normalize(p Polynomial) Polynomial {
	if len(p) == 0 {
		return One()
	}
	c := p.Clone()
	return c[:c.Degree()+1]
}

// AR returns the stationary AR polynomial.
func (m *Model) AR() Polynomial { return m.ar.Clone() }

// MA returns the MA polynomial.
func (m *Model) MA() Polynomial { return m.ma.Clone() }

// Differencing returns the differencing polynomial.
func (m *Model) Differencing() Polynomial { return m.delta.Clone() }

// InnovationVariance returns the innovation variance.
func (m *Model) InnovationVariance() float64 { return m.variance }

// Order returns the orders (p, d, q) of the model, d being the degree of
// the differencing polynomial.
func (m *Model) Order() Order {
	return Order{P: len(m.ar) - 1, D: m.delta.Degree(), Q: len(m.ma) - 1}
}

// Phi returns the conventional AR coefficients.
func (m *Model) Phi() []float64 {
	phi := make([]float64, len(m.ar)-1)
	for i := range phi {
		phi[i] = -m.ar[i+1]
	}
	return phi
}

// Theta returns the conventional MA coefficients.
func (m *Model) Theta() []float64 {
	theta := make([]float64, len(m.ma)-1)
	copy(theta, m.ma[1:])
	return theta
}

// Stationary returns the model without differencing.
func (m *Model) Stationary() *Model {
	return &Model{ar: m.ar, delta: One(), ma: m.ma, variance: m.variance}
}

// WithVariance returns a copy of the model with another innovation variance.
func (m *Model) WithVariance(v float64) *Model {
	return &Model{ar: m.ar, delta: m.delta, ma: m.ma, variance: v}
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

// AutoCovariance returns the first k autocovariances of the stationary part
// of the model.
func (m *Model) AutoCovariance(k int) ([]float64, error) {
	return AutoCovariance(m.ar, m.ma, m.variance, k)
}

// String returns a compact description of the model.
func (m *Model) String() string {
	return fmt.Sprintf("ARIMA%s phi=%v theta=%v var=%g", m.Order(), m.Phi(), m.Theta(), m.variance)
}
