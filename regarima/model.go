// Package regarima estimates regression models with ARIMA errors by
// generalized least squares.
package regarima

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/likelihood"
)

var (
	// ErrInsufficientData is returned when the differenced series is too
	// short for the regression variables.
	ErrInsufficientData = errors.New("regarima: insufficient data")
	// ErrOptimizationFailed is returned when the estimation loop cannot
	// improve on its starting point or the minimizer fails.
	ErrOptimizationFailed = errors.New("regarima: optimization failed")
)

// Model is the regression model y = X b + u, where u follows the ARIMA
// model M. Model values are immutable.
type Model[M arima.Family[M]] struct {
	y     []float64
	x     *mat.Dense
	mean  bool
	arima M
}

// NewModel creates a model. x may be nil when there are no regression
// variables; mean adds a mean correction to the differenced model.
func NewModel[M arima.Family[M]](y []float64, x *mat.Dense, mean bool, model M) (*Model[M], error) {
	if len(y) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientData)
	}
	if x != nil {
		if r, _ := x.Dims(); r != len(y) {
			return nil, fmt.Errorf("%w: %d rows of regressors for %d observations", likelihood.ErrDimension, r, len(y))
		}
	}
	return &Model[M]{y: append([]float64(nil), y...), x: x, mean: mean, arima: model}, nil
}

// Y returns the response.
func (m *Model[M]) Y() []float64 { return append([]float64(nil), m.y...) }

// X returns the regression variables, or nil.
func (m *Model[M]) X() *mat.Dense { return m.x }

// HasMean reports whether the model has a mean correction.
func (m *Model[M]) HasMean() bool { return m.mean }

// Arima returns the ARIMA model of the errors.
func (m *Model[M]) Arima() M { return m.arima }

// WithArima returns a copy of the model with other ARIMA errors.
func (m *Model[M]) WithArima(model M) *Model[M] {
	c := *m
	c.arima = model
	return &c
}

// VariablesCount returns the number of regression variables, the mean
// included.
func (m *Model[M]) VariablesCount() int {
	n := 0
	if m.x != nil {
		_, n = m.x.Dims()
	}
	if m.mean {
		n++
	}
	return n
}

// DifferencedModel applies the differencing polynomial of the ARIMA model
// to the response and to the regression variables. The mean correction
// becomes a constant column of the differenced design.
func (m *Model[M]) DifferencedModel() (*ArmaModel[M], error) {
	delta := m.arima.Differencing()
	yd := delta.Apply(m.y)
	nx := m.VariablesCount()
	if len(yd) <= nx {
		return nil, fmt.Errorf("%w: %d observations after differencing for %d variables",
			ErrInsufficientData, len(yd), nx)
	}

	var xd *mat.Dense
	if nx > 0 {
		n := len(yd)
		xd = mat.NewDense(n, nx, nil)
		j := 0
		if m.mean {
			for i := 0; i < n; i++ {
				xd.Set(i, 0, 1)
			}
			j++
		}
		if m.x != nil {
			_, c := m.x.Dims()
			for k := 0; k < c; k++ {
				xd.SetCol(j+k, delta.Apply(mat.Col(nil, k, m.x)))
			}
		}
	}
	return &ArmaModel[M]{y: yd, x: xd, arma: m.arima.Stationary()}, nil
}

// ArmaModel is a regression model with stationary ARMA errors, usually
// obtained by differencing a Model.
type ArmaModel[M arima.Family[M]] struct {
	y    []float64
	x    *mat.Dense
	arma M
}

// Y returns the differenced response.
func (a *ArmaModel[M]) Y() []float64 { return a.y }

// X returns the differenced design, or nil.
func (a *ArmaModel[M]) X() *mat.Dense { return a.x }

// Arma returns the stationary model.
func (a *ArmaModel[M]) Arma() M { return a.arma }

// WithArma returns a copy of the model with another stationary model.
func (a *ArmaModel[M]) WithArma(model M) *ArmaModel[M] {
	c := *a
	c.arma = model
	return &c
}

// VariablesCount returns the number of columns of the design.
func (a *ArmaModel[M]) VariablesCount() int {
	if a.x == nil {
		return 0
	}
	_, c := a.x.Dims()
	return c
}

// design returns the design as a mat.Matrix, nil when there is none.
func (a *ArmaModel[M]) design() mat.Matrix {
	if a.x == nil {
		return nil
	}
	return a.x
}

// Likelihood returns the concentrated likelihood of the model, with its
// residuals.
func (a *ArmaModel[M]) Likelihood() (*likelihood.Concentrated, error) {
	return likelihood.Compute(a.y, a.design(), a.arma)
}
