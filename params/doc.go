// Package params defines the contract between models and optimizers.
//
// A Domain describes a box-constrained (and possibly otherwise constrained)
// parameter space. A Mapping additionally converts between a point of the
// domain and a concrete model instance, so that a generic optimizer can work
// on plain []float64 vectors while the likelihood works on models.
//
// # Families
//
// Each model family provides its own mapping:
//
//	m := arima.NewMapping(1, 1, arima.Unit)       // ARMA(1,1)
//	s := sarima.NewMapping(order)                 // seasonal ARMA
//
// Parameters can be held at fixed values with Fix:
//
//	fixed, err := params.Fix[*arima.Model](m, map[int]float64{1: 0.4})
//	// fixed.Dim() == 1, only the AR coefficient is free
//
// # Validation
//
// Validate is the only mutating operation. It returns Valid when nothing
// was changed, Changed when the vector was repaired in place (for instance
// by reflecting the roots of a polynomial into the stationary region), and
// Invalid when the point cannot be used.
package params
