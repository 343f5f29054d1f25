// Package sarima implements multiplicative seasonal ARIMA models.
//
// A SARIMA(p,d,q)(P,D,Q)[m] model is
//
//	phi(B) Phi(B^m) (1-B)^d (1-B^m)^D y_t = theta(B) Theta(B^m) e_t
//
// The regular and seasonal factors are multiplied into the AR and MA
// polynomials seen by the filter, so a seasonal model goes through the same
// likelihood and estimation code as a plain ARIMA model.
//
// # Models and mappings
//
//	order := sarima.Order{P: 1, SP: 1, SD: 1, M: 4} // (1,0,0)(1,1,0)[4]
//	model, err := sarima.New(order, []float64{0.5}, []float64{0.3}, nil, nil, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mapping, _ := sarima.NewMapping(order)
//	p := mapping.ParametersOf(model) // [0.5 0.3]
//
// Parameters are ordered phi, Phi, theta, Theta. The mapping checks the
// stationarity of each AR factor and the invertibility of each MA factor
// separately, and repairs them by reflecting roots inside the unit circle.
//
// The airline model (0,1,1)(0,1,1)[m] has a shortcut:
//
//	model, _ := sarima.Airline(-0.4, -0.6, 12)
//
// To estimate, give sarima.MappingOf to a regarima.Processor; autoarima
// searches over seasonal orders.
package sarima
