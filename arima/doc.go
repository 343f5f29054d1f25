// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA model is described by three backshift polynomials and the
// variance of its innovations:
//
//	AR(B) Delta(B) y_t = MA(B) e_t
//
// where AR is the stationary autoregressive polynomial, Delta the
// differencing polynomial and MA the moving average polynomial. Models are
// immutable; new parameter values produce new instances.
//
// # Basic Usage
//
// Create an ARIMA(1,1,1) model and inspect its stationary part:
//
//	model := arima.NewArima([]float64{0.7}, 1, []float64{-0.3})
//	arma := model.Stationary()
//
//	// Autocovariances of the stationary part
//	gamma, err := arma.AutoCovariance(10)
//
// # Polynomials
//
// AR coefficients follow the usual convention y_t = phi_1 y_{t-1} + ...,
// so FromAR([]float64{0.7}) is the polynomial 1 - 0.7B. MA coefficients are
// added: FromMA([]float64{0.4}) is 1 + 0.4B.
//
//	p := arima.FromAR([]float64{0.5, 0.3})
//	if !p.IsStable() {
//	    // the AR part is not stationary
//	}
//
// # Parameter Mapping
//
// Mapping implements params.Mapping for ARMA models, so that an optimizer
// can work directly on [phi..., theta...] vectors:
//
//	mapping := arima.NewMapping(1, 1, arima.Difference(1, 0, 1))
//	model, err := mapping.Map([]float64{0.7, -0.3})
//
// For seasonal models, use the sarima package instead.
package arima
