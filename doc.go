// Package regarima is the root of a library estimating regression models
// with ARIMA and SARIMA errors by exact maximum likelihood.
//
// The model is
//
//	y = X b + z,   delta(B) phi(B) z_t = theta(B) e_t
//
// The regression coefficients b and the innovation variance are
// concentrated out of the Gaussian likelihood by generalized least squares;
// the ARMA parameters are optimized by a sum-of-squares minimizer over a
// domain that keeps the model stationary and invertible.
//
// # Quick Start
//
//	start := arima.NewArima([]float64{0}, 1, []float64{0})
//	model, _ := regarima.NewModel(values, nil, true, start)
//	proc, _ := regarima.NewProcessor(regarima.DefaultConfig(arima.MappingOf))
//	est, _ := proc.Process(ctx, model)
//	fmt.Println(est.Model.Arima(), est.AICc())
//
// Or let autoarima choose the orders:
//
//	result, _ := autoarima.Select(ctx, series, autoarima.DefaultConfig())
//
// # Packages
//
//   - params: parameter domains and the mapping between parameters and models
//   - arima: polynomials, ARIMA models, autocovariances, simulation
//   - sarima: seasonal ARIMA models and their mapping
//   - filter: innovations filter of an ARMA model
//   - likelihood: concentrated likelihood of a regression with ARMA errors
//   - ssq: sum-of-squares minimizers
//   - regarima: the estimation processor, initializers and finalizers
//   - stats: identification and diagnostic tests
//   - timeseries: series container and CSV input/output
//   - autoarima: automatic order selection
//
// # References
//
//   - Ansley, C. F. (1979). An algorithm for the exact likelihood of a mixed
//     autoregressive-moving average process. Biometrika 66(1).
//   - Box, G. E. P., & Jenkins, G. M. (1976). Time Series Analysis: Forecasting and Control
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
package regarima
