// Package regarima estimates regression models with ARIMA errors,
//
//	y = X b + u,  u ~ ARIMA,
//
// by generalized least squares. The ARIMA parameters are estimated by a
// nonlinear minimizer on the differenced model; for each candidate the
// regression coefficients and the innovation variance are concentrated out
// of the exact likelihood.
//
// # Usage
//
//	model, err := regarima.NewModel(y, x, true, arima.NewArima([]float64{0}, 1, []float64{0}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg := regarima.DefaultConfig(arima.MappingOf)
//	cfg.Initializer = regarima.YuleWalkerInitializer()
//	cfg.Finalizer = regarima.LjungBoxFinalizer[*arima.Model](24)
//	proc, err := regarima.NewProcessor(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	est, err := proc.Process(ctx, model)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(est.Model.Arima(), est.AIC(), est.StandardErrors())
//
// SARIMA models work the same way with sarima.MappingOf. Parameters can be
// held at given values by wrapping the mapping with params.Fix.
//
// # Stages
//
// Process runs three stages that can also be called separately:
//
//   - Initialize computes the starting model (Config.Initializer, or the
//     default parameters of the mapping).
//   - Optimize runs RegArmaProcessor on the differenced model and maps the
//     optimal parameters back onto the full model.
//   - Finalize applies Config.Finalizer, for instance residual diagnostics
//     or a re-estimation with a tighter precision.
//
// Estimation failures are reported with ErrOptimizationFailed; the
// underlying cause (for instance filter.ErrInvalidModel) is kept in the
// error chain.
package regarima
