// Package autoarima implements automatic SARIMA order selection.
//
// Select searches the orders of a regression model with SARIMA errors and
// keeps the one with the lowest information criterion. Each candidate is
// estimated by exact maximum likelihood with a regarima.Processor.
//
// # Basic Usage
//
//	cfg := autoarima.DefaultConfig()
//	cfg.Period = 12
//	result, err := autoarima.Select(ctx, series, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Best model: %s, AICc %.2f, %d models evaluated\n",
//	    result.Order, result.AICc(), result.ModelsEvaluated)
//
// # Search
//
// The series is first log-transformed when the range-mean test shows that
// its dispersion grows with its level (Transform "auto"). The seasonal
// differencing order is then chosen from the seasonal strength of the
// series, and the regular differencing order from KPSS tests on the
// seasonally differenced series. D and SD fix them instead.
//
// With Stepwise, the search starts from (2,d,2)(1,D,1), (0,d,0)(0,D,0),
// (1,d,0)(1,D,0) and (0,d,1)(0,D,1), then moves to the best neighbouring
// order (one AR or MA order up or down) until no neighbour improves the
// criterion. Otherwise every order up to the configured maxima is
// estimated. The candidates of a round are estimated concurrently, at most
// Parallelism at a time.
//
// A mean correction is included when Mean is set and the total
// differencing order is below 2. Regressors of the series enter the
// regression part of every candidate.
package autoarima
