// Package stats provides statistical tests and descriptive functions for
// time series and model residuals.
//
// All functions work on plain slices and return nil when a test is not
// applicable to the data (too short, constant, non-positive).
//
// # Autocorrelation
//
//	acf := stats.ACF(x, 20)
//	pacf := stats.PACF(x, 20)
//	significant := stats.SignificantLags(acf, stats.ConfidenceBound(len(x)))
//
// # Residual Diagnostics
//
// Portmanteau tests use chi-squared p-values:
//
//	lb := stats.LjungBox(residuals, 24, p+q)
//	if lb != nil && lb.PValue > 0.05 {
//	    // no evidence of remaining autocorrelation
//	}
//	bp := stats.BoxPierce(residuals, 24, p+q)
//	dw := stats.DurbinWatson(residuals)
//
// # Differencing and Transformation
//
// The KPSS test and the seasonal strength suggest differencing orders:
//
//	d := stats.NDiffs(x, 2)
//	sd := stats.NSDiffs(x, 12, 1)
//
// The range-mean regression decides between levels and logs:
//
//	if rm := stats.RangeMean(x, 12, 0); rm != nil && rm.UseLogs {
//	    // model log(x)
//	}
package stats
