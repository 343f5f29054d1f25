package regarima

import (
	"context"
	"errors"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/stats"
)

// DefaultDiagnosticLags is the number of autocorrelations tested by
// LjungBoxFinalizer when lags is not positive.
const DefaultDiagnosticLags = 24

// LjungBoxFinalizer returns a finalizer attaching residual diagnostics to
// the estimation. The portmanteau tests use lags autocorrelations and
// discount the estimated ARIMA parameters.
func LjungBoxFinalizer[M arima.Family[M]](lags int) Finalizer[M] {
	if lags <= 0 {
		lags = DefaultDiagnosticLags
	}
	return FinalizerFunc[M](func(_ context.Context, est *Estimation[M]) (*Estimation[M], error) {
		res := est.Residuals()
		fitdf := len(est.Parameters)
		c := *est
		c.Diagnostics = &Diagnostics{
			LjungBox:     stats.LjungBox(res, lags, fitdf),
			BoxPierce:    stats.BoxPierce(res, lags, fitdf),
			DurbinWatson: stats.DurbinWatson(res),
		}
		return &c, nil
	})
}

// ReestimateFinalizer returns a finalizer that, when the estimation did not
// converge, runs the optimization again from the estimated model with the
// given precision (a hundredth of the precision of proc when not positive).
// The new estimation is kept only if its likelihood is not lower.
func ReestimateFinalizer[M arima.Family[M]](proc *Processor[M], precision float64) Finalizer[M] {
	if precision <= 0 {
		precision = proc.Precision() / 100
	}
	return FinalizerFunc[M](func(ctx context.Context, est *Estimation[M]) (*Estimation[M], error) {
		if est.Converged {
			return est, nil
		}
		proc.cfg.Logger.V(1).Info("Estimation did not converge, re-estimating", "precision", precision)
		nest, err := proc.optimize(ctx, est.Model, precision, proc.cfg.UseMaximumLikelihood)
		switch {
		case errors.Is(err, ErrOptimizationFailed):
			return est, nil
		case err != nil:
			return nil, err
		}
		if nest.LogLikelihood() < est.LogLikelihood() {
			return est, nil
		}
		return nest, nil
	})
}

// Finalizers chains finalizers, applied in order.
func Finalizers[M arima.Family[M]](fs ...Finalizer[M]) Finalizer[M] {
	return FinalizerFunc[M](func(ctx context.Context, est *Estimation[M]) (*Estimation[M], error) {
		var err error
		for _, f := range fs {
			if est, err = f.Finalize(ctx, est); err != nil {
				return nil, err
			}
		}
		return est, nil
	})
}
