// Package filter implements the innovations filter of stationary ARMA
// processes.
//
// The filter turns n autocorrelated observations into n standardized
// innovations e_t and the log-determinant of their covariance matrix V, so
// that the Gaussian log-likelihood of the observations is
//
//	-0.5 * (n log(2 pi) + log|V| + sum e_t^2)
//
// The recursion is a scalar Kalman filter specialized to the ARMA
// covariance structure. Its state has dimension max(p, q+1). Once the
// prediction variance has converged to the innovation variance the gains are
// frozen and the filter reduces to a plain autoregressive recursion.
//
// # Compiled Plans
//
// Compile computes the gains once for a model and a length. The resulting
// Plan is immutable, so it can be applied to many sequences, from many
// goroutines:
//
//	plan, err := filter.Compile(model, len(y))
//	if err != nil {
//	    // errors.Is(err, filter.ErrInvalidModel)
//	}
//	e := make([]float64, len(y))
//	err = plan.Apply(y, e)
//	ldet := plan.LogDeterminant()
//
// # Filter
//
// Filter wraps the same recursion behind an initialize/filter interface. In
// single-use mode the gains are computed while filtering:
//
//	f := filter.New(false)
//	n, err := f.Initialize(model, len(y))
//	err = f.Filter(y, e)
//	ldet, err := f.LogDeterminant()
//
// A Filter is stateful; use Exemplar to get an independent instance per
// goroutine. When only the determinant is needed, LogDeterminant avoids the
// filtering altogether.
package filter
