// Package likelihood computes concentrated Gaussian likelihoods of
// regression models with ARMA errors.
//
// For y = X b + u, where u follows an ARMA model with covariance sigma^2 V,
// both b and sigma^2 can be estimated in closed form for given ARMA
// parameters. What remains is the concentrated log-likelihood
//
//	-0.5 * (n log(2 pi) + n (1 + log(ssq/n)) + log|V|)
//
// where ssq is the sum of squares of the whitened GLS residuals. Maximizing
// it is equivalent to minimizing ssq * |V|^(1/n), which Objective returns
// and which nonlinear least-squares routines minimize through V().
//
// # Usage
//
//	ll, err := likelihood.Compute(y, x, model)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("logL=%.3f sigma2=%.4f b=%v\n",
//	    ll.LogLikelihood(), ll.Sigma(), ll.Coefficients())
//
// Use a Computer without KeepResiduals to avoid keeping the innovations
// when only the likelihood is needed.
package likelihood
