// Package likelihood computes concentrated Gaussian likelihoods of
// regression models with ARMA errors.
package likelihood

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Concentrated is the Gaussian likelihood of a regression model with ARMA
// errors, with the innovation variance and the regression coefficients
// concentrated out. It is an immutable snapshot.
type Concentrated struct {
	n    int
	nx   int
	ldet float64
	ssq  float64
	res  []float64
	b    []float64
	xtx  *mat.SymDense // inverse of the whitened cross-product matrix
}

// NewConcentrated creates a likelihood for n observations and nx
// regression coefficients. res may be nil.
func NewConcentrated(n, nx int, ldet, ssq float64, res []float64) *Concentrated {
	return &Concentrated{n: n, nx: nx, ldet: ldet, ssq: ssq, res: res}
}

// Dim returns the number of observations.
func (c *Concentrated) Dim() int { return c.n }

// DegreesOfFreedom returns the number of observations minus the number of
// regression coefficients.
func (c *Concentrated) DegreesOfFreedom() int { return c.n - c.nx }

// LogDeterminant returns the log-determinant of the covariance matrix of the
// observations, for a unit innovation variance.
func (c *Concentrated) LogDeterminant() float64 { return c.ldet }

// Ssq returns the sum of the squared standardized innovations.
func (c *Concentrated) Ssq() float64 { return c.ssq }

// Residuals returns the standardized innovations, or nil when they were
// not kept.
func (c *Concentrated) Residuals() []float64 { return c.res }

// Factor returns det(V)^(1/n). Minimizing Ssq()*Factor() maximizes the
// likelihood.
func (c *Concentrated) Factor() float64 {
	return math.Exp(c.ldet / float64(c.n))
}

// V returns the residuals scaled by sqrt(Factor()), whose sum of squares is
// Ssq()*Factor(). It returns nil when the residuals were not kept.
func (c *Concentrated) V() []float64 {
	if c.res == nil {
		return nil
	}
	f := c.Factor()
	if f == 1 {
		return c.res
	}
	sf := math.Sqrt(f)
	v := make([]float64, len(c.res))
	for i, e := range c.res {
		v[i] = e * sf
	}
	return v
}

// Objective returns Ssq()*Factor().
func (c *Concentrated) Objective() float64 {
	return c.ssq * c.Factor()
}

// LogLikelihood returns the concentrated log-likelihood:
//
//	-0.5 * (n log(2 pi) + n (1 + log(ssq/n)) + ldet)
func (c *Concentrated) LogLikelihood() float64 {
	n := float64(c.n)
	return -0.5 * (n*math.Log(2*math.Pi) + n*(1+math.Log(c.ssq/n)) + c.ldet)
}

// Sigma returns the maximum likelihood estimate of the innovation variance,
// ssq/n.
func (c *Concentrated) Sigma() float64 { return c.ssq / float64(c.n) }

// Ser returns the standard error of the residuals, sqrt(ssq/n).
func (c *Concentrated) Ser() float64 { return math.Sqrt(c.Sigma()) }

// AIC returns the Akaike information criterion for nparams estimated
// parameters.
func (c *Concentrated) AIC(nparams int) float64 {
	return -2*c.LogLikelihood() + 2*float64(nparams)
}

// AICc returns the AIC corrected for small samples. It is +Inf when there
// are not enough observations.
func (c *Concentrated) AICc(nparams int) float64 {
	k := float64(nparams)
	n := float64(c.n)
	if n-k-1 <= 0 {
		return math.Inf(1)
	}
	return c.AIC(nparams) + 2*k*(k+1)/(n-k-1)
}

// BIC returns the Bayesian information criterion for nparams estimated
// parameters.
func (c *Concentrated) BIC(nparams int) float64 {
	return -2*c.LogLikelihood() + float64(nparams)*math.Log(float64(c.n))
}

// Coefficients returns the GLS estimates of the regression coefficients.
func (c *Concentrated) Coefficients() []float64 {
	if c.b == nil {
		return nil
	}
	return append([]float64(nil), c.b...)
}

// CoefficientsCovariance returns the covariance matrix of the regression
// coefficients, scaled by ssq/(n-nx). It returns nil without regressors or
// degrees of freedom.
func (c *Concentrated) CoefficientsCovariance() *mat.SymDense {
	df := c.DegreesOfFreedom()
	if c.xtx == nil || df <= 0 {
		return nil
	}
	var cov mat.SymDense
	cov.ScaleSym(c.ssq/float64(df), c.xtx)
	return &cov
}

// TStats returns the t-statistics of the regression coefficients.
func (c *Concentrated) TStats() []float64 {
	cov := c.CoefficientsCovariance()
	if cov == nil {
		return nil
	}
	t := make([]float64, len(c.b))
	for i, b := range c.b {
		t[i] = b / math.Sqrt(cov.At(i, i))
	}
	return t
}
