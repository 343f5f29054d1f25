package regarima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/regarima/arima"
	"github.com/sartorproj/regarima/likelihood"
	"github.com/sartorproj/regarima/stats"
)

// Estimation is the outcome of a Processor.
type Estimation[M arima.Family[M]] struct {
	// Model is the estimated model. Its ARIMA errors carry the maximum
	// likelihood estimate of the innovation variance.
	Model *Model[M]
	// Likelihood is the concentrated likelihood of the differenced model.
	Likelihood *likelihood.Concentrated
	// Parameters are the free ARIMA parameters and Descriptions their labels.
	Parameters   []float64
	Descriptions []string
	// Gradient and Hessian are those of minus the log-likelihood with
	// respect to Parameters.
	Gradient   []float64
	Hessian    *mat.SymDense
	Converged  bool
	Iterations int
	// Trace holds the objective at the start and after each accepted
	// iteration of the minimizer.
	Trace []float64
	// Diagnostics is set by LjungBoxFinalizer.
	Diagnostics *Diagnostics
}

// Diagnostics are residual tests of an estimation.
type Diagnostics struct {
	LjungBox     *stats.LjungBoxResult
	BoxPierce    *stats.BoxPierceResult
	DurbinWatson *stats.DurbinWatsonResult
}

// ParameterCount returns the number of estimated parameters: the ARIMA
// parameters, the regression coefficients and the innovation variance.
func (e *Estimation[M]) ParameterCount() int {
	return len(e.Parameters) + e.Model.VariablesCount() + 1
}

// LogLikelihood returns the concentrated log-likelihood.
func (e *Estimation[M]) LogLikelihood() float64 { return e.Likelihood.LogLikelihood() }

// AIC returns the Akaike information criterion.
func (e *Estimation[M]) AIC() float64 { return e.Likelihood.AIC(e.ParameterCount()) }

// AICc returns the corrected Akaike information criterion.
func (e *Estimation[M]) AICc() float64 { return e.Likelihood.AICc(e.ParameterCount()) }

// BIC returns the Bayesian information criterion.
func (e *Estimation[M]) BIC() float64 { return e.Likelihood.BIC(e.ParameterCount()) }

// Variance returns the maximum likelihood estimate of the innovation
// variance.
func (e *Estimation[M]) Variance() float64 { return e.Likelihood.Sigma() }

// Residuals returns the standardized innovations of the differenced model.
func (e *Estimation[M]) Residuals() []float64 { return e.Likelihood.Residuals() }

// Covariance returns the asymptotic covariance of Parameters, the inverse
// of the Hessian. It returns nil when the Hessian is not positive definite.
func (e *Estimation[M]) Covariance() *mat.SymDense {
	if e.Hessian == nil || e.Hessian.SymmetricDim() == 0 {
		return nil
	}
	var chol mat.Cholesky
	if !chol.Factorize(e.Hessian) {
		return nil
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil
	}
	return &cov
}

// StandardErrors returns the standard errors of Parameters, or nil.
func (e *Estimation[M]) StandardErrors() []float64 {
	cov := e.Covariance()
	if cov == nil {
		return nil
	}
	se := make([]float64, cov.SymmetricDim())
	for i := range se {
		se[i] = math.Sqrt(cov.At(i, i))
	}
	return se
}

// ParameterSummary describes one estimated coefficient.
type ParameterSummary struct {
	Name   string
	Value  float64
	StdErr float64
	TStat  float64
}

// Summary is a digest of an estimation.
type Summary struct {
	Model        string
	Parameters   []ParameterSummary
	Coefficients []ParameterSummary
	Variance     float64
	LogLik       float64
	AIC          float64
	AICc         float64
	BIC          float64
	NObs         int
	Converged    bool
	Iterations   int
	Diagnostics  *Diagnostics
}

// Summary returns a digest of the estimation. Standard errors that cannot
// be computed are NaN.
func (e *Estimation[M]) Summary() *Summary {
	s := &Summary{
		Model:       fmt.Sprint(e.Model.Arima()),
		Variance:    e.Variance(),
		LogLik:      e.LogLikelihood(),
		AIC:         e.AIC(),
		AICc:        e.AICc(),
		BIC:         e.BIC(),
		NObs:        e.Likelihood.Dim(),
		Converged:   e.Converged,
		Iterations:  e.Iterations,
		Diagnostics: e.Diagnostics,
	}

	se := e.StandardErrors()
	for i, v := range e.Parameters {
		ps := ParameterSummary{Name: e.Descriptions[i], Value: v, StdErr: math.NaN(), TStat: math.NaN()}
		if se != nil {
			ps.StdErr = se[i]
			ps.TStat = v / se[i]
		}
		s.Parameters = append(s.Parameters, ps)
	}

	b := e.Likelihood.Coefficients()
	cov := e.Likelihood.CoefficientsCovariance()
	for i, v := range b {
		ps := ParameterSummary{Name: e.variableName(i), Value: v, StdErr: math.NaN(), TStat: math.NaN()}
		if cov != nil {
			ps.StdErr = math.Sqrt(cov.At(i, i))
			ps.TStat = v / ps.StdErr
		}
		s.Coefficients = append(s.Coefficients, ps)
	}
	return s
}

func (e *Estimation[M]) variableName(i int) string {
	if e.Model.HasMean() {
		if i == 0 {
			return "mean"
		}
		i--
	}
	return fmt.Sprintf("x(%d)", i+1)
}
