package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// minTestLength is the shortest series the portmanteau tests accept.
const minTestLength = 10

// PortmanteauResult is the outcome of a test on the first autocorrelations
// of a series. The statistic is compared to a chi-squared distribution
// with DOF degrees of freedom.
type PortmanteauResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult = PortmanteauResult

// BoxPierceResult represents the result of a Box-Pierce test.
type BoxPierceResult = PortmanteauResult

// LjungBox performs the Ljung-Box test for autocorrelation in residuals:
//
//	Q = n (n+2) sum_{k=1..h} r_k^2 / (n-k)
//
// fitdf is the number of estimated parameters (p + q + P + Q for SARIMA).
// Returns nil when the series is too short or constant.
func LjungBox(x []float64, lags, fitdf int) *LjungBoxResult {
	n := float64(len(x))
	return portmanteau(x, lags, fitdf, func(k int) float64 {
		return n * (n + 2) / (n - float64(k))
	})
}

// BoxPierce performs the Box-Pierce test, Q = n sum_{k=1..h} r_k^2.
func BoxPierce(x []float64, lags, fitdf int) *BoxPierceResult {
	n := float64(len(x))
	return portmanteau(x, lags, fitdf, func(int) float64 { return n })
}

func portmanteau(x []float64, lags, fitdf int, weight func(k int) float64) *PortmanteauResult {
	n := len(x)
	if n < minTestLength || lags < 1 {
		return nil
	}
	lags = min(lags, n-1)
	acf := ACF(x, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += weight(k) * acf[k] * acf[k]
	}
	dof := max(lags-fitdf, 1)
	return &PortmanteauResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: float64(dof)}.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}

// DurbinWatsonResult represents the result of a Durbin-Watson test.
type DurbinWatsonResult struct {
	// Statistic is close to 2 without first-order autocorrelation, below 2
	// with positive and above 2 with negative autocorrelation.
	Statistic float64
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// autocorrelation. Returns nil for fewer than two residuals or zero
// residuals.
func DurbinWatson(residuals []float64) *DurbinWatsonResult {
	n := len(residuals)
	if n < 2 {
		return nil
	}
	denominator := floats.Dot(residuals, residuals)
	if denominator == 0 {
		return nil
	}
	diff := make([]float64, n-1)
	floats.SubTo(diff, residuals[1:], residuals[:n-1])
	return &DurbinWatsonResult{Statistic: floats.Dot(diff, diff) / denominator}
}
