package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic      float64
	PValue         float64
	Lags           int
	CriticalValues map[string]float64
	IsStationary   bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary around a level
// (regression "c") or a linear trend (regression "ct"). nlags <= 0 selects
// the number of Newey-West lags from the length of the series.
func KPSS(x []float64, regression string, nlags int) *KPSSResult {
	n := len(x)
	if n < minTestLength {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	nlags = min(nlags, n-1)

	residuals := make([]float64, n)
	if regression == "ct" {
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i)
		}
		a, b := stat.LinearRegression(t, x, nil, false)
		for i, v := range x {
			residuals[i] = v - a - b*t[i]
		}
	} else {
		mean := stat.Mean(x, nil)
		for i, v := range x {
			residuals[i] = v - mean
		}
	}

	// long-run variance with Bartlett weights
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	eta, cum := 0.0, 0.0
	for _, r := range residuals {
		cum += r
		eta += cum * cum
	}
	statistic := eta / (float64(n) * float64(n) * s2)

	critical := map[string]float64{"10%": 0.347, "5%": 0.463, "1%": 0.739}
	if regression == "ct" {
		critical = map[string]float64{"10%": 0.119, "5%": 0.146, "1%": 0.216}
	}
	pValue := kpssPValue(statistic, regression)

	return &KPSSResult{
		Statistic:      statistic,
		PValue:         pValue,
		Lags:           nlags,
		CriticalValues: critical,
		IsStationary:   pValue >= 0.05,
	}
}

// kpssPValue interpolates the tabulated critical values.
func kpssPValue(stat float64, regression string) float64 {
	if regression == "ct" {
		switch {
		case stat > 0.216:
			return 0.01
		case stat > 0.146:
			return 0.05
		case stat > 0.119:
			return 0.10
		default:
			return 0.10 + (0.119-stat)*2
		}
	}
	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05
	case stat > 0.347:
		return 0.10
	default:
		return 0.10 + (0.347-stat)*0.5
	}
}

// NDiffs returns the number of regular differences (at most maxD, default 2)
// after which the KPSS test no longer rejects level stationarity.
func NDiffs(x []float64, maxD int) int {
	if maxD <= 0 {
		maxD = 2
	}
	current := x
	for d := 0; d < maxD; d++ {
		if r := KPSS(current, "c", 0); r == nil || r.IsStationary {
			return d
		}
		current = difference(current, 1)
		if len(current) < minTestLength {
			return d
		}
	}
	return maxD
}

// difference returns x_t - x_{t-lag}.
func difference(x []float64, lag int) []float64 {
	if len(x) <= lag {
		return nil
	}
	d := make([]float64, len(x)-lag)
	for i := range d {
		d[i] = x[i+lag] - x[i]
	}
	return d
}
