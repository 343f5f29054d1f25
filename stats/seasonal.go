package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// seasonalThreshold is the seasonal strength above which a seasonal
// difference is suggested.
const seasonalThreshold = 0.64

// SeasonalStrength measures the strength of seasonality of x with the given
// period, using a classical additive decomposition:
//
//	F_S = max(0, 1 - Var(R) / Var(S + R))
//
// Returns 0 when x covers less than two periods.
func SeasonalStrength(x []float64, period int) float64 {
	n := len(x)
	if period <= 1 || n < 2*period {
		return 0
	}
	trend := centeredMovingAverage(x, period)

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i, v := range x {
		if !math.IsNaN(trend[i]) {
			pattern[i%period] += v - trend[i]
			counts[i%period]++
		}
	}
	for j := range pattern {
		if counts[j] > 0 {
			pattern[j] /= float64(counts[j])
		}
	}
	mean := stat.Mean(pattern, nil)
	for j := range pattern {
		pattern[j] -= mean
	}

	var r, sr []float64
	for i, v := range x {
		if math.IsNaN(trend[i]) {
			continue
		}
		d := v - trend[i]
		r = append(r, d-pattern[i%period])
		sr = append(sr, d)
	}
	if len(sr) < 2 {
		return 0
	}
	varSR := stat.Variance(sr, nil)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-stat.Variance(r, nil)/varSR)
}

// centeredMovingAverage returns the centered moving average of x over one
// period; the ends where it is not defined are NaN.
func centeredMovingAverage(x []float64, period int) []float64 {
	n := len(x)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}
	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum = 0.5 * (x[i-half] + x[i+half])
			for j := i - half + 1; j < i+half; j++ {
				sum += x[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += x[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}

// NSDiffs returns the number of seasonal differences (at most maxD,
// default 1) after which the seasonal strength of x falls below 0.64.
func NSDiffs(x []float64, period, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || len(x) < 2*period {
		return 0
	}
	current := x
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < seasonalThreshold {
			return d
		}
		current = difference(current, period)
		if len(current) < 2*period {
			return d + 1
		}
	}
	return maxD
}
