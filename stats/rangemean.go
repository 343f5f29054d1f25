package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultRangeMeanThreshold is the t-statistic above which logs are preferred.
const DefaultRangeMeanThreshold = 2.0

// RangeMeanResult is the outcome of a range-mean regression.
type RangeMeanResult struct {
	// TStat is the t-statistic of the slope of the group ranges on the
	// group means.
	TStat  float64
	PValue float64
	// GroupLength and Trim describe the groups: each group of GroupLength
	// observations is sorted and Trim values are dropped at both ends.
	GroupLength int
	Trim        int
	Groups      int
	UseLogs     bool
}

// rangeMeanGroups returns the group length and the trimming used for a
// series of length n observed freq times a year.
func rangeMeanGroups(freq, n int) (length, trim int) {
	long := n > 165
	switch freq {
	case 12:
		return 12, 1
	case 6:
		if long {
			return 12, 1
		}
		return 12, 2
	case 4:
		if long {
			return 8, 1
		}
		return 12, 2
	case 3, 2:
		if long {
			return 6, 1
		}
		return 12, 2
	case 1:
		if long {
			return 5, 1
		}
		return 9, 2
	default:
		return freq, 1
	}
}

// RangeMean regresses the range of groups of consecutive observations on
// their mean. A significant positive slope indicates that the dispersion
// grows with the level, which calls for a log transformation. threshold
// <= 0 means DefaultRangeMeanThreshold.
//
// Returns nil when the test is not applicable: non-positive data, or fewer
// than four groups.
func RangeMean(x []float64, freq int, threshold float64) *RangeMeanResult {
	if threshold <= 0 {
		threshold = DefaultRangeMeanThreshold
	}
	for _, v := range x {
		if !(v > 0) {
			return nil
		}
	}
	length, trim := rangeMeanGroups(freq, len(x))
	if length <= 2*trim {
		return nil
	}
	groups := len(x) / length
	if groups <= 3 {
		return nil
	}

	ranges := make([]float64, groups)
	means := make([]float64, groups)
	sorted := make([]float64, length)
	for i := 0; i < groups; i++ {
		copy(sorted, x[i*length:(i+1)*length])
		slices.Sort(sorted)
		kept := sorted[trim : length-trim]
		ranges[i] = kept[len(kept)-1] - kept[0]
		means[i] = stat.Mean(kept, nil)
	}

	rslt := &RangeMeanResult{GroupLength: length, Trim: trim, Groups: groups}
	t, ok := slopeTStat(means, ranges)
	if !ok {
		return rslt
	}
	dof := float64(groups - 2)
	rslt.TStat = t
	rslt.PValue = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dof}.Survival(math.Abs(t))
	rslt.UseLogs = t > threshold
	return rslt
}

// slopeTStat returns the t-statistic of the slope of the least squares
// regression of y on x with a constant.
func slopeTStat(x, y []float64) (float64, bool) {
	n := len(x)
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	mx := stat.Mean(x, nil)
	sxx, ssr := 0.0, 0.0
	for i := range x {
		d := x[i] - mx
		sxx += d * d
		e := y[i] - alpha - beta*x[i]
		ssr += e * e
	}
	if sxx == 0 {
		return 0, false
	}
	se := math.Sqrt(ssr / float64(n-2) / sxx)
	if se == 0 {
		if beta == 0 {
			return 0, true
		}
		return math.Copysign(math.Inf(1), beta), true
	}
	return beta / se, true
}
