// Package timeseries provides the series type fed to the estimation
// engine, with its regression variables, and CSV input/output.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/regarima/arima"
)

var (
	// ErrLength is returned when timestamps or regressors do not match the
	// values.
	ErrLength = errors.New("timeseries: length mismatch")
	// ErrNonPositive is returned when logs of non-positive values are taken.
	ErrNonPositive = errors.New("timeseries: non-positive value")
)

// Series is a time series with optional timestamps and regression
// variables observed at the same dates.
type Series struct {
	Name       string
	Timestamps []time.Time
	Values     []float64
	// Regressors holds one slice per regression variable, each of the
	// length of Values.
	Regressors     [][]float64
	RegressorNames []string
}

// New creates a series from values, without timestamps.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewWithTimestamps creates a time series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%w: %d timestamps for %d values", ErrLength, len(timestamps), len(values))
	}
	return &Series{Timestamps: timestamps, Values: values}, nil
}

// AddRegressor appends a regression variable.
func (s *Series) AddRegressor(name string, x []float64) error {
	if len(x) != len(s.Values) {
		return fmt.Errorf("%w: regressor %q has %d values, want %d", ErrLength, name, len(x), len(s.Values))
	}
	s.Regressors = append(s.Regressors, x)
	s.RegressorNames = append(s.RegressorNames, name)
	return nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series (0 when empty).
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Design returns the regression variables as the columns of a matrix, or
// nil when there are none.
func (s *Series) Design() *mat.Dense {
	if len(s.Regressors) == 0 || len(s.Values) == 0 {
		return nil
	}
	x := mat.NewDense(len(s.Values), len(s.Regressors), nil)
	for j, col := range s.Regressors {
		x.SetCol(j, col)
	}
	return x
}

// Frequency infers the number of observations per year from the median
// spacing of the timestamps: 12 for monthly, 4 for quarterly, 52 for weekly
// data, and so on. It returns 0 when there are no timestamps and 1 for
// yearly or irregular data.
func (s *Series) Frequency() int {
	if len(s.Timestamps) < 2 {
		return 0
	}
	gaps := make([]float64, len(s.Timestamps)-1)
	for i := range gaps {
		gaps[i] = s.Timestamps[i+1].Sub(s.Timestamps[i]).Hours() / 24
	}
	slices.Sort(gaps)
	days := gaps[len(gaps)/2]
	switch {
	case days >= 0.9 && days <= 1.1:
		return 365
	case days >= 6.5 && days <= 7.5:
		return 52
	case days >= 27 && days <= 32:
		return 12
	case days >= 58 && days <= 63:
		return 6
	case days >= 88 && days <= 93:
		return 4
	case days >= 119 && days <= 124:
		return 3
	case days >= 180 && days <= 186:
		return 2
	default:
		return 1
	}
}

// Difference applies (1-B)^d (1-B^period)^sd to the series and to its
// regressors. The first d + sd*period observations are lost.
func (s *Series) Difference(d, sd, period int) *Series {
	delta := arima.Difference(d, sd, period)
	r := &Series{Name: s.Name, Values: delta.Apply(s.Values), RegressorNames: s.RegressorNames}
	if lost := delta.Degree(); len(s.Timestamps) > lost {
		r.Timestamps = s.Timestamps[lost:]
	}
	for _, x := range s.Regressors {
		r.Regressors = append(r.Regressors, delta.Apply(x))
	}
	return r
}

// Slice returns the observations in [start, end).
func (s *Series) Slice(start, end int) (*Series, error) {
	if start < 0 || end > len(s.Values) || start > end {
		return nil, fmt.Errorf("timeseries: invalid slice [%d:%d] of %d values", start, end, len(s.Values))
	}
	r := &Series{Name: s.Name, Values: s.Values[start:end], RegressorNames: s.RegressorNames}
	if len(s.Timestamps) == len(s.Values) {
		r.Timestamps = s.Timestamps[start:end]
	}
	for _, x := range s.Regressors {
		r.Regressors = append(r.Regressors, x[start:end])
	}
	return r, nil
}

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	r := &Series{
		Name:           s.Name,
		Timestamps:     slices.Clone(s.Timestamps),
		Values:         slices.Clone(s.Values),
		RegressorNames: slices.Clone(s.RegressorNames),
	}
	for _, x := range s.Regressors {
		r.Regressors = append(r.Regressors, slices.Clone(x))
	}
	return r
}

// Log returns the series of the logarithms of the values. The regressors
// are kept unchanged.
func (s *Series) Log() (*Series, error) {
	r := s.Copy()
	for i, v := range r.Values {
		if !(v > 0) {
			return nil, fmt.Errorf("%w: %g at %d", ErrNonPositive, v, i)
		}
		r.Values[i] = math.Log(v)
	}
	return r, nil
}
