package params

import (
	"errors"
	"fmt"
	"sort"
)

// ErrFixedIndex is returned when a fixed parameter index is out of range.
var ErrFixedIndex = errors.New("fixed parameter index out of range")

// Fixed wraps a mapping and holds some of its parameters at given values.
// Only the remaining (free) parameters are exposed to the optimizer.
type Fixed[M any] struct {
	inner  Mapping[M]
	values map[int]float64
	free   []int
}

// Fix returns a mapping in which the parameters listed in values (index of
// the full parameter vector -> value) are constrained.
func Fix[M any](inner Mapping[M], values map[int]float64) (*Fixed[M], error) {
	dim := inner.Dim()
	fixed := make(map[int]float64, len(values))
	for i, v := range values {
		if i < 0 || i >= dim {
			return nil, fmt.Errorf("%w: %d (dim %d)", ErrFixedIndex, i, dim)
		}
		fixed[i] = v
	}
	free := make([]int, 0, dim-len(fixed))
	for i := 0; i < dim; i++ {
		if _, ok := fixed[i]; !ok {
			free = append(free, i)
		}
	}
	sort.Ints(free)
	return &Fixed[M]{inner: inner, values: fixed, free: free}, nil
}

// Expand returns the full parameter vector of the wrapped mapping.
func (f *Fixed[M]) Expand(p []float64) []float64 {
	full := make([]float64, f.inner.Dim())
	for i, v := range f.values {
		full[i] = v
	}
	for k, i := range f.free {
		if k < len(p) {
			full[i] = p[k]
		}
	}
	return full
}

// Reduce extracts the free parameters from a full parameter vector.
func (f *Fixed[M]) Reduce(full []float64) []float64 {
	p := make([]float64, len(f.free))
	for k, i := range f.free {
		p[k] = full[i]
	}
	return p
}

// Dim returns the number of free parameters.
func (f *Fixed[M]) Dim() int { return len(f.free) }

// LowerBound returns the lower bound of free parameter i.
func (f *Fixed[M]) LowerBound(i int) float64 { return f.inner.LowerBound(f.free[i]) }

// UpperBound returns the upper bound of free parameter i.
func (f *Fixed[M]) UpperBound(i int) float64 { return f.inner.UpperBound(f.free[i]) }

// CheckBoundaries checks the expanded parameters against the wrapped domain.
func (f *Fixed[M]) CheckBoundaries(p []float64) bool {
	return len(p) == len(f.free) && f.inner.CheckBoundaries(f.Expand(p))
}

// Epsilon returns the step of the wrapped domain for free parameter i.
func (f *Fixed[M]) Epsilon(p []float64, i int) float64 {
	return f.inner.Epsilon(f.Expand(p), f.free[i])
}

// Validate validates the expanded vector. A repair that would move a fixed
// parameter makes the point invalid.
func (f *Fixed[M]) Validate(p []float64) Validation {
	full := f.Expand(p)
	rslt := f.inner.Validate(full)
	if rslt == Changed {
		for i, v := range f.values {
			if full[i] != v {
				return Invalid
			}
		}
		copy(p, f.Reduce(full))
	}
	return rslt
}

// DefaultParameters returns the free part of the wrapped defaults.
func (f *Fixed[M]) DefaultParameters() []float64 {
	return f.Reduce(f.inner.DefaultParameters())
}

// Description returns the wrapped description of free parameter i.
func (f *Fixed[M]) Description(i int) string {
	return f.inner.Description(f.free[i])
}

// Map maps the free parameters, completed with the fixed values.
func (f *Fixed[M]) Map(p []float64) (M, error) {
	return f.inner.Map(f.Expand(p))
}

// ParametersOf returns the free parameters of m.
func (f *Fixed[M]) ParametersOf(m M) []float64 {
	return f.Reduce(f.inner.ParametersOf(m))
}
