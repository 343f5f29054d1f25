// Package params defines parameter domains and parametric mappings.
package params

import "fmt"

// Validation reports the outcome of Domain.Validate.
type Validation int

const (
	// Valid means the parameters were already inside the domain.
	Valid Validation = iota
	// Changed means the parameters were repaired in place.
	Changed
	// Invalid means the parameters could not be repaired.
	Invalid
)

// String returns the name of the validation outcome.
func (v Validation) String() string {
	switch v {
	case Valid:
		return "valid"
	case Changed:
		return "changed"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("validation(%d)", int(v))
	}
}

// Domain describes the admissible values of a parameter vector.
//
// All methods are deterministic and free of side effects, except Validate,
// which may modify its argument.
type Domain interface {
	// Dim returns the number of free parameters.
	Dim() int
	// LowerBound returns the lower bound of parameter i (may be -Inf).
	LowerBound(i int) float64
	// UpperBound returns the upper bound of parameter i (may be +Inf).
	UpperBound(i int) float64
	// CheckBoundaries reports whether p satisfies all the constraints.
	CheckBoundaries(p []float64) bool
	// Epsilon returns the finite-difference step for parameter i at p.
	Epsilon(p []float64, i int) float64
	// Validate repairs p in place when possible.
	Validate(p []float64) Validation
	// DefaultParameters returns a starting vector.
	DefaultParameters() []float64
	// Description returns a short label for parameter i.
	Description(i int) string
}

// Mapping is a Domain whose points map to model instances of type M.
type Mapping[M any] interface {
	Domain
	// Map builds the model corresponding to p.
	Map(p []float64) (M, error)
	// ParametersOf returns the parameters of m (the inverse of Map).
	ParametersOf(m M) []float64
}

// DefaultDescription is the label used when a domain has no better name.
func DefaultDescription(i int) string {
	return fmt.Sprintf("parameter-%d", i+1)
}

// InBounds reports whether every element of p lies inside the box bounds
// of d. It does not check the other domain constraints.
func InBounds(d Domain, p []float64) bool {
	if len(p) != d.Dim() {
		return false
	}
	for i, x := range p {
		if x != x || x < d.LowerBound(i) || x > d.UpperBound(i) {
			return false
		}
	}
	return true
}
